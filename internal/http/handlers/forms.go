package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"exoticpets/internal/domain"
	"exoticpets/internal/services"
	"exoticpets/internal/validate"
)

// categoryForm is what the category form posts, kept as typed text so a
// rejected submission can be shown again unchanged.
type categoryForm struct {
	ID           string
	Name         string
	Thumbnail    string
	DisplayOrder string
}

type productForm struct {
	ID            string
	CategoryID    string
	Title         string
	Price         string
	DiscountPrice string
	Description   string
	Species       string
	StockStatus   string
	Images        []string // one entry per slot
}

func categoryFormFrom(c domain.Category) categoryForm {
	return categoryForm{ID: c.ID, Name: c.Name, Thumbnail: c.Thumbnail, DisplayOrder: fmt.Sprint(c.DisplayOrder)}
}

func productFormFrom(p domain.Product) productForm {
	f := productForm{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Title:       p.Title,
		Price:       fmt.Sprint(p.Price),
		Description: p.Description,
		Species:     p.Species,
		StockStatus: p.StockStatus,
		Images:      make([]string, services.MaxProductImages),
	}
	if p.DiscountPrice != nil {
		f.DiscountPrice = fmt.Sprint(*p.DiscountPrice)
	}
	copy(f.Images, p.Images)
	return f
}

// uploadedImage returns the file posted under name, or nil when the slot is
// empty or the request is not multipart.
func uploadedImage(c *fiber.Ctx, name string) *multipart.FileHeader {
	fh, err := c.FormFile(name)
	if err != nil || fh == nil || fh.Size == 0 {
		return nil
	}
	return fh
}

func readImage(fh *multipart.FileHeader) (services.ImageFile, error) {
	f, err := fh.Open()
	if err != nil {
		return services.ImageFile{}, err
	}
	defer f.Close()
	// one byte over the limit is enough to reject it
	data, err := io.ReadAll(io.LimitReader(f, services.MaxImageBytes+1))
	if err != nil {
		return services.ImageFile{}, err
	}
	return services.ImageFile{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}

// imageSlot resolves one image input: an uploaded file wins over the URL.
// Uploads are only encoded here; hostImages sends them to the image sink
// once the whole form has been accepted.
func imageSlot(c *fiber.Ctx, fileField, urlValue string) (value string, uploaded bool, err error) {
	fh := uploadedImage(c, fileField)
	if fh == nil {
		return strings.TrimSpace(urlValue), false, nil
	}
	img, err := readImage(fh)
	if err != nil {
		return "", false, err
	}
	uri, err := services.EncodeImage(img)
	if err != nil {
		return "", false, err
	}
	return uri, true, nil
}

// hostImages replaces the uploaded slots with their hosted form.
func hostImages(ctx context.Context, api *services.API, images []string, uploaded []bool) error {
	for i, up := range uploaded {
		if !up {
			continue
		}
		url, err := api.HostImage(ctx, fmt.Sprintf("image%d", i+1), images[i])
		if err != nil {
			return err
		}
		images[i] = url
	}
	return nil
}

func parseCategoryForm(c *fiber.Ctx, api *services.API) (categoryForm, domain.Category, error) {
	form := categoryForm{
		Name:         c.FormValue("name"),
		Thumbnail:    c.FormValue("thumbnail"),
		DisplayOrder: c.FormValue("displayOrder"),
	}
	thumb, uploaded, err := imageSlot(c, "thumbnailFile", form.Thumbnail)
	if err != nil {
		return form, domain.Category{}, err
	}
	cat := domain.Category{
		Name:         form.Name,
		Thumbnail:    thumb,
		DisplayOrder: validate.Int(form.DisplayOrder, 0),
	}
	if err := api.Categories.Check(cat); err != nil {
		return form, domain.Category{}, err
	}
	if uploaded {
		if cat.Thumbnail, err = api.HostImage(c.UserContext(), "thumbnail", thumb); err != nil {
			return form, domain.Category{}, err
		}
	}
	form.Thumbnail = cat.Thumbnail
	return form, cat, nil
}

// parseProductForm reads and validates the product form. categoryID is the
// product's fixed category on update; on create it comes from the form.
func parseProductForm(c *fiber.Ctx, api *services.API, categoryID string) (productForm, domain.Product, error) {
	if categoryID == "" {
		categoryID = c.FormValue("categoryId")
	}
	form := productForm{
		CategoryID:    categoryID,
		Title:         c.FormValue("title"),
		Price:         c.FormValue("price"),
		DiscountPrice: c.FormValue("discountPrice"),
		Description:   c.FormValue("description"),
		Species:       c.FormValue("species"),
		StockStatus:   c.FormValue("stockStatus"),
		Images:        make([]string, services.MaxProductImages),
	}
	uploaded := make([]bool, services.MaxProductImages)
	for i := range form.Images {
		slot, up, err := imageSlot(c, fmt.Sprintf("imageFile%d", i+1), c.FormValue(fmt.Sprintf("image%d", i+1)))
		if err != nil {
			return form, domain.Product{}, err
		}
		form.Images[i], uploaded[i] = slot, up
	}

	price, ok := validate.Price(form.Price)
	if !ok {
		return form, domain.Product{}, &services.ValidationError{Field: "price", Msg: "price must be a number >= 0"}
	}
	p := domain.Product{
		Title:       form.Title,
		Price:       price,
		Description: form.Description,
		Species:     form.Species,
		StockStatus: form.StockStatus,
		Images:      form.Images,
	}
	if strings.TrimSpace(form.DiscountPrice) != "" {
		d, ok := validate.Price(form.DiscountPrice)
		if !ok {
			return form, domain.Product{}, &services.ValidationError{Field: "discountPrice", Msg: "discount price must be a number >= 0"}
		}
		p.DiscountPrice = &d
	}
	if err := api.Products.Check(categoryID, p); err != nil {
		return form, domain.Product{}, err
	}
	if err := hostImages(c.UserContext(), api, form.Images, uploaded); err != nil {
		return form, domain.Product{}, err
	}
	return form, p, nil
}
