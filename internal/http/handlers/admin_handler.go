package handlers

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"exoticpets/internal/domain"
	applog "exoticpets/internal/log"
	"exoticpets/internal/objectstore"
	"exoticpets/internal/services"
)

type AdminHandler struct {
	API *services.API
}

func param(c *fiber.Ctx, name string) string {
	v, err := url.PathUnescape(c.Params(name))
	if err != nil {
		return ""
	}
	return v
}

func backToTab(c *fiber.Ctx, tab, notice string) error {
	q := url.Values{"tab": {tab}}
	if notice != "" {
		q.Set("notice", notice)
	}
	return c.Redirect("/admin?"+q.Encode(), fiber.StatusSeeOther)
}

// storeFailure maps a data-layer error on a mutation to a page.
func storeFailure(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	if objectstore.IsNotFound(err) {
		return notFound(c, "That item no longer exists")
	}
	applog.Error(c, action, err, fields)
	return c.Status(fiber.StatusBadGateway).Render("notfound", fiber.Map{"Message": "The store is unavailable right now. Please try again."})
}

// ---------- categories ----------

// GET /admin/categories/new
func (h *AdminHandler) NewCategoryForm(c *fiber.Ctx) error {
	return render(c, "category_form", fiber.Map{"Form": categoryForm{DisplayOrder: "0"}})
}

// GET /admin/categories/:id/edit
func (h *AdminHandler) EditCategoryForm(c *fiber.Ctx) error {
	id := param(c, "id")
	cat, err := h.API.Categories.Get(c.UserContext(), id)
	if err != nil {
		return storeFailure(c, "admin.categories.get.fail", err, map[string]any{"category_id": id})
	}
	return render(c, "category_form", fiber.Map{"Form": categoryFormFrom(cat), "Edit": true})
}

func (h *AdminHandler) categoryFormError(c *fiber.Ctx, form categoryForm, edit bool, err error) error {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		applog.Security(c, "validation.fail", map[string]any{"field": ve.Field, "form": "category"})
		c.Status(fiber.StatusBadRequest)
		return render(c, "category_form", fiber.Map{"Form": form, "Edit": edit, "Err": ve.Msg})
	}
	return storeFailure(c, "admin.categories.save.fail", err, map[string]any{"category_id": form.ID})
}

// POST /admin/categories
func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	form, cat, err := parseCategoryForm(c, h.API)
	if err == nil {
		cat, err = h.API.Categories.Create(c.UserContext(), cat)
	}
	if err != nil {
		return h.categoryFormError(c, form, false, err)
	}
	applog.Audit(c, "admin.categories.create", map[string]any{"category_id": cat.ID})
	return backToTab(c, "categories", "Category created")
}

// POST /admin/categories/:id
func (h *AdminHandler) UpdateCategory(c *fiber.Ctx) error {
	id := param(c, "id")
	form, cat, err := parseCategoryForm(c, h.API)
	form.ID = id
	if err == nil {
		_, err = h.API.Categories.Update(c.UserContext(), id, cat)
	}
	if err != nil {
		return h.categoryFormError(c, form, true, err)
	}
	applog.Audit(c, "admin.categories.update", map[string]any{"category_id": id})
	return backToTab(c, "categories", "Category saved")
}

// POST /admin/categories/:id/delete
func (h *AdminHandler) DeleteCategory(c *fiber.Ctx) error {
	id := param(c, "id")
	if err := h.API.Categories.Delete(c.UserContext(), id); err != nil {
		return storeFailure(c, "admin.categories.delete.fail", err, map[string]any{"category_id": id})
	}
	applog.Audit(c, "admin.categories.delete", map[string]any{"category_id": id, "policy": h.API.Categories.Policy().String()})
	return backToTab(c, "categories", "Category deleted")
}

// ---------- products ----------

// GET /admin/products/new?categoryId=
func (h *AdminHandler) NewProductForm(c *fiber.Ctx) error {
	cats, err := h.API.Categories.List(c.UserContext())
	if err != nil {
		return storeFailure(c, "admin.categories.list.fail", err, nil)
	}
	form := productFormFrom(domain.Product{CategoryID: c.Query("categoryId"), StockStatus: domain.InStock})
	form.Price = ""
	return render(c, "product_form", fiber.Map{"Form": form, "Categories": cats, "StockStatuses": stockStatuses})
}

var stockStatuses = []string{domain.InStock, domain.OutOfStock}

// GET /admin/products/:categoryId/:id/edit
func (h *AdminHandler) EditProductForm(c *fiber.Ctx) error {
	catID, id := param(c, "categoryId"), param(c, "id")
	p, err := h.API.Products.Get(c.UserContext(), catID, id)
	if err != nil {
		return storeFailure(c, "admin.products.get.fail", err, map[string]any{"category_id": catID, "product_id": id})
	}
	return render(c, "product_form", fiber.Map{"Form": productFormFrom(p), "Edit": true, "StockStatuses": stockStatuses})
}

func (h *AdminHandler) productFormError(c *fiber.Ctx, form productForm, edit bool, err error) error {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		applog.Security(c, "validation.fail", map[string]any{"field": ve.Field, "form": "product"})
		data := fiber.Map{"Form": form, "Edit": edit, "Err": ve.Msg, "StockStatuses": stockStatuses}
		if !edit {
			data["Categories"], _ = h.API.Categories.List(c.UserContext())
		}
		c.Status(fiber.StatusBadRequest)
		return render(c, "product_form", data)
	}
	return storeFailure(c, "admin.products.save.fail", err, map[string]any{"category_id": form.CategoryID, "product_id": form.ID})
}

// POST /admin/products
func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	form, p, err := parseProductForm(c, h.API, "")
	if err == nil {
		p, err = h.API.Products.Create(c.UserContext(), form.CategoryID, p)
	}
	if err != nil {
		return h.productFormError(c, form, false, err)
	}
	applog.Audit(c, "admin.products.create", map[string]any{"category_id": p.CategoryID, "product_id": p.ID})
	return backToTab(c, "products", "Product created")
}

// POST /admin/products/:categoryId/:id
func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	catID, id := param(c, "categoryId"), param(c, "id")
	// the category of a product never changes
	form, p, err := parseProductForm(c, h.API, catID)
	form.ID = id
	if err == nil {
		_, err = h.API.Products.Update(c.UserContext(), catID, id, p)
	}
	if err != nil {
		return h.productFormError(c, form, true, err)
	}
	applog.Audit(c, "admin.products.update", map[string]any{"category_id": catID, "product_id": id})
	return backToTab(c, "products", "Product saved")
}

// POST /admin/products/:categoryId/:id/delete
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	catID, id := param(c, "categoryId"), param(c, "id")
	if err := h.API.Products.Delete(c.UserContext(), catID, id); err != nil {
		return storeFailure(c, "admin.products.delete.fail", err, map[string]any{"category_id": catID, "product_id": id})
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"category_id": catID, "product_id": id})
	return backToTab(c, "products", "Product deleted")
}

// ---------- orders ----------

// POST /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id := param(c, "id")
	status := c.FormValue("status")
	_, err := h.API.Orders.UpdateStatus(c.UserContext(), id, status)
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		applog.Security(c, "validation.fail", map[string]any{"field": "status", "form": "order"})
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Unknown order status"})
	}
	if err != nil {
		return storeFailure(c, "admin.orders.update.fail", err, map[string]any{"order_id": id})
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": status})
	return backToTab(c, "orders", "Order updated")
}
