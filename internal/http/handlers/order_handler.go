package handlers

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"exoticpets/internal/domain"
	applog "exoticpets/internal/log"
	"exoticpets/internal/objectstore"
	"exoticpets/internal/router"
	"exoticpets/internal/services"
)

type OrderHandler struct {
	API   *services.API
	Pages *PageHandler
}

// POST /product/:categoryId/:productId/order
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	ctx := c.UserContext()
	categoryID, err1 := url.PathUnescape(c.Params("categoryId"))
	productID, err2 := url.PathUnescape(c.Params("productId"))
	if err1 != nil || err2 != nil {
		return notFound(c, "This pet is no longer available")
	}

	// price and title come from the store, never from the form
	p, err := h.API.Products.Get(ctx, categoryID, productID)
	if objectstore.IsNotFound(err) {
		return notFound(c, "This pet is no longer available")
	}
	if err != nil {
		applog.Error(c, "order.product.fail", err, map[string]any{"product_id": productID})
		return h.Pages.Product(c, categoryID, productID, &orderForm{Err: "We could not place your request right now. Please try again."})
	}

	form := &orderForm{
		FullName:    c.FormValue("fullName"),
		PhoneNumber: c.FormValue("phoneNumber"),
		Email:       c.FormValue("email"),
	}
	if !p.InStock() {
		form.Err = "This pet is currently out of stock."
		return h.Pages.Product(c, categoryID, productID, form)
	}

	o, err := h.API.Orders.Create(ctx, domain.Order{
		FullName:     form.FullName,
		PhoneNumber:  form.PhoneNumber,
		Email:        form.Email,
		ProductID:    p.ID,
		ProductTitle: p.Title,
		ProductPrice: p.SalePrice(),
	})
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		applog.Security(c, "validation.fail", map[string]any{"field": ve.Field, "form": "order"})
		form.Err = ve.Msg
		return h.Pages.Product(c, categoryID, productID, form)
	case err != nil:
		applog.Error(c, "order.create.fail", err, map[string]any{"product_id": p.ID})
		form.Err = "We could not place your request right now. Please try again."
		return h.Pages.Product(c, categoryID, productID, form)
	}

	applog.Audit(c, "order.placed", map[string]any{"order_id": o.ID, "product_id": p.ID})
	return c.Redirect(router.ProductPath(categoryID, productID)+"?ordered=1", fiber.StatusSeeOther)
}
