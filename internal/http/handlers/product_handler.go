package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "exoticpets/internal/log"
	"exoticpets/internal/objectstore"
)

// orderForm carries what the visitor typed back into the product page.
type orderForm struct {
	FullName    string
	PhoneNumber string
	Email       string
	Err         string
}

func (h *PageHandler) Product(c *fiber.Ctx, categoryID, productID string, form *orderForm) error {
	ctx := c.UserContext()
	p, err := h.API.Products.Get(ctx, categoryID, productID)
	if stale(c) {
		return discard(c)
	}
	if objectstore.IsNotFound(err) {
		return notFound(c, "This pet is no longer available")
	}
	if err != nil {
		applog.Error(c, "product.load.fail", err, map[string]any{"category_id": categoryID, "product_id": productID})
		return render(c, "product", fiber.Map{"Error": "We could not load this pet right now."})
	}

	data := fiber.Map{"P": p, "Ordered": c.Query("ordered") == "1"}
	// category name is only used for the breadcrumb
	if cat, err := h.API.Categories.Get(ctx, categoryID); err == nil {
		data["Category"] = cat
	}
	if form != nil {
		data["Form"] = form
		c.Status(fiber.StatusBadRequest)
	}
	return render(c, "product", data)
}
