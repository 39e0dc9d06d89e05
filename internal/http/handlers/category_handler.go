package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "exoticpets/internal/log"
	"exoticpets/internal/objectstore"
)

func (h *PageHandler) Category(c *fiber.Ctx, categoryID string) error {
	ctx := c.UserContext()
	cat, err := h.API.Categories.Get(ctx, categoryID)
	if stale(c) {
		return discard(c)
	}
	if objectstore.IsNotFound(err) {
		c.Status(fiber.StatusNotFound)
		return render(c, "category", fiber.Map{"NotFound": true})
	}
	if err != nil {
		applog.Error(c, "category.load.fail", err, map[string]any{"category_id": categoryID})
		return render(c, "category", fiber.Map{"Error": "We could not load this category right now."})
	}

	products, err := h.API.Products.List(ctx, categoryID)
	if stale(c) {
		return discard(c)
	}
	data := fiber.Map{"Category": cat, "Products": products}
	if err != nil {
		applog.Error(c, "category.products.fail", err, map[string]any{"category_id": categoryID})
		data["Error"] = "We could not load the pets in this category right now."
	}
	return render(c, "category", data)
}
