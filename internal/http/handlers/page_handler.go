package handlers

import (
	"github.com/gofiber/fiber/v2"

	"exoticpets/internal/auth"
	"exoticpets/internal/domain"
	applog "exoticpets/internal/log"
	"exoticpets/internal/router"
	"exoticpets/internal/services"
)

// PageHandler renders the GET pages. Each request resolves its own route
// and fetches its own data; nothing is shared between requests.
type PageHandler struct {
	API  *services.API
	Gate *auth.Gate
}

// Compose resolves the request path and renders the matching page.
func (h *PageHandler) Compose(c *fiber.Ctx) error {
	route := router.Resolve(c.Path())
	switch route.Page {
	case router.Home:
		return h.Home(c)
	case router.Admin:
		return h.Admin(c)
	case router.Category:
		return h.Category(c, route.Param(router.ParamCategoryID))
	case router.Product:
		return h.Product(c, route.Param(router.ParamCategoryID), route.Param(router.ParamProductID), nil)
	default:
		return notFound(c, "Page not found")
	}
}

// stale reports whether the request went away while data was loading; the
// page is then dropped instead of rendered.
func stale(c *fiber.Ctx) bool {
	if err := c.UserContext().Err(); err != nil {
		applog.Info(c, "page.discarded", map[string]any{"reason": err.Error()})
		return true
	}
	return false
}

// discard answers with a bare 408; nothing of the page is rendered.
func discard(c *fiber.Ctx) error {
	c.Status(fiber.StatusRequestTimeout)
	return nil
}

func (h *PageHandler) Home(c *fiber.Ctx) error {
	cats, err := h.API.Categories.ListOrdered(c.UserContext())
	if stale(c) {
		return discard(c)
	}
	data := fiber.Map{"Categories": cats}
	if err != nil {
		applog.Error(c, "home.categories.fail", err, nil)
		data["Error"] = "We could not load the categories right now. Please try again."
	}
	return render(c, "home", data)
}

// adminTabs are the dashboard sections, in display order.
var adminTabs = []string{"categories", "products", "orders"}

type categoryProducts struct {
	Category domain.Category
	Products []domain.Product
	Err      string
}

// Admin shows the login form to anonymous visitors and the dashboard to the
// signed-in admin.
func (h *PageHandler) Admin(c *fiber.Ctx) error {
	if !isAdmin(c, h.Gate) {
		return render(c, "admin_login", fiber.Map{})
	}
	ctx := c.UserContext()
	tab := c.Query("tab", adminTabs[0])
	known := false
	for _, t := range adminTabs {
		known = known || t == tab
	}
	if !known {
		tab = adminTabs[0]
	}
	data := fiber.Map{"Tab": tab, "Tabs": adminTabs, "Statuses": domain.OrderStatuses, "Notice": c.Query("notice")}

	cats, err := h.API.Categories.List(ctx)
	if err != nil {
		applog.Error(c, "admin.categories.fail", err, nil)
		data["Error"] = "Could not load categories."
	}
	data["Categories"] = cats

	switch tab {
	case "products":
		groups := make([]categoryProducts, 0, len(cats))
		for _, cat := range cats {
			g := categoryProducts{Category: cat}
			g.Products, err = h.API.Products.List(ctx, cat.ID)
			if err != nil {
				applog.Error(c, "admin.products.fail", err, map[string]any{"category_id": cat.ID})
				g.Err = "Could not load products."
			}
			groups = append(groups, g)
		}
		data["Groups"] = groups
	case "orders":
		orders, err := h.API.Orders.List(ctx)
		if err != nil {
			applog.Error(c, "admin.orders.fail", err, nil)
			data["Error"] = "Could not load orders."
		}
		data["Orders"] = orders
	}
	if stale(c) {
		return discard(c)
	}
	return render(c, "admin_dashboard", data)
}
