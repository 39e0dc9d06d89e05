package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"exoticpets/internal/auth"
	applog "exoticpets/internal/log"
	"exoticpets/internal/services"
)

type Deps struct {
	Gate          *auth.Gate
	PageHandler   *PageHandler
	OrderHandler  *OrderHandler
	AuthHandler   *AuthHandler
	AdminHandler  *AdminHandler
	LoginAttempts int // per IP per 10 minutes; 0 means 5
}

func NewDeps(api *services.API, gate *auth.Gate) *Deps {
	pages := &PageHandler{API: api, Gate: gate}
	return &Deps{
		Gate:         gate,
		PageHandler:  pages,
		OrderHandler: &OrderHandler{API: api, Pages: pages},
		AuthHandler:  &AuthHandler{Gate: gate},
		AdminHandler: &AdminHandler{API: api},
	}
}

// Register mounts the storefront and admin routes. Session, CSRF and the
// other global middleware are installed by the caller before this.
func Register(app *fiber.App, d *Deps) {
	app.Use(AttachAdmin(d.Gate))

	attempts := d.LoginAttempts
	if attempts <= 0 {
		attempts = 5
	}
	app.Post("/admin/login", limiter.New(limiter.Config{
		Max:        attempts,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("admin_login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	app.Post("/admin/logout", d.AuthHandler.Logout)

	// The guard goes on each route rather than on the group so GET /admin
	// itself stays reachable for the login form.
	guard := RequireAdmin(d.Gate)
	admin := app.Group("/admin")
	admin.Get("/categories/new", guard, d.AdminHandler.NewCategoryForm)
	admin.Get("/categories/:id/edit", guard, d.AdminHandler.EditCategoryForm)
	admin.Post("/categories", guard, d.AdminHandler.CreateCategory)
	admin.Post("/categories/:id", guard, d.AdminHandler.UpdateCategory)
	admin.Post("/categories/:id/delete", guard, d.AdminHandler.DeleteCategory)
	admin.Get("/products/new", guard, d.AdminHandler.NewProductForm)
	admin.Get("/products/:categoryId/:id/edit", guard, d.AdminHandler.EditProductForm)
	admin.Post("/products", guard, d.AdminHandler.CreateProduct)
	admin.Post("/products/:categoryId/:id", guard, d.AdminHandler.UpdateProduct)
	admin.Post("/products/:categoryId/:id/delete", guard, d.AdminHandler.DeleteProduct)
	admin.Post("/orders/:id/status", guard, d.AdminHandler.UpdateOrderStatus)

	app.Post("/product/:categoryId/:productId/order", d.OrderHandler.Place)

	// every other GET is a page picked by the router
	app.Get("/*", d.PageHandler.Compose)
}
