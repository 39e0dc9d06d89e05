package handlers

import (
	"github.com/gofiber/fiber/v2"

	"exoticpets/internal/auth"
	applog "exoticpets/internal/log"
)

func isAdmin(c *fiber.Ctx, gate *auth.Gate) bool {
	s, ok := auth.SessionFrom(c.UserContext())
	return ok && gate.IsAuthenticated(s)
}

// AttachAdmin marks admin requests for templates (header links, logout).
// It must run after auth.Middleware.
func AttachAdmin(gate *auth.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isAdmin(c, gate) {
			c.Locals("admin", true)
		}
		return c.Next()
	}
}

// RequireAdmin guards the admin mutations and edit forms.
func RequireAdmin(gate *auth.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !isAdmin(c, gate) {
			applog.Security(c, "access.denied.admin", nil)
			if c.Method() == fiber.MethodGet {
				return c.Redirect("/admin")
			}
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		return c.Next()
	}
}
