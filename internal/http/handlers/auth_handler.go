package handlers

import (
	"github.com/gofiber/fiber/v2"

	"exoticpets/internal/auth"
	applog "exoticpets/internal/log"
)

type AuthHandler struct {
	Gate *auth.Gate
}

// POST /admin/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	s, ok := auth.SessionFrom(c.UserContext())
	if !ok {
		applog.Error(c, "auth.login.nosession", nil, nil)
		c.Status(fiber.StatusInternalServerError)
		return render(c, "admin_login", fiber.Map{"Err": "Sign in is unavailable right now."})
	}
	ok, err := h.Gate.Login(s, username, c.FormValue("password"))
	if err != nil {
		applog.Error(c, "auth.login.session", err, nil)
		c.Status(fiber.StatusInternalServerError)
		return render(c, "admin_login", fiber.Map{"Err": "Sign in is unavailable right now."})
	}
	if !ok {
		applog.Security(c, "auth.login.fail", map[string]any{"username": username})
		c.Status(fiber.StatusUnauthorized)
		return render(c, "admin_login", fiber.Map{"Err": "Invalid username or password"})
	}
	applog.Audit(c, "auth.login.success", map[string]any{"username": username})
	return c.Redirect("/admin", fiber.StatusSeeOther)
}

// POST /admin/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if s, ok := auth.SessionFrom(c.UserContext()); ok {
		if err := h.Gate.Logout(s); err != nil {
			applog.Error(c, "auth.logout.fail", err, nil)
		}
	}
	applog.Audit(c, "auth.logout", nil)
	return c.Redirect("/", fiber.StatusSeeOther)
}
