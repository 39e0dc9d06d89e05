package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "exoticpets/internal/log"
)

const genericFailure = "Something went wrong. Please try again."

// ErrorHandler is the app-wide fiber error handler. Internal details are
// logged, never shown.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	msg := genericFailure
	switch {
	case code == fiber.StatusNotFound:
		msg = "Page not found"
	case code == fiber.StatusRequestEntityTooLarge:
		msg = "That upload is too large."
	case code >= fiber.StatusInternalServerError:
		applog.Error(c, "server.error", err, nil)
	default:
		applog.Security(c, "request.rejected", map[string]any{"status": code})
	}

	// best-effort render
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// CSRFFailed is the csrf middleware's error handler.
func CSRFFailed(c *fiber.Ctx, err error) error {
	applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
	return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
}

// NotFoundFallback is mounted last and catches every unmatched route.
func NotFoundFallback(c *fiber.Ctx) error {
	return notFound(c, "Page not found")
}
