package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestContext gives each request its own context, derived from base and
// bounded by timeout when it is positive. The context is cancelled when the
// handler chain returns, and every request's context is cancelled when base
// is (server shutdown). Mount it before auth.Middleware.
func RequestContext(base context.Context, timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithCancel(base)
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(base, timeout)
		}
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
