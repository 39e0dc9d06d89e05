package handlers

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"

	"exoticpets/internal/router"
)

// NewEngine loads the page templates with the helpers they use.
func NewEngine(dir string) *html.Engine {
	engine := html.New(dir, ".html")
	engine.AddFunc("categoryPath", router.CategoryPath)
	engine.AddFunc("productPath", router.ProductPath)
	engine.AddFunc("money", func(f float64) string { return fmt.Sprintf("$%.2f", f) })
	engine.AddFunc("img", imageSrc)
	engine.AddFunc("slot", func(images []string, i int) string {
		if i < len(images) {
			return images[i]
		}
		return ""
	})
	engine.AddFunc("escape", url.PathEscape)
	engine.AddFunc("add", func(a, b int) int { return a + b })
	return engine
}

// imageSrc lets stored http(s) URLs and inline image data URIs through
// html/template, which would otherwise blank data URIs. Anything else
// becomes an empty src.
func imageSrc(s string) template.URL {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"),
		strings.HasPrefix(lower, "data:image/"), strings.HasPrefix(s, "/static/"):
		return template.URL(s)
	}
	return ""
}

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if admin, _ := c.Locals("admin").(bool); admin {
		data["IsAdmin"] = true
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		// fall back to the cookie when Locals wasn't populated
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

// notFound renders the shared 404 page.
func notFound(c *fiber.Ctx, msg string) error {
	if msg == "" {
		msg = "Page not found"
	}
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg})
}
