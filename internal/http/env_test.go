package handlers_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/require"

	"exoticpets/internal/auth"
	"exoticpets/internal/http/handlers"
	"exoticpets/internal/objectstore"
	"exoticpets/internal/objectstore/memstore"
	"exoticpets/internal/services"
)

const (
	adminUser = "keeper"
	adminPass = "s3cret-Pass"
)

// testEnv is the storefront wired like cmd/exoticpets, on an in-memory store.
// It keeps the cookies the app hands out, like a browser would.
type testEnv struct {
	app     *fiber.App
	api     *services.API
	cookies map[string]*http.Cookie
}

type envConfig struct {
	policy        services.CategoryDeletePolicy
	loginAttempts int
	images        services.ImageSink
}

type envOption func(*envConfig)

func withDeletePolicy(p services.CategoryDeletePolicy) envOption {
	return func(c *envConfig) { c.policy = p }
}

func withImageSink(s services.ImageSink) envOption {
	return func(c *envConfig) { c.images = s }
}

func withLoginAttempts(n int) envOption {
	return func(c *envConfig) { c.loginAttempts = n }
}

func newEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	var cfg envConfig
	for _, o := range opts {
		o(&cfg)
	}
	api := services.NewAPI(objectstore.NewWithBackend(memstore.New()), services.Options{DeletePolicy: cfg.policy, Images: cfg.images})
	gate, err := auth.NewGate(adminUser, adminPass)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{
		Views:        handlers.NewEngine("../../web/templates"),
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Server().MaxRequestBodySize = 1 << 20
	app.Use(requestid.New())
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		ErrorHandler:   handlers.CSRFFailed,
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})
	app.Use(handlers.RequestContext(context.Background(), 5*time.Second))
	app.Use(auth.Middleware(session.New()))

	deps := handlers.NewDeps(api, gate)
	deps.LoginAttempts = cfg.loginAttempts
	handlers.Register(app, deps)
	app.Use(handlers.NotFoundFallback)

	e := &testEnv{app: app, api: api, cookies: map[string]*http.Cookie{}}
	// first visit hands out the csrf cookie
	resp := e.get(t, "/")
	require.NotEmpty(t, e.csrf(), "csrf cookie missing; status %d", resp.StatusCode)
	return e
}

func (e *testEnv) csrf() string {
	if c, ok := e.cookies["csrf_"]; ok {
		return c.Value
	}
	return ""
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	for _, c := range e.cookies {
		req.AddCookie(c)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(e.cookies, c.Name)
			continue
		}
		e.cookies[c.Name] = c
	}
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

// postForm sends an urlencoded form with the csrf token filled in.
func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if form.Get("csrf") == "" {
		form.Set("csrf", e.csrf())
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req)
}

// postMultipart sends fields and files the way the admin forms do.
func (e *testEnv) postMultipart(t *testing.T, path string, fields map[string]string, files map[string][]byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("csrf", e.csrf()))
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for k, data := range files {
		fw, err := w.CreateFormFile(k, k+".png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.do(t, req)
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	resp := e.postForm(t, "/admin/login", url.Values{"username": {adminUser}, "password": {adminPass}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Contains(t, e.cookies, "session_id")
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")
