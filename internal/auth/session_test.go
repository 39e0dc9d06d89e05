package auth_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exoticpets/internal/auth"
)

func TestFiberSession_PersistsAcrossRequests(t *testing.T) {
	g := newGate(t)
	store := session.New()

	app := fiber.New()
	app.Use(auth.Middleware(store))
	app.Post("/login", func(c *fiber.Ctx) error {
		s, _ := auth.SessionFrom(c.UserContext())
		ok, err := g.Login(s, c.FormValue("username"), c.FormValue("password"))
		if err != nil {
			return err
		}
		return c.SendString(strconv.FormatBool(ok))
	})
	app.Post("/logout", func(c *fiber.Ctx) error {
		s, _ := auth.SessionFrom(c.UserContext())
		return g.Logout(s)
	})
	app.Get("/me", func(c *fiber.Ctx) error {
		s, _ := auth.SessionFrom(c.UserContext())
		return c.SendString(strconv.FormatBool(g.IsAuthenticated(s)))
	})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=admin&password=admin123"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "true", readBody(t, resp))

	var sid *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == "session_id" {
			sid = ck
		}
	}
	require.NotNil(t, sid, "login should set the session cookie")

	me := func() string {
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		r.AddCookie(sid)
		resp, err := app.Test(r)
		require.NoError(t, err)
		return readBody(t, resp)
	}
	assert.Equal(t, "true", me())

	out := httptest.NewRequest(http.MethodPost, "/logout", nil)
	out.AddCookie(sid)
	resp, err = app.Test(out)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "false", me())

	// a request without any cookie is anonymous
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, "false", readBody(t, resp))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
