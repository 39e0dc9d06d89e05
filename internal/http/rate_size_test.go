package handlers_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exoticpets/internal/router"
)

// the login limiter counts per client
func TestLoginRateLimit(t *testing.T) {
	e := newEnv(t, withLoginAttempts(3))
	for i := 0; i < 4; i++ {
		resp := e.postForm(t, "/admin/login", url.Values{"username": {adminUser}, "password": {"guess"}})
		if i < 3 {
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "attempt %d", i)
			continue
		}
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	}

	// other routes are not affected
	resp := e.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// oversized POST rejected with 413
func TestBodySizeLimit(t *testing.T) {
	e := newEnv(t)
	cat, p := seedCatalog(t, e)

	oversize := "csrf=" + e.csrf() + "&fullName=" + strings.Repeat("A", (1<<20)+10)
	req := httptest.NewRequest("POST", router.ProductPath(cat.ID, p.ID)+"/order", bytes.NewReader([]byte(oversize)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: e.csrf()})
	resp, err := e.app.Test(req, -1)
	// Fiber returns an error instead of a response when body too large; treat that as pass
	if err != nil {
		if strings.Contains(err.Error(), "body size exceeds") || strings.Contains(err.Error(), "too large") {
			return
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 413 for oversize, got %d body=%s", resp.StatusCode, string(body))
	}
}

func TestUploadRejectsNonImageBytes(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	resp := e.postMultipart(t, "/admin/categories", map[string]string{"name": "Fish"},
		map[string][]byte{"thumbnailFile": bytes.Repeat([]byte{0}, 2048)})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "not an image")
}
