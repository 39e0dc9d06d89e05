package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "exoticpets/internal/log"
	"exoticpets/internal/router"
)

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	ReqID  string         `json:"req_id"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.buf.Write(p)
}

// captureLogs points the app logger at a buffer while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	w := &lockedWriter{}
	applog.SetOutput(w)
	defer applog.SetOutput(os.Stderr)

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(w.buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findAction(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func TestAuthLogging(t *testing.T) {
	e := newEnv(t)

	logs := captureLogs(t, func() {
		e.postForm(t, "/admin/login", url.Values{"username": {adminUser}, "password": {"nope"}})
	})
	fail, ok := findAction(logs, "auth.login.fail")
	require.True(t, ok, "auth.login.fail not logged: %+v", logs)
	assert.Equal(t, "warn", fail.Level)
	assert.Equal(t, adminUser, fail.Fields["username"])
	assert.NotEmpty(t, fail.ReqID)
	for _, entry := range logs {
		assert.NotContains(t, entry.Fields, "password")
	}

	logs = captureLogs(t, func() { e.login(t) })
	success, found := findAction(logs, "auth.login.success")
	require.True(t, found)
	assert.Equal(t, true, success.Fields["audit"])
}

func TestAdminMutationsAreAudited(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	logs := captureLogs(t, func() {
		e.postForm(t, "/admin/categories", url.Values{"name": {"Insects"}})
	})
	entry, ok := findAction(logs, "admin.categories.create")
	require.True(t, ok)
	assert.Equal(t, "info", entry.Level)
	assert.NotEmpty(t, entry.Fields["category_id"])
	assert.Equal(t, true, entry.Fields["audit"])
}

func TestDeniedAndInvalidRequestsAreLogged(t *testing.T) {
	e := newEnv(t)
	cat, p := seedCatalog(t, e)

	logs := captureLogs(t, func() {
		e.postForm(t, "/admin/categories", url.Values{"name": {"Nope"}})
		form := orderForm()
		form.Set("email", "bad")
		e.postForm(t, router.ProductPath(cat.ID, p.ID)+"/order", form)
	})
	_, ok := findAction(logs, "access.denied.admin")
	assert.True(t, ok)
	v, ok := findAction(logs, "validation.fail")
	require.True(t, ok)
	assert.Equal(t, "email", v.Fields["field"])
}
