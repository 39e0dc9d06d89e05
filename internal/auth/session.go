package auth

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Session is the persisted client state the gate reads and writes.
type Session interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

type ctxKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// SessionFrom returns the session attached by WithSession.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok && s != nil
}

// MemorySession is a process-local Session, mainly for tests.
type MemorySession struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemorySession() *MemorySession {
	return &MemorySession{values: map[string]string{}}
}

func (m *MemorySession) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemorySession) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemorySession) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// fiberSession adapts fiber's session middleware. Save releases the
// underlying session, so every call fetches it again.
type fiberSession struct {
	store *session.Store
	c     *fiber.Ctx
}

// FiberSession wraps the request's fiber session.
func FiberSession(store *session.Store, c *fiber.Ctx) Session {
	return &fiberSession{store: store, c: c}
}

func (f *fiberSession) Get(key string) (string, bool) {
	sess, err := f.store.Get(f.c)
	if err != nil {
		return "", false
	}
	v, ok := sess.Get(key).(string)
	return v, ok && v != ""
}

func (f *fiberSession) Set(key, value string) error {
	sess, err := f.store.Get(f.c)
	if err != nil {
		return err
	}
	// new id on privilege change
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(key, value)
	return sess.Save()
}

func (f *fiberSession) Delete(key string) error {
	sess, err := f.store.Get(f.c)
	if err != nil {
		return err
	}
	sess.Delete(key)
	return sess.Save()
}

// Middleware attaches the request's session to the user context so handlers
// and the gate can reach it through SessionFrom.
func Middleware(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.SetUserContext(WithSession(c.UserContext(), FiberSession(store, c)))
		return c.Next()
	}
}
