package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stderr)
)

func newLogger(w io.Writer) zerolog.Logger {
	zerolog.TimestampFieldName = "ts"
	zerolog.ErrorFieldName = "err"
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).With().Timestamp().Logger()
}

// SetOutput redirects all entries, e.g. to stderr plus LOG_FILE, or to a
// buffer in tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

// Logger returns the process logger for code that has no request at hand.
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

func write(level zerolog.Level, c *fiber.Ctx, action string, err error, fields map[string]any) {
	mu.RLock()
	ev := logger.WithLevel(level)
	mu.RUnlock()

	if c != nil {
		ev = ev.Str("ip", c.IP()).
			Str("method", c.Method()).
			Str("path", c.Path())
		if status := c.Response().StatusCode(); status != 0 {
			ev = ev.Int("status", status)
		}
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ev = ev.Str("req_id", rid)
		}
	}
	if action != "" {
		ev = ev.Str("action", action)
	}
	if err != nil {
		ev = ev.Err(err)
	}
	if len(fields) > 0 {
		ev = ev.Interface("fields", fields)
	}
	ev.Send()
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(zerolog.InfoLevel, c, action, nil, fields)
}
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	// audit entries are info level with a marker so they can be filtered
	marked := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		marked[k] = v
	}
	marked["audit"] = true
	write(zerolog.InfoLevel, c, action, nil, marked)
}
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(zerolog.WarnLevel, c, action, nil, fields)
}
func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(zerolog.ErrorLevel, c, action, err, fields)
}
