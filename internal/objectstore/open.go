package objectstore

import (
	"fmt"
	"strings"
	"time"

	"exoticpets/internal/httpx"
)

// Mode selects where the client sends its calls.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeHTTP   Mode = "http"
	ModeSQL    Mode = "sql"
	ModeMemory Mode = "memory"
)

// ParseMode accepts the STORE_MODE values; "sqlite" is an alias of "sql".
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeHTTP, ModeSQL, ModeMemory:
		return m, nil
	case "sqlite":
		return ModeSQL, nil
	default:
		return "", fmt.Errorf("objectstore: unsupported mode %q", s)
	}
}

// Options configures Open.
type Options struct {
	Mode    Mode
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Local builds the backend for ModeSQL and ModeMemory. It lives outside
	// this package so the SQL and memory stores can depend on it.
	Local func(Mode) (Backend, error)
}

// Open resolves the backend and returns a Client plus the mode it chose.
// ModeAuto picks HTTP when a base URL is set and memory otherwise.
func Open(opts Options) (*Client, Mode, error) {
	mode := opts.Mode
	if mode == "" || mode == ModeAuto {
		mode = ModeMemory
		if strings.TrimSpace(opts.BaseURL) != "" {
			mode = ModeHTTP
		}
	}

	switch mode {
	case ModeHTTP:
		if strings.TrimSpace(opts.BaseURL) == "" {
			return nil, "", fmt.Errorf("objectstore: http mode requires a base URL")
		}
		var httpOpts []httpx.Option
		if opts.Timeout > 0 {
			httpOpts = append(httpOpts, httpx.WithTimeout(opts.Timeout))
		}
		if opts.APIKey != "" {
			httpOpts = append(httpOpts, httpx.WithBearerToken(opts.APIKey))
		}
		c, err := New(opts.BaseURL, httpOpts...)
		if err != nil {
			return nil, "", fmt.Errorf("objectstore: init http client: %w", err)
		}
		return c, mode, nil
	case ModeSQL, ModeMemory:
		if opts.Local == nil {
			return nil, "", fmt.Errorf("objectstore: %s mode needs a local backend", mode)
		}
		b, err := opts.Local(mode)
		if err != nil {
			return nil, "", fmt.Errorf("objectstore: open %s backend: %w", mode, err)
		}
		return NewWithBackend(b), mode, nil
	default:
		return nil, "", fmt.Errorf("objectstore: unsupported mode %q", mode)
	}
}
