package httpx

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// HTTPError represents a non-2xx HTTP response returned by the remote service.
type HTTPError struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("http error: status=%d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("http error: status=%d", e.StatusCode)
}

// Message extracts a human readable message from a JSON error body
// ({"error": "..."} or {"message": "..."}). It returns "" when the body
// carries neither.
func (e *HTTPError) Message() string {
	if e == nil || len(e.Body) == 0 || !gjson.ValidBytes(e.Body) {
		return ""
	}
	if msg := gjson.GetBytes(e.Body, "error"); msg.Type == gjson.String {
		return msg.String()
	}
	if msg := gjson.GetBytes(e.Body, "error.message"); msg.Exists() {
		return msg.String()
	}
	return gjson.GetBytes(e.Body, "message").String()
}

// NotFound reports whether the response was a 404.
func (e *HTTPError) NotFound() bool {
	return e != nil && e.StatusCode == http.StatusNotFound
}
