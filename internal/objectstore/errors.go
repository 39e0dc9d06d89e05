package objectstore

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no entity with the id exists in the kind.
var ErrNotFound = errors.New("objectstore: not found")

// NotFoundError carries the missing key; it matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("objectstore: %s/%s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a *NotFoundError.
func NotFound(kind Kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// TransportError reports a network failure or a non-2xx response.
type TransportError struct {
	Op         string
	Kind       Kind
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("objectstore: %s %s: status %d: %v", e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("objectstore: %s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsNotFound is a shorthand for errors.Is(err, ErrNotFound).
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
