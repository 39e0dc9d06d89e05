package objectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"exoticpets/internal/metrics"
)

// Backend is the raw store contract. Implementations: the HTTP backend in this
// package, memstore.Store and repos.ObjectRepo.
type Backend interface {
	List(ctx context.Context, kind Kind, opts ListOptions) ([]Entity, error)
	Get(ctx context.Context, kind Kind, id string) (Entity, error)
	Create(ctx context.Context, kind Kind, attrs Attributes) (Entity, error)
	Update(ctx context.Context, kind Kind, id string, attrs Attributes) (Entity, error)
	Delete(ctx context.Context, kind Kind, id string) error
}

// Client provides validated, instrumented access to a Backend. Every call is
// a single attempt; nothing is cached.
type Client struct {
	backend Backend
}

// NewWithBackend wraps an existing backend.
func NewWithBackend(b Backend) *Client {
	return &Client{backend: b}
}

// List returns up to opts.Limit entities of the kind. An empty collection
// yields an empty slice, not an error.
func (c *Client) List(ctx context.Context, kind Kind, opts ListOptions) ([]Entity, error) {
	if err := c.check(kind); err != nil {
		return nil, err
	}
	start := time.Now()
	items, err := c.backend.List(ctx, kind, opts.normalized())
	record("list", kind, err, start)
	if err != nil {
		return nil, transportErr("list", kind, err)
	}
	if items == nil {
		items = []Entity{}
	}
	return items, nil
}

// Get returns the entity or an error matching ErrNotFound.
func (c *Client) Get(ctx context.Context, kind Kind, id string) (Entity, error) {
	if err := c.checkID(kind, id); err != nil {
		return Entity{}, err
	}
	start := time.Now()
	e, err := c.backend.Get(ctx, kind, id)
	record("get", kind, err, start)
	return e, transportErr("get", kind, err)
}

// Create stores attrs under a store-assigned id.
func (c *Client) Create(ctx context.Context, kind Kind, attrs Attributes) (Entity, error) {
	if err := c.check(kind); err != nil {
		return Entity{}, err
	}
	if attrs == nil {
		attrs = Attributes{}
	}
	start := time.Now()
	e, err := c.backend.Create(ctx, kind, attrs)
	record("create", kind, err, start)
	return e, transportErr("create", kind, err)
}

// Update replaces the attributes of an existing entity.
func (c *Client) Update(ctx context.Context, kind Kind, id string, attrs Attributes) (Entity, error) {
	if err := c.checkID(kind, id); err != nil {
		return Entity{}, err
	}
	if attrs == nil {
		attrs = Attributes{}
	}
	start := time.Now()
	e, err := c.backend.Update(ctx, kind, id, attrs)
	record("update", kind, err, start)
	return e, transportErr("update", kind, err)
}

// Delete removes an entity. Deleting a missing id returns ErrNotFound.
func (c *Client) Delete(ctx context.Context, kind Kind, id string) error {
	if err := c.checkID(kind, id); err != nil {
		return err
	}
	start := time.Now()
	err := c.backend.Delete(ctx, kind, id)
	record("delete", kind, err, start)
	return transportErr("delete", kind, err)
}

func (c *Client) check(kind Kind) error {
	if c == nil || c.backend == nil {
		return errors.New("objectstore: client is nil")
	}
	return kind.Validate()
}

func (c *Client) checkID(kind Kind, id string) error {
	if err := c.check(kind); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("objectstore: id is required")
	}
	return nil
}

// transportErr gives every backend the same failure shape: not-found errors
// and *TransportError pass through, anything else is wrapped.
func transportErr(op string, kind Kind, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Kind: kind, Err: err}
}

func record(op string, kind Kind, err error, start time.Time) {
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = metrics.OutcomeNotFound
	default:
		outcome = metrics.OutcomeError
	}
	metrics.RecordStoreOp(op, string(kind.Collection), outcome, time.Since(start))
}
