package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"exoticpets/internal/objectstore"
)

// Store is the subset of *objectstore.Client the facade needs.
type Store interface {
	List(ctx context.Context, kind objectstore.Kind, opts objectstore.ListOptions) ([]objectstore.Entity, error)
	Get(ctx context.Context, kind objectstore.Kind, id string) (objectstore.Entity, error)
	Create(ctx context.Context, kind objectstore.Kind, attrs objectstore.Attributes) (objectstore.Entity, error)
	Update(ctx context.Context, kind objectstore.Kind, id string, attrs objectstore.Attributes) (objectstore.Entity, error)
	Delete(ctx context.Context, kind objectstore.Kind, id string) error
}

// CategoryDeletePolicy decides what happens to the products of a deleted
// category.
type CategoryDeletePolicy int

const (
	// Orphan leaves the products in place; they become unreachable.
	Orphan CategoryDeletePolicy = iota
	// Cascade deletes every product of the category before the category.
	Cascade
)

func (p CategoryDeletePolicy) String() string {
	if p == Cascade {
		return "cascade"
	}
	return "orphan"
}

// ParseDeletePolicy maps CATEGORY_DELETE_POLICY values.
func ParseDeletePolicy(s string) (CategoryDeletePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "orphan":
		return Orphan, nil
	case "cascade":
		return Cascade, nil
	}
	return Orphan, fmt.Errorf("services: unknown category delete policy %q", s)
}

// ImageSink stores an inline image somewhere else and returns its URL.
type ImageSink interface {
	Upload(ctx context.Context, dataURI string) (string, error)
}

type Options struct {
	DeletePolicy CategoryDeletePolicy
	Now          func() time.Time // defaults to time.Now
	Images       ImageSink        // optional; nil keeps data URIs inline
}

// API is the domain facade used by the page handlers.
type API struct {
	Categories *CategoryService
	Products   *ProductService
	Orders     *OrderService

	images ImageSink
}

func NewAPI(store Store, opts Options) *API {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	products := &ProductService{store: store}
	return &API{
		Categories: &CategoryService{store: store, products: products, policy: opts.DeletePolicy},
		Products:   products,
		Orders:     &OrderService{store: store, now: now},
		images:     opts.Images,
	}
}

// ValidationError reports input the facade refuses before any store call.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

// listNewest is the listing used everywhere: newest first, one page of at
// most DefaultListLimit entities.
var listNewest = objectstore.ListOptions{Limit: objectstore.DefaultListLimit, NewestFirst: true}
