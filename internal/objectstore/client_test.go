package objectstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exoticpets/internal/metrics"
	"exoticpets/internal/objectstore"
	"exoticpets/internal/objectstore/memstore"
)

func newMemClient() *objectstore.Client {
	return objectstore.NewWithBackend(memstore.New())
}

func TestClient_ListEmptyIsNonNil(t *testing.T) {
	c := newMemClient()
	items, err := c.List(context.Background(), objectstore.CategoryKind(), objectstore.ListOptions{})
	require.NoError(t, err)
	require.NotNil(t, items)
	assert.Empty(t, items)
}

func TestClient_CreateGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	c := newMemClient()
	kind := objectstore.ProductKind("cat-1")

	created, err := c.Create(ctx, kind, objectstore.Attributes{"title": "Axolotl", "price": 49.5})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, kind, created.Kind)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := c.Get(ctx, kind, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Axolotl", got.Attributes["title"])
	assert.Equal(t, 49.5, got.Attributes["price"])

	updated, err := c.Update(ctx, kind, created.ID, objectstore.Attributes{"title": "Leucistic Axolotl"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Leucistic Axolotl", updated.Attributes["title"])
	_, hasPrice := updated.Attributes["price"]
	assert.False(t, hasPrice, "update replaces the attributes")

	require.NoError(t, c.Delete(ctx, kind, created.ID))
	_, err = c.Get(ctx, kind, created.ID)
	assert.ErrorIs(t, err, objectstore.ErrNotFound)

	// delete is not idempotent
	err = c.Delete(ctx, kind, created.ID)
	assert.ErrorIs(t, err, objectstore.ErrNotFound)
	var nf *objectstore.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, created.ID, nf.ID)
	assert.Equal(t, kind, nf.Kind)
}

func TestClient_KindsAreIsolated(t *testing.T) {
	ctx := context.Background()
	c := newMemClient()
	p, err := c.Create(ctx, objectstore.ProductKind("a"), objectstore.Attributes{"title": "x"})
	require.NoError(t, err)

	_, err = c.Get(ctx, objectstore.ProductKind("b"), p.ID)
	assert.ErrorIs(t, err, objectstore.ErrNotFound)

	items, err := c.List(ctx, objectstore.ProductKind("b"), objectstore.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClient_RejectsBadInputBeforeIO(t *testing.T) {
	ctx := context.Background()
	c := objectstore.NewWithBackend(panicBackend{})

	_, err := c.List(ctx, objectstore.Kind{Collection: "pets"}, objectstore.ListOptions{})
	assert.Error(t, err)
	_, err = c.List(ctx, objectstore.Kind{Collection: objectstore.Products}, objectstore.ListOptions{})
	assert.Error(t, err, "products need a category scope")
	_, err = c.Create(ctx, objectstore.Kind{Collection: objectstore.Categories, Scope: "x"}, nil)
	assert.Error(t, err, "categories are not scoped")
	_, err = c.Get(ctx, objectstore.CategoryKind(), " ")
	assert.Error(t, err)
	assert.Error(t, c.Delete(ctx, objectstore.OrderKind(), ""))
}

func TestClient_ListOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	c := newMemClient()
	for _, name := range []string{"first", "second", "third"} {
		_, err := c.Create(ctx, objectstore.CategoryKind(), objectstore.Attributes{"name": name})
		require.NoError(t, err)
	}

	newest, err := c.List(ctx, objectstore.CategoryKind(), objectstore.ListOptions{Limit: 2, NewestFirst: true})
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, "third", newest[0].Attributes["name"])
	assert.Equal(t, "second", newest[1].Attributes["name"])

	oldest, err := c.List(ctx, objectstore.CategoryKind(), objectstore.ListOptions{})
	require.NoError(t, err)
	require.Len(t, oldest, 3)
	assert.Equal(t, "first", oldest[0].Attributes["name"])
}

func TestClient_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	c := newMemClient()

	okBefore := testutil.ToFloat64(metrics.StoreOpCount("get", "order", metrics.OutcomeOK))
	nfBefore := testutil.ToFloat64(metrics.StoreOpCount("get", "order", metrics.OutcomeNotFound))

	o, err := c.Create(ctx, objectstore.OrderKind(), objectstore.Attributes{"fullName": "A"})
	require.NoError(t, err)
	_, err = c.Get(ctx, objectstore.OrderKind(), o.ID)
	require.NoError(t, err)
	_, err = c.Get(ctx, objectstore.OrderKind(), "missing")
	require.Error(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.StoreOpCount("get", "order", metrics.OutcomeOK)))
	assert.Equal(t, nfBefore+1, testutil.ToFloat64(metrics.StoreOpCount("get", "order", metrics.OutcomeNotFound)))
}

func TestClient_BackendFailuresAreTransportErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newMemClient().List(ctx, objectstore.CategoryKind(), objectstore.ListOptions{})
	var te *objectstore.TransportError
	require.True(t, errors.As(err, &te), "%T", err)
	assert.Equal(t, "list", te.Op)
	assert.Equal(t, objectstore.CategoryKind(), te.Kind)
	assert.Zero(t, te.StatusCode)
	assert.ErrorIs(t, err, context.Canceled)

	c := objectstore.NewWithBackend(failingBackend{err: errors.New("disk full")})
	_, err = c.Create(context.Background(), objectstore.OrderKind(), nil)
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "create", te.Op)
	assert.Equal(t, objectstore.OrderKind(), te.Kind)
	assert.EqualError(t, te.Err, "disk full")

	err = c.Delete(context.Background(), objectstore.OrderKind(), "x")
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "delete", te.Op)

	// not-found and existing transport errors keep their shape
	inner := &objectstore.TransportError{Op: "get", StatusCode: 502, Err: errors.New("bad gateway")}
	_, err = objectstore.NewWithBackend(failingBackend{err: inner}).Get(context.Background(), objectstore.OrderKind(), "x")
	assert.Same(t, inner, err)
	_, err = objectstore.NewWithBackend(failingBackend{err: objectstore.NotFound(objectstore.OrderKind(), "x")}).Get(context.Background(), objectstore.OrderKind(), "x")
	assert.ErrorIs(t, err, objectstore.ErrNotFound)
	assert.False(t, errors.As(err, &te))
}

func TestParseKind(t *testing.T) {
	k, err := objectstore.ParseKind("product:abc:def")
	require.NoError(t, err)
	assert.Equal(t, objectstore.Products, k.Collection)
	assert.Equal(t, "abc:def", k.Scope, "only the first colon separates")
	assert.Equal(t, "product:abc:def", k.String())

	k, err = objectstore.ParseKind("category")
	require.NoError(t, err)
	assert.Equal(t, objectstore.CategoryKind(), k)

	_, err = objectstore.ParseKind("product")
	assert.Error(t, err)
	_, err = objectstore.ParseKind("order:x")
	assert.Error(t, err)
	_, err = objectstore.ParseKind("pets")
	assert.Error(t, err)
}

type panicBackend struct{}

func (panicBackend) List(context.Context, objectstore.Kind, objectstore.ListOptions) ([]objectstore.Entity, error) {
	panic("unexpected call")
}
func (panicBackend) Get(context.Context, objectstore.Kind, string) (objectstore.Entity, error) {
	panic("unexpected call")
}
func (panicBackend) Create(context.Context, objectstore.Kind, objectstore.Attributes) (objectstore.Entity, error) {
	panic("unexpected call")
}
func (panicBackend) Update(context.Context, objectstore.Kind, string, objectstore.Attributes) (objectstore.Entity, error) {
	panic("unexpected call")
}
func (panicBackend) Delete(context.Context, objectstore.Kind, string) error {
	panic("unexpected call")
}

type failingBackend struct{ err error }

func (b failingBackend) List(context.Context, objectstore.Kind, objectstore.ListOptions) ([]objectstore.Entity, error) {
	return nil, b.err
}
func (b failingBackend) Get(context.Context, objectstore.Kind, string) (objectstore.Entity, error) {
	return objectstore.Entity{}, b.err
}
func (b failingBackend) Create(context.Context, objectstore.Kind, objectstore.Attributes) (objectstore.Entity, error) {
	return objectstore.Entity{}, b.err
}
func (b failingBackend) Update(context.Context, objectstore.Kind, string, objectstore.Attributes) (objectstore.Entity, error) {
	return objectstore.Entity{}, b.err
}
func (b failingBackend) Delete(context.Context, objectstore.Kind, string) error {
	return b.err
}
