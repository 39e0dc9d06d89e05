package repos_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exoticpets/internal/objectstore"
	"exoticpets/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestObjectRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := repos.NewObjectRepo(memdb(t))
	kind := objectstore.ProductKind("amphibians")

	created, err := repo.Create(ctx, kind, objectstore.Attributes{"title": "Pacman Frog", "price": 35.0})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, kind, created.Kind)
	assert.Equal(t, time.UTC, created.CreatedAt.Location())

	got, err := repo.Get(ctx, kind, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pacman Frog", got.Attributes["title"])
	assert.Equal(t, 35.0, got.Attributes["price"])

	_, err = repo.Get(ctx, objectstore.ProductKind("other"), created.ID)
	assert.ErrorIs(t, err, objectstore.ErrNotFound, "kinds are isolated")

	updated, err := repo.Update(ctx, kind, created.ID, objectstore.Attributes{"title": "Budgett's Frog"})
	require.NoError(t, err)
	assert.Equal(t, "Budgett's Frog", updated.Attributes["title"])
	assert.True(t, !updated.UpdatedAt.Before(created.UpdatedAt))

	require.NoError(t, repo.Delete(ctx, kind, created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, kind, created.ID), objectstore.ErrNotFound)
	_, err = repo.Update(ctx, kind, created.ID, objectstore.Attributes{})
	assert.ErrorIs(t, err, objectstore.ErrNotFound)
}

func TestObjectRepo_ListOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := repos.NewObjectRepo(memdb(t))
	for _, name := range []string{"a", "b", "c"} {
		_, err := repo.Create(ctx, objectstore.CategoryKind(), objectstore.Attributes{"name": name})
		require.NoError(t, err)
	}

	items, err := repo.List(ctx, objectstore.CategoryKind(), objectstore.ListOptions{Limit: 2, NewestFirst: true})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].Attributes["name"])
	assert.Equal(t, "b", items[1].Attributes["name"])

	items, err = repo.List(ctx, objectstore.CategoryKind(), objectstore.ListOptions{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].Attributes["name"])

	empty, err := repo.List(ctx, objectstore.OrderKind(), objectstore.ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestObjectRepo_SeedSkipsExisting(t *testing.T) {
	ctx := context.Background()
	repo := repos.NewObjectRepo(memdb(t))
	seed := []objectstore.Entity{
		{ID: "cat-1", Kind: objectstore.CategoryKind(), Attributes: objectstore.Attributes{"name": "Lizards"}},
		{ID: "p-1", Kind: objectstore.ProductKind("cat-1"), Attributes: objectstore.Attributes{"title": "Tegu"}},
	}
	n, err := repo.Seed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.Seed(ctx, seed)
	require.NoError(t, err)
	assert.Zero(t, n)

	p, err := repo.Get(ctx, objectstore.ProductKind("cat-1"), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Tegu", p.Attributes["title"])
}

func TestObjectRepo_ThroughClient(t *testing.T) {
	ctx := context.Background()
	c := objectstore.NewWithBackend(repos.NewObjectRepo(memdb(t)))
	o, err := c.Create(ctx, objectstore.OrderKind(), nil)
	require.NoError(t, err)
	assert.NotNil(t, o.Attributes)
}

func TestObjectRepo_PropagatesDBErrors(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	repo := repos.NewObjectRepo(sqlx.NewDb(mockDB, "sqlite"))
	ctx := context.Background()

	mock.ExpectQuery("SELECT seq, id, collection").WillReturnError(errors.New("db down"))
	_, err = repo.Get(ctx, objectstore.CategoryKind(), "x")
	require.Error(t, err)
	assert.False(t, objectstore.IsNotFound(err))

	mock.ExpectExec("DELETE FROM objects").
		WithArgs("category", "", "x").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(ctx, objectstore.CategoryKind(), "x"), objectstore.ErrNotFound)

	mock.ExpectExec("INSERT INTO objects").WillReturnError(errors.New("disk full"))
	_, err = repo.Create(ctx, objectstore.CategoryKind(), objectstore.Attributes{})
	assert.EqualError(t, err, "disk full")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenDB_UnknownDriver(t *testing.T) {
	_, err := repos.OpenDB("oracle", "x")
	assert.Error(t, err)
}
