package repos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"exoticpets/internal/objectstore"
)

// timeLayout is fixed width so lexical order equals chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ObjectRepo is an objectstore.Backend persisted in the objects table.
type ObjectRepo struct {
	db    *sqlx.DB
	now   func() time.Time
	newID func() string
}

func NewObjectRepo(db *sqlx.DB) *ObjectRepo {
	return &ObjectRepo{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

type objectRow struct {
	Seq        int64  `db:"seq"`
	ID         string `db:"id"`
	Collection string `db:"collection"`
	Scope      string `db:"scope"`
	Data       string `db:"data"`
	CreatedAt  string `db:"created_at"`
	UpdatedAt  string `db:"updated_at"`
}

func (r objectRow) entity() (objectstore.Entity, error) {
	e := objectstore.Entity{
		ID:   r.ID,
		Kind: objectstore.Kind{Collection: objectstore.Collection(r.Collection), Scope: r.Scope},
	}
	attrs := objectstore.Attributes{}
	if err := json.Unmarshal([]byte(r.Data), &attrs); err != nil {
		return objectstore.Entity{}, fmt.Errorf("repos: decode %s/%s: %w", e.Kind, r.ID, err)
	}
	if attrs == nil {
		attrs = objectstore.Attributes{}
	}
	e.Attributes = attrs
	var err error
	if e.CreatedAt, err = time.Parse(timeLayout, r.CreatedAt); err != nil {
		return objectstore.Entity{}, fmt.Errorf("repos: created_at of %s: %w", r.ID, err)
	}
	if e.UpdatedAt, err = time.Parse(timeLayout, r.UpdatedAt); err != nil {
		return objectstore.Entity{}, fmt.Errorf("repos: updated_at of %s: %w", r.ID, err)
	}
	return e, nil
}

const selectObject = `SELECT seq, id, collection, scope, data, created_at, updated_at FROM objects`

func (r *ObjectRepo) List(ctx context.Context, kind objectstore.Kind, opts objectstore.ListOptions) ([]objectstore.Entity, error) {
	order := "ASC"
	if opts.NewestFirst {
		order = "DESC"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = objectstore.DefaultListLimit
	}
	q := r.db.Rebind(selectObject + `
  WHERE collection = ? AND scope = ?
  ORDER BY created_at ` + order + `, seq ` + order + `
  LIMIT ?`)

	var rows []objectRow
	if err := r.db.SelectContext(ctx, &rows, q, string(kind.Collection), kind.Scope, limit); err != nil {
		return nil, err
	}
	out := make([]objectstore.Entity, 0, len(rows))
	for _, row := range rows {
		e, err := row.entity()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *ObjectRepo) Get(ctx context.Context, kind objectstore.Kind, id string) (objectstore.Entity, error) {
	var row objectRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(selectObject+`
  WHERE collection = ? AND scope = ? AND id = ?`), string(kind.Collection), kind.Scope, id)
	if errors.Is(err, sql.ErrNoRows) {
		return objectstore.Entity{}, objectstore.NotFound(kind, id)
	}
	if err != nil {
		return objectstore.Entity{}, err
	}
	return row.entity()
}

func (r *ObjectRepo) Create(ctx context.Context, kind objectstore.Kind, attrs objectstore.Attributes) (objectstore.Entity, error) {
	data, err := json.Marshal(attrs)
	if err != nil {
		return objectstore.Entity{}, fmt.Errorf("repos: encode attributes: %w", err)
	}
	id := r.newID()
	now := r.now().Format(timeLayout)
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO objects(id, collection, scope, data, created_at, updated_at)
	  VALUES (?, ?, ?, ?, ?, ?)
	`), id, string(kind.Collection), kind.Scope, string(data), now, now); err != nil {
		return objectstore.Entity{}, err
	}
	return r.Get(ctx, kind, id)
}

func (r *ObjectRepo) Update(ctx context.Context, kind objectstore.Kind, id string, attrs objectstore.Attributes) (objectstore.Entity, error) {
	data, err := json.Marshal(attrs)
	if err != nil {
		return objectstore.Entity{}, fmt.Errorf("repos: encode attributes: %w", err)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  UPDATE objects SET data = ?, updated_at = ?
	  WHERE collection = ? AND scope = ? AND id = ?
	`), string(data), r.now().Format(timeLayout), string(kind.Collection), kind.Scope, id)
	if err != nil {
		return objectstore.Entity{}, err
	}
	// mysql reports 0 affected rows when nothing changed, so fall back to Get
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, kind, id); err != nil {
			return objectstore.Entity{}, err
		}
	}
	return r.Get(ctx, kind, id)
}

func (r *ObjectRepo) Delete(ctx context.Context, kind objectstore.Kind, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  DELETE FROM objects WHERE collection = ? AND scope = ? AND id = ?
	`), string(kind.Collection), kind.Scope, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return objectstore.NotFound(kind, id)
	}
	return nil
}

// Seed inserts entities keeping their ids, skipping ids that already exist.
func (r *ObjectRepo) Seed(ctx context.Context, entities []objectstore.Entity) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, e := range entities {
		if err := e.Kind.Validate(); err != nil {
			return 0, fmt.Errorf("repos: seed %q: %w", e.ID, err)
		}
		if e.ID == "" {
			e.ID = r.newID()
		}
		var n int
		if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM objects WHERE id = ?`), e.ID); err != nil {
			return 0, err
		}
		if n > 0 {
			continue
		}
		data, err := json.Marshal(e.Attributes)
		if err != nil {
			return 0, fmt.Errorf("repos: encode seed %q: %w", e.ID, err)
		}
		created := e.CreatedAt
		if created.IsZero() {
			created = r.now()
		}
		stamp := created.UTC().Format(timeLayout)
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
		  INSERT INTO objects(id, collection, scope, data, created_at, updated_at)
		  VALUES (?, ?, ?, ?, ?, ?)
		`), e.ID, string(e.Kind.Collection), e.Kind.Scope, string(data), stamp, stamp); err != nil {
			return 0, err
		}
		inserted++
	}
	return inserted, tx.Commit()
}
