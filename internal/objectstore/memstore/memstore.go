// Package memstore implements an in-memory objectstore.Backend with the same
// semantics as the hosted store. It backs tests and STORE_MODE=memory.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"exoticpets/internal/objectstore"
)

type entry struct {
	seq    uint64
	entity objectstore.Entity
	data   []byte
}

// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	seq     uint64
	objects map[objectstore.Kind]map[string]*entry
	now     func() time.Time
	newID   func() string
}

// Option configures the store.
type Option func(*Store)

// WithClock overrides the clock used for timestamps (useful in tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithIDGenerator overrides id assignment.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		objects: make(map[objectstore.Kind]map[string]*entry),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed inserts entities as-is, keeping their ids and timestamps. Ids already
// present in the kind are skipped.
func (s *Store) Seed(entities []objectstore.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entities {
		if err := e.Kind.Validate(); err != nil {
			return fmt.Errorf("memstore: seed %q: %w", e.ID, err)
		}
		if e.ID == "" {
			e.ID = s.newID()
		} else if _, exists := s.objects[e.Kind][e.ID]; exists {
			continue
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = s.now()
		}
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = e.CreatedAt
		}
		if err := s.put(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) List(ctx context.Context, kind objectstore.Kind, opts objectstore.ListOptions) ([]objectstore.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket := s.objects[kind]
	entries := make([]*entry, 0, len(bucket))
	for _, ent := range bucket {
		entries = append(entries, ent)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.entity.CreatedAt.Equal(b.entity.CreatedAt) {
			if opts.NewestFirst {
				return a.entity.CreatedAt.After(b.entity.CreatedAt)
			}
			return a.entity.CreatedAt.Before(b.entity.CreatedAt)
		}
		if opts.NewestFirst {
			return a.seq > b.seq
		}
		return a.seq < b.seq
	})
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}

	out := make([]objectstore.Entity, 0, len(entries))
	for _, ent := range entries {
		e, err := ent.materialize()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, kind objectstore.Kind, id string) (objectstore.Entity, error) {
	if err := ctx.Err(); err != nil {
		return objectstore.Entity{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ent, ok := s.objects[kind][id]
	if !ok {
		return objectstore.Entity{}, objectstore.NotFound(kind, id)
	}
	return ent.materialize()
}

func (s *Store) Create(ctx context.Context, kind objectstore.Kind, attrs objectstore.Attributes) (objectstore.Entity, error) {
	if err := ctx.Err(); err != nil {
		return objectstore.Entity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e := objectstore.Entity{ID: s.newID(), Kind: kind, Attributes: attrs, CreatedAt: now, UpdatedAt: now}
	if err := s.put(e); err != nil {
		return objectstore.Entity{}, err
	}
	return s.objects[kind][e.ID].materialize()
}

func (s *Store) Update(ctx context.Context, kind objectstore.Kind, id string, attrs objectstore.Attributes) (objectstore.Entity, error) {
	if err := ctx.Err(); err != nil {
		return objectstore.Entity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ent, ok := s.objects[kind][id]
	if !ok {
		return objectstore.Entity{}, objectstore.NotFound(kind, id)
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return objectstore.Entity{}, fmt.Errorf("memstore: encode attributes: %w", err)
	}
	ent.data = data
	ent.entity.UpdatedAt = s.now()
	return ent.materialize()
}

func (s *Store) Delete(ctx context.Context, kind objectstore.Kind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.objects[kind]
	if _, ok := bucket[id]; !ok {
		return objectstore.NotFound(kind, id)
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(s.objects, kind)
	}
	return nil
}

// put stores a copy of e; callers hold s.mu.
func (s *Store) put(e objectstore.Entity) error {
	data, err := json.Marshal(e.Attributes)
	if err != nil {
		return fmt.Errorf("memstore: encode attributes: %w", err)
	}
	bucket := s.objects[e.Kind]
	if bucket == nil {
		bucket = make(map[string]*entry)
		s.objects[e.Kind] = bucket
	}
	s.seq++
	meta := e
	meta.Attributes = nil
	bucket[e.ID] = &entry{seq: s.seq, entity: meta, data: data}
	return nil
}

// materialize returns a detached copy so callers cannot mutate stored state.
func (ent *entry) materialize() (objectstore.Entity, error) {
	e := ent.entity
	attrs := objectstore.Attributes{}
	if err := json.Unmarshal(ent.data, &attrs); err != nil {
		return objectstore.Entity{}, fmt.Errorf("memstore: decode attributes: %w", err)
	}
	if attrs == nil {
		attrs = objectstore.Attributes{}
	}
	e.Attributes = attrs
	return e, nil
}
