package objectstore

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Collection is the first level of a Kind.
type Collection string

const (
	Categories Collection = "category"
	Products   Collection = "product"
	Orders     Collection = "order"
)

// Scoped reports whether entities of the collection live under a parent id.
func (c Collection) Scoped() bool { return c == Products }

// Valid reports whether c is one of the known collections.
func (c Collection) Valid() bool {
	switch c {
	case Categories, Products, Orders:
		return true
	}
	return false
}

// Kind identifies a namespaced collection: a Collection plus, for scoped
// collections, the parent id (products are scoped by category id).
type Kind struct {
	Collection Collection
	Scope      string
}

// CategoryKind, OrderKind and ProductKind build the three kinds in use.
func CategoryKind() Kind { return Kind{Collection: Categories} }
func OrderKind() Kind    { return Kind{Collection: Orders} }
func ProductKind(categoryID string) Kind {
	return Kind{Collection: Products, Scope: categoryID}
}

// String renders the legacy single-string discriminator ("product:<id>").
func (k Kind) String() string {
	if k.Scope == "" {
		return string(k.Collection)
	}
	return string(k.Collection) + ":" + k.Scope
}

// Validate checks the collection is known and the scope matches it.
func (k Kind) Validate() error {
	if !k.Collection.Valid() {
		return fmt.Errorf("objectstore: unknown collection %q", k.Collection)
	}
	if k.Collection.Scoped() && strings.TrimSpace(k.Scope) == "" {
		return fmt.Errorf("objectstore: collection %q requires a scope", k.Collection)
	}
	if !k.Collection.Scoped() && k.Scope != "" {
		return fmt.Errorf("objectstore: collection %q is not scoped", k.Collection)
	}
	return nil
}

// ParseKind parses the legacy discriminator. Only the first ":" separates
// collection from scope, so scopes may themselves contain ":".
func ParseKind(s string) (Kind, error) {
	coll, scope, _ := strings.Cut(s, ":")
	k := Kind{Collection: Collection(coll), Scope: scope}
	if err := k.Validate(); err != nil {
		return Kind{}, err
	}
	return k, nil
}

// MarshalText encodes the kind in its legacy string form.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes the legacy string form.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Attributes is the schemaless payload of an entity.
type Attributes map[string]any

// Entity is one record of the store.
type Entity struct {
	ID         string     `json:"objectId"`
	Kind       Kind       `json:"objectType"`
	Attributes Attributes `json:"objectData"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Decode converts the attributes into a typed value through JSON.
func (e Entity) Decode(out any) error {
	data, err := json.Marshal(e.Attributes)
	if err != nil {
		return fmt.Errorf("objectstore: encode attributes: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("objectstore: decode %s/%s: %w", e.Kind, e.ID, err)
	}
	return nil
}

// AttributesOf converts a typed value (struct with json tags) into Attributes.
func AttributesOf(v any) (Attributes, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("objectstore: encode attributes: %w", err)
	}
	var attrs Attributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("objectstore: attributes must be an object: %w", err)
	}
	if attrs == nil {
		attrs = Attributes{}
	}
	return attrs, nil
}

// ListOptions controls List.
type ListOptions struct {
	Limit       int
	NewestFirst bool
}

// DefaultListLimit is used when ListOptions.Limit is not positive.
const DefaultListLimit = 100

func (o ListOptions) normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	return o
}
