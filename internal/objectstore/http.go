package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"exoticpets/internal/httpx"
)

// New constructs a Client talking to the hosted store at baseURL.
func New(baseURL string, opts ...httpx.Option) (*Client, error) {
	cl, err := httpx.NewClient(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithHTTPClient(cl), nil
}

// NewWithHTTPClient wraps an existing httpx.Client.
func NewWithHTTPClient(httpClient *httpx.Client) *Client {
	return &Client{backend: &httpBackend{client: httpClient}}
}

type httpBackend struct {
	client *httpx.Client
}

type writeBody struct {
	ObjectData Attributes `json:"objectData"`
}

func collectionPath(kind Kind) string {
	return "/v1/objects/" + url.PathEscape(string(kind.Collection))
}

func objectPath(kind Kind, id string) string {
	return collectionPath(kind) + "/" + url.PathEscape(id)
}

func scopeQuery(kind Kind) url.Values {
	q := url.Values{}
	if kind.Scope != "" {
		q.Set("scope", kind.Scope)
	}
	return q
}

func (b *httpBackend) List(ctx context.Context, kind Kind, opts ListOptions) ([]Entity, error) {
	q := scopeQuery(kind)
	q.Set("limit", strconv.Itoa(opts.Limit))
	if opts.NewestFirst {
		q.Set("order", "desc")
	} else {
		q.Set("order", "asc")
	}
	data, err := b.client.DoJSON(ctx, http.MethodGet, collectionPath(kind), q, nil, nil)
	if err != nil {
		return nil, mapError("list", kind, "", err)
	}
	items := gjson.GetBytes(data, "items")
	if !items.Exists() || items.Type == gjson.Null {
		return []Entity{}, nil
	}
	var out []Entity
	if err := json.Unmarshal([]byte(items.Raw), &out); err != nil {
		return nil, &TransportError{Op: "list", Kind: kind, Err: fmt.Errorf("decode items: %w", err)}
	}
	return out, nil
}

func (b *httpBackend) Get(ctx context.Context, kind Kind, id string) (Entity, error) {
	var e Entity
	if _, err := b.client.DoJSON(ctx, http.MethodGet, objectPath(kind, id), scopeQuery(kind), nil, &e); err != nil {
		return Entity{}, mapError("get", kind, id, err)
	}
	return e, nil
}

func (b *httpBackend) Create(ctx context.Context, kind Kind, attrs Attributes) (Entity, error) {
	var e Entity
	if _, err := b.client.DoJSON(ctx, http.MethodPost, collectionPath(kind), scopeQuery(kind), writeBody{ObjectData: attrs}, &e); err != nil {
		return Entity{}, mapError("create", kind, "", err)
	}
	return e, nil
}

func (b *httpBackend) Update(ctx context.Context, kind Kind, id string, attrs Attributes) (Entity, error) {
	var e Entity
	if _, err := b.client.DoJSON(ctx, http.MethodPut, objectPath(kind, id), scopeQuery(kind), writeBody{ObjectData: attrs}, &e); err != nil {
		return Entity{}, mapError("update", kind, id, err)
	}
	return e, nil
}

func (b *httpBackend) Delete(ctx context.Context, kind Kind, id string) error {
	if _, err := b.client.DoJSON(ctx, http.MethodDelete, objectPath(kind, id), scopeQuery(kind), nil, nil); err != nil {
		return mapError("delete", kind, id, err)
	}
	return nil
}

func mapError(op string, kind Kind, id string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Op: op, Kind: kind, Err: err}
	}
	var httpErr *httpx.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.NotFound() && id != "" {
			return NotFound(kind, id)
		}
		return &TransportError{Op: op, Kind: kind, StatusCode: httpErr.StatusCode, Err: httpErr}
	}
	return &TransportError{Op: op, Kind: kind, Err: err}
}
