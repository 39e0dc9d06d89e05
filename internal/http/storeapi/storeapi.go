// Package storeapi serves the object store REST contract over any
// objectstore.Backend. The sandbox binary uses it, and so do the HTTP
// backend's tests.
package storeapi

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"github.com/tidwall/gjson"

	applog "exoticpets/internal/log"
	"exoticpets/internal/objectstore"
	"exoticpets/internal/validate"
)

// MaxListLimit caps the limit query parameter.
const MaxListLimit = 1000

type Handler struct {
	Backend objectstore.Backend
}

// Register mounts the routes under /v1/objects. A non-empty apiKey requires
// "Authorization: Bearer <apiKey>" on every request.
func Register(r fiber.Router, b objectstore.Backend, apiKey string) {
	h := &Handler{Backend: b}
	g := r.Group("/v1/objects")
	if apiKey != "" {
		g.Use(keyauth.New(keyauth.Config{
			KeyLookup:  "header:" + fiber.HeaderAuthorization,
			AuthScheme: "Bearer",
			Validator: func(_ *fiber.Ctx, key string) (bool, error) {
				if key == apiKey {
					return true, nil
				}
				return false, keyauth.ErrMissingOrMalformedAPIKey
			},
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				applog.Security(c, "store.auth.fail", nil)
				return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
			},
		}))
	}
	g.Get("/:collection", h.List)
	g.Post("/:collection", h.Create)
	g.Get("/:collection/:id", h.Get)
	g.Put("/:collection/:id", h.Update)
	g.Delete("/:collection/:id", h.Delete)
}

func jsonError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// kind builds the Kind from the path collection and the scope query.
func kind(c *fiber.Ctx) (objectstore.Kind, error) {
	coll, err := url.PathUnescape(c.Params("collection"))
	if err != nil {
		return objectstore.Kind{}, err
	}
	k := objectstore.Kind{Collection: objectstore.Collection(coll), Scope: c.Query("scope")}
	return k, k.Validate()
}

func objectID(c *fiber.Ctx) (string, error) {
	id, err := url.PathUnescape(c.Params("id"))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(id) == "" {
		return "", errors.New("id is required")
	}
	if _, ok := validate.ID(id); !ok {
		return "", errMalformedID
	}
	return id, nil
}

// errMalformedID marks ids this store can never have issued; they answer
// 404 like any other unknown id.
var errMalformedID = errors.New("malformed id")

// attributes reads {"objectData":{...}}; a missing objectData is an empty
// object, anything that is not an object is rejected.
func attributes(c *fiber.Ctx) (objectstore.Attributes, error) {
	body := c.Body()
	if len(body) == 0 {
		return objectstore.Attributes{}, nil
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("body is not valid JSON")
	}
	data := gjson.GetBytes(body, "objectData")
	if !data.Exists() || data.Type == gjson.Null {
		return objectstore.Attributes{}, nil
	}
	if !data.IsObject() {
		return nil, errors.New("objectData must be an object")
	}
	attrs, ok := data.Value().(map[string]any)
	if !ok {
		return nil, errors.New("objectData must be an object")
	}
	return objectstore.Attributes(attrs), nil
}

func (h *Handler) fail(c *fiber.Ctx, op string, err error) error {
	if objectstore.IsNotFound(err) || errors.Is(err, errMalformedID) {
		return jsonError(c, fiber.StatusNotFound, "not found")
	}
	applog.Error(c, "store."+op+".error", err, nil)
	return jsonError(c, fiber.StatusInternalServerError, "internal error")
}

func (h *Handler) List(c *fiber.Ctx) error {
	k, err := kind(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	opts := objectstore.ListOptions{Limit: objectstore.DefaultListLimit, NewestFirst: true}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return jsonError(c, fiber.StatusBadRequest, "limit must be a positive integer")
		}
		if n > MaxListLimit {
			n = MaxListLimit
		}
		opts.Limit = n
	}
	switch strings.ToLower(c.Query("order", "desc")) {
	case "desc":
	case "asc":
		opts.NewestFirst = false
	default:
		return jsonError(c, fiber.StatusBadRequest, "order must be asc or desc")
	}
	items, err := h.Backend.List(c.UserContext(), k, opts)
	if err != nil {
		return h.fail(c, "list", err)
	}
	if items == nil {
		items = []objectstore.Entity{}
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *Handler) Get(c *fiber.Ctx) error {
	k, err := kind(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	id, err := objectID(c)
	if errors.Is(err, errMalformedID) {
		return h.fail(c, "id", err)
	}
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	e, err := h.Backend.Get(c.UserContext(), k, id)
	if err != nil {
		return h.fail(c, "get", err)
	}
	return c.JSON(e)
}

func (h *Handler) Create(c *fiber.Ctx) error {
	k, err := kind(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	attrs, err := attributes(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	e, err := h.Backend.Create(c.UserContext(), k, attrs)
	if err != nil {
		return h.fail(c, "create", err)
	}
	return c.Status(fiber.StatusCreated).JSON(e)
}

func (h *Handler) Update(c *fiber.Ctx) error {
	k, err := kind(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	id, err := objectID(c)
	if errors.Is(err, errMalformedID) {
		return h.fail(c, "id", err)
	}
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	attrs, err := attributes(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	e, err := h.Backend.Update(c.UserContext(), k, id, attrs)
	if err != nil {
		return h.fail(c, "update", err)
	}
	return c.JSON(e)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	k, err := kind(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	id, err := objectID(c)
	if errors.Is(err, errMalformedID) {
		return h.fail(c, "id", err)
	}
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if err := h.Backend.Delete(c.UserContext(), k, id); err != nil {
		return h.fail(c, "delete", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
