package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"exoticpets/internal/domain"
	"exoticpets/internal/objectstore"
	"exoticpets/internal/validate"
)

type OrderService struct {
	store Store
	now   func() time.Time
}

// Create stamps orderDate and status "New", then stores the purchase request.
func (s *OrderService) Create(ctx context.Context, o domain.Order) (domain.Order, error) {
	var ok bool
	if o.FullName, ok = validate.Name(o.FullName); !ok {
		return domain.Order{}, invalid("fullName", "full name is required")
	}
	if o.Email, ok = validate.Email(o.Email); !ok {
		return domain.Order{}, invalid("email", "a valid email is required")
	}
	if o.PhoneNumber, ok = validate.Phone(o.PhoneNumber); !ok {
		return domain.Order{}, invalid("phoneNumber", "a valid phone number is required")
	}
	if o.ProductID = strings.TrimSpace(o.ProductID); o.ProductID == "" {
		return domain.Order{}, invalid("productId", "product is required")
	}
	if !validate.NonNegative(o.ProductPrice) {
		return domain.Order{}, invalid("productPrice", "price must be a number >= 0")
	}
	o.OrderDate = s.now().UTC().Format(time.RFC3339Nano)
	o.Status = domain.OrderNew

	attrs, err := objectstore.AttributesOf(o)
	if err != nil {
		return domain.Order{}, err
	}
	e, err := s.store.Create(ctx, objectstore.OrderKind(), attrs)
	if err != nil {
		return domain.Order{}, fmt.Errorf("services: create order: %w", err)
	}
	return orderFrom(e)
}

// List returns orders newest first.
func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	ents, err := s.store.List(ctx, objectstore.OrderKind(), listNewest)
	if err != nil {
		return nil, fmt.Errorf("services: list orders: %w", err)
	}
	out := make([]domain.Order, 0, len(ents))
	for _, e := range ents {
		o, err := orderFrom(e)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (domain.Order, error) {
	e, err := s.store.Get(ctx, objectstore.OrderKind(), id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("services: get order %s: %w", id, err)
	}
	return orderFrom(e)
}

// UpdateStatus moves an order to another status; other fields are kept.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (domain.Order, error) {
	status, ok := validate.OneOf(status, domain.OrderStatuses)
	if !ok {
		return domain.Order{}, invalid("status", "unknown order status")
	}
	o, err := s.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = status
	attrs, err := objectstore.AttributesOf(o)
	if err != nil {
		return domain.Order{}, err
	}
	e, err := s.store.Update(ctx, objectstore.OrderKind(), id, attrs)
	if err != nil {
		return domain.Order{}, fmt.Errorf("services: update order %s: %w", id, err)
	}
	return orderFrom(e)
}

func orderFrom(e objectstore.Entity) (domain.Order, error) {
	var o domain.Order
	if err := e.Decode(&o); err != nil {
		return domain.Order{}, err
	}
	o.ID = e.ID
	return o, nil
}
