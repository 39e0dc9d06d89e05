package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"exoticpets/internal/domain"
	"exoticpets/internal/objectstore"
	"exoticpets/internal/validate"
)

const (
	MinProductImages = 2
	MaxProductImages = 5
)

type CategoryService struct {
	store    Store
	products *ProductService
	policy   CategoryDeletePolicy
}

// List returns categories in store order (newest first).
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	ents, err := s.store.List(ctx, objectstore.CategoryKind(), listNewest)
	if err != nil {
		return nil, fmt.Errorf("services: list categories: %w", err)
	}
	out := make([]domain.Category, 0, len(ents))
	for _, e := range ents {
		c, err := categoryFrom(e)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ListOrdered sorts by displayOrder, then name, for the storefront.
func (s *CategoryService) ListOrdered(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(cats, func(i, j int) bool {
		if cats[i].DisplayOrder != cats[j].DisplayOrder {
			return cats[i].DisplayOrder < cats[j].DisplayOrder
		}
		return strings.ToLower(cats[i].Name) < strings.ToLower(cats[j].Name)
	})
	return cats, nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (domain.Category, error) {
	e, err := s.store.Get(ctx, objectstore.CategoryKind(), id)
	if err != nil {
		return domain.Category{}, fmt.Errorf("services: get category %s: %w", id, err)
	}
	return categoryFrom(e)
}

func (s *CategoryService) Create(ctx context.Context, c domain.Category) (domain.Category, error) {
	attrs, err := categoryAttrs(c)
	if err != nil {
		return domain.Category{}, err
	}
	e, err := s.store.Create(ctx, objectstore.CategoryKind(), attrs)
	if err != nil {
		return domain.Category{}, fmt.Errorf("services: create category: %w", err)
	}
	return categoryFrom(e)
}

func (s *CategoryService) Update(ctx context.Context, id string, c domain.Category) (domain.Category, error) {
	attrs, err := categoryAttrs(c)
	if err != nil {
		return domain.Category{}, err
	}
	e, err := s.store.Update(ctx, objectstore.CategoryKind(), id, attrs)
	if err != nil {
		return domain.Category{}, fmt.Errorf("services: update category %s: %w", id, err)
	}
	return categoryFrom(e)
}

// Delete removes the category following the configured policy.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if s.policy == Cascade {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		if err := s.products.deleteAll(ctx, id); err != nil {
			return fmt.Errorf("services: cascade category %s: %w", id, err)
		}
	}
	if err := s.store.Delete(ctx, objectstore.CategoryKind(), id); err != nil {
		return fmt.Errorf("services: delete category %s: %w", id, err)
	}
	return nil
}

// Check runs the create/update validation without touching the store.
func (s *CategoryService) Check(c domain.Category) error {
	_, err := categoryAttrs(c)
	return err
}

// Policy reports the delete policy in effect.
func (s *CategoryService) Policy() CategoryDeletePolicy { return s.policy }

func categoryAttrs(c domain.Category) (objectstore.Attributes, error) {
	name, ok := validate.Name(c.Name)
	if !ok {
		return nil, invalid("name", "name is required (max 100 characters)")
	}
	c.Name = name
	c.Thumbnail = strings.TrimSpace(c.Thumbnail)
	return objectstore.AttributesOf(c)
}

func categoryFrom(e objectstore.Entity) (domain.Category, error) {
	var c domain.Category
	if err := e.Decode(&c); err != nil {
		return domain.Category{}, err
	}
	c.ID = e.ID
	c.CreatedAt = e.CreatedAt
	return c, nil
}

// ProductService manages products, each scoped to one category for life.
type ProductService struct {
	store Store
}

func (s *ProductService) List(ctx context.Context, categoryID string) ([]domain.Product, error) {
	kind, err := productKind(categoryID)
	if err != nil {
		return nil, err
	}
	ents, err := s.store.List(ctx, kind, listNewest)
	if err != nil {
		return nil, fmt.Errorf("services: list products of %s: %w", categoryID, err)
	}
	out := make([]domain.Product, 0, len(ents))
	for _, e := range ents {
		p, err := productFrom(e)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *ProductService) Get(ctx context.Context, categoryID, id string) (domain.Product, error) {
	kind, err := productKind(categoryID)
	if err != nil {
		return domain.Product{}, err
	}
	e, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("services: get product %s/%s: %w", categoryID, id, err)
	}
	return productFrom(e)
}

// Check runs the create/update validation without touching the store.
func (s *ProductService) Check(categoryID string, p domain.Product) error {
	if _, err := productKind(categoryID); err != nil {
		return err
	}
	_, err := productAttrs(p)
	return err
}

func (s *ProductService) Create(ctx context.Context, categoryID string, p domain.Product) (domain.Product, error) {
	kind, err := productKind(categoryID)
	if err != nil {
		return domain.Product{}, err
	}
	attrs, err := productAttrs(p)
	if err != nil {
		return domain.Product{}, err
	}
	e, err := s.store.Create(ctx, kind, attrs)
	if err != nil {
		return domain.Product{}, fmt.Errorf("services: create product in %s: %w", categoryID, err)
	}
	return productFrom(e)
}

// Update replaces the product's attributes; the category never changes.
func (s *ProductService) Update(ctx context.Context, categoryID, id string, p domain.Product) (domain.Product, error) {
	kind, err := productKind(categoryID)
	if err != nil {
		return domain.Product{}, err
	}
	attrs, err := productAttrs(p)
	if err != nil {
		return domain.Product{}, err
	}
	e, err := s.store.Update(ctx, kind, id, attrs)
	if err != nil {
		return domain.Product{}, fmt.Errorf("services: update product %s/%s: %w", categoryID, id, err)
	}
	return productFrom(e)
}

func (s *ProductService) Delete(ctx context.Context, categoryID, id string) error {
	kind, err := productKind(categoryID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, kind, id); err != nil {
		return fmt.Errorf("services: delete product %s/%s: %w", categoryID, id, err)
	}
	return nil
}

// deleteAll empties a category page by page.
func (s *ProductService) deleteAll(ctx context.Context, categoryID string) error {
	kind := objectstore.ProductKind(categoryID)
	for {
		ents, err := s.store.List(ctx, kind, listNewest)
		if err != nil {
			return err
		}
		for _, e := range ents {
			if err := s.store.Delete(ctx, kind, e.ID); err != nil && !objectstore.IsNotFound(err) {
				return err
			}
		}
		if len(ents) < listNewest.Limit {
			return nil
		}
	}
}

func productKind(categoryID string) (objectstore.Kind, error) {
	if strings.TrimSpace(categoryID) == "" {
		return objectstore.Kind{}, invalid("categoryId", "category is required")
	}
	return objectstore.ProductKind(categoryID), nil
}

// NormalizeImages trims entries and drops blanks.
func NormalizeImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			out = append(out, img)
		}
	}
	return out
}

func productAttrs(p domain.Product) (objectstore.Attributes, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, invalid("title", "title is required")
	}
	if !validate.NonNegative(p.Price) {
		return nil, invalid("price", "price must be a number >= 0")
	}
	if p.DiscountPrice != nil && !validate.NonNegative(*p.DiscountPrice) {
		return nil, invalid("discountPrice", "discount price must be a number >= 0")
	}
	if p.StockStatus == "" {
		p.StockStatus = domain.InStock
	}
	status, ok := validate.OneOf(p.StockStatus, []string{domain.InStock, domain.OutOfStock})
	if !ok {
		return nil, invalid("stockStatus", fmt.Sprintf("stock status must be %q or %q", domain.InStock, domain.OutOfStock))
	}
	p.StockStatus = status
	p.Images = NormalizeImages(p.Images)
	if n := len(p.Images); n < MinProductImages || n > MaxProductImages {
		return nil, invalid("images", fmt.Sprintf("a product needs %d to %d images, got %d", MinProductImages, MaxProductImages, n))
	}
	p.Description = strings.TrimSpace(p.Description)
	p.Species = strings.TrimSpace(p.Species)
	return objectstore.AttributesOf(p)
}

func productFrom(e objectstore.Entity) (domain.Product, error) {
	var p domain.Product
	if err := e.Decode(&p); err != nil {
		return domain.Product{}, err
	}
	p.ID = e.ID
	p.CategoryID = e.Kind.Scope
	p.CreatedAt = e.CreatedAt
	return p, nil
}
