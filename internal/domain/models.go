package domain

import "time"

// Stock statuses.
const (
	InStock    = "In Stock"
	OutOfStock = "Out of Stock"
)

// Order statuses.
const (
	OrderNew       = "New"
	OrderProcessed = "Processed"
	OrderCompleted = "Completed"
	OrderCancelled = "Cancelled"
)

// OrderStatuses lists the statuses in workflow order (admin dropdown).
var OrderStatuses = []string{OrderNew, OrderProcessed, OrderCompleted, OrderCancelled}

// Fields tagged json:"-" come from the store envelope, not the attributes.

type Category struct {
	ID           string    `json:"-"`
	Name         string    `json:"name"`
	Thumbnail    string    `json:"thumbnail"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"-"`
}

type Product struct {
	ID            string    `json:"-"`
	CategoryID    string    `json:"-"` // scope of the product kind
	Title         string    `json:"title"`
	Price         float64   `json:"price"`
	DiscountPrice *float64  `json:"discountPrice,omitempty"`
	Description   string    `json:"description"`
	Images        []string  `json:"images"`
	Species       string    `json:"species,omitempty"`
	StockStatus   string    `json:"stockStatus"`
	CreatedAt     time.Time `json:"-"`
}

// HasDiscount reports whether a discount below the list price is set.
func (p Product) HasDiscount() bool {
	return p.DiscountPrice != nil && *p.DiscountPrice < p.Price
}

// SalePrice is the price a buyer pays.
func (p Product) SalePrice() float64 {
	if p.HasDiscount() {
		return *p.DiscountPrice
	}
	return p.Price
}

// Thumbnail is the first image, or "" when there is none.
func (p Product) Thumbnail() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func (p Product) InStock() bool { return p.StockStatus != OutOfStock }

type Order struct {
	ID           string  `json:"-"`
	FullName     string  `json:"fullName"`
	PhoneNumber  string  `json:"phoneNumber"`
	Email        string  `json:"email"`
	ProductID    string  `json:"productId"`
	ProductTitle string  `json:"productTitle"`
	ProductPrice float64 `json:"productPrice"`
	OrderDate    string  `json:"orderDate"` // RFC 3339, UTC
	Status       string  `json:"status"`
}
