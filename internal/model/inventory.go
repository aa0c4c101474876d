// Package model defines the inventory entities exchanged with the IMS backend
// and the client-side checks applied before a write is dispatched.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LowStockThreshold is the quantity at or below which a product counts as low
// on stock, matching the dashboard's definition.
const LowStockThreshold = 10

// Category groups products.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryInput is the writable part of a Category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Product is an inventory item with its current stock level.
type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Category     int64           `json:"category"`
	CategoryName string          `json:"category_name,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Value is quantity times unit price.
func (p *Product) Value() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// LowStock reports whether the product is at or below LowStockThreshold.
func (p *Product) LowStock() bool {
	return p.Quantity <= LowStockThreshold
}

// OutOfStock reports whether nothing is left.
func (p *Product) OutOfStock() bool {
	return p.Quantity <= 0
}

// ProductInput is the writable part of a Product.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    int64           `json:"category"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// InputFromProduct returns the writable fields of p, for read-modify-write
// updates.
func InputFromProduct(p *Product) ProductInput {
	return ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Quantity:    p.Quantity,
		UnitPrice:   p.UnitPrice,
	}
}
