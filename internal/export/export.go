// Package export snapshots the inventory visible to the current session as
// JSONL and ships it to one or more destinations.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/ims/internal/api"
	"github.com/alfredjeanlab/ims/internal/model"
)

// Source is the read side of the API client.
type Source interface {
	ListCategories(ctx context.Context) ([]*model.Category, error)
	ListProducts(ctx context.Context, f api.ProductFilter) ([]*model.Product, error)
	ListStocks(ctx context.Context) ([]*model.StockMovement, error)
}

// Header is the first JSONL record written by ExportJSONL.
type Header struct {
	Version       string    `json:"version"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	CategoryCount int       `json:"category_count"`
	ProductCount  int       `json:"product_count"`
	StockCount    int       `json:"stock_count"`
}

// Record wraps a single JSONL line with a type discriminator.
type Record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL fetches categories, products and stock movements through src
// and writes them to w, each group sorted by ID. Nothing is written unless
// every fetch succeeds; a 401 surfaces as gateway.ErrAuthExpired.
func ExportJSONL(ctx context.Context, src Source, w io.Writer) error {
	categories, err := src.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	products, err := src.ListProducts(ctx, api.ProductFilter{})
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	stocks, err := src.ListStocks(ctx)
	if err != nil {
		return fmt.Errorf("list stock movements: %w", err)
	}

	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	sort.Slice(stocks, func(i, j int) bool { return stocks[i].ID < stocks[j].ID })

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(Header{
		Version:       "1",
		Type:          "header",
		Timestamp:     time.Now().UTC(),
		CategoryCount: len(categories),
		ProductCount:  len(products),
		StockCount:    len(stocks),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, c := range categories {
		if err := enc.Encode(Record{Type: "category", Data: c}); err != nil {
			return fmt.Errorf("encode category %d: %w", c.ID, err)
		}
	}
	for _, p := range products {
		if err := enc.Encode(Record{Type: "product", Data: p}); err != nil {
			return fmt.Errorf("encode product %d: %w", p.ID, err)
		}
	}
	for _, s := range stocks {
		if err := enc.Encode(Record{Type: "stock", Data: s}); err != nil {
			return fmt.Errorf("encode stock movement %d: %w", s.ID, err)
		}
	}

	return nil
}
