package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dashboard is the overview returned by GET /api/dashboard/.
type Dashboard struct {
	InventorySummary   InventorySummary   `json:"inventory_summary"`
	StockMovements     MovementSummary    `json:"stock_movements"`
	TopProducts        TopProducts        `json:"top_products"`
	RecentTransactions []Transaction      `json:"recent_transactions"`
	TransactionSummary TransactionSummary `json:"transaction_summary"`
}

type InventorySummary struct {
	TotalProducts       int             `json:"total_products"`
	TotalCategories     int             `json:"total_categories"`
	LowStockProducts    int             `json:"low_stock_products"`
	OutOfStockProducts  int             `json:"out_of_stock_products"`
	TotalInventoryValue decimal.Decimal `json:"total_inventory_value"`
}

type MovementSummary struct {
	RecentMovements int `json:"recent_movements"`
	StockIn         int `json:"stock_in"`
	StockOut        int `json:"stock_out"`
}

type TopProducts struct {
	MostActive []struct {
		Name          string `json:"name"`
		MovementCount int    `json:"movement_count"`
	} `json:"most_active"`
	HighestValue []struct {
		Name       string          `json:"name"`
		UnitPrice  decimal.Decimal `json:"unit_price"`
		Quantity   int             `json:"quantity"`
		TotalValue decimal.Decimal `json:"total_value"`
	} `json:"highest_value"`
	LowestStock []struct {
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
	} `json:"lowest_stock"`
}

type Transaction struct {
	CreatedAt       time.Time    `json:"created_at"`
	ProductName     string       `json:"product__name"`
	Type            MovementType `json:"type"`
	QuantityChanged int          `json:"quantity_changed"`
	CreatedBy       string       `json:"created_by__username"`
}

type TransactionSummary struct {
	TotalTransactions int             `json:"total_transactions"`
	TotalValue        decimal.Decimal `json:"total_value"`
}

// InventoryValue sums Value over products.
func InventoryValue(products []*Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Value())
	}
	return total
}
