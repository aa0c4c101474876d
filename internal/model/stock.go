package model

import (
	"fmt"
	"strings"
	"time"
)

// MovementType is the direction of a stock movement.
type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// IsValid checks whether the type is IN or OUT.
func (t MovementType) IsValid() bool {
	return t == MovementIn || t == MovementOut
}

// ParseMovementType accepts "in"/"out" in any case.
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid movement type %q (must be IN or OUT)", s)
	}
	return t, nil
}

// StockMovement records quantity entering or leaving stock for a product. The
// backend applies it to the product's quantity when it is created.
type StockMovement struct {
	ID                int64        `json:"id"`
	Product           int64        `json:"product"`
	ProductName       string       `json:"product_name,omitempty"`
	QuantityChanged   int          `json:"quantity_changed"`
	Type              MovementType `json:"type"`
	Notes             string       `json:"notes"`
	CreatedBy         *int64       `json:"created_by"`
	CreatedByUsername string       `json:"created_by_username,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}

// Delta is the signed change to the product's quantity.
func (m *StockMovement) Delta() int {
	if m.Type == MovementOut {
		return -m.QuantityChanged
	}
	return m.QuantityChanged
}

// StockInput is the writable part of a StockMovement.
type StockInput struct {
	Product         int64        `json:"product"`
	QuantityChanged int          `json:"quantity_changed"`
	Type            MovementType `json:"type"`
	Notes           string       `json:"notes,omitempty"`
}
