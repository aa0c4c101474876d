// Package events publishes session lifecycle and inventory mutation events so
// other processes (for example `ims watch`) can follow what a client does.
package events

import (
	"context"
	"time"

	"github.com/alfredjeanlab/ims/internal/model"
)

// Event topic constants
const (
	TopicSessionAuthenticated = "ims.session.authenticated"
	TopicSessionLoggedOut     = "ims.session.logged_out"
	TopicSessionInvalidated   = "ims.session.invalidated"

	TopicProductCreated = "ims.product.created"
	TopicProductUpdated = "ims.product.updated"
	TopicProductDeleted = "ims.product.deleted"

	TopicCategoryCreated = "ims.category.created"
	TopicCategoryUpdated = "ims.category.updated"
	TopicCategoryDeleted = "ims.category.deleted"

	TopicStockRecorded = "ims.stock.recorded"
	TopicStockUpdated  = "ims.stock.updated"
	TopicStockDeleted  = "ims.stock.deleted"

	// TopicAll matches every topic above.
	TopicAll = "ims.>"
)

// Event types

// SessionChanged is published on every session transition.
type SessionChanged struct {
	From   string    `json:"from"`
	To     string    `json:"to"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

type ProductChanged struct {
	Product *model.Product `json:"product"`
}

type CategoryChanged struct {
	Category *model.Category `json:"category"`
}

type StockChanged struct {
	Stock *model.StockMovement `json:"stock"`
}

// Deleted is published for any entity removal.
type Deleted struct {
	ID int64 `json:"id"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
