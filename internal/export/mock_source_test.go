package export

import (
	"context"
	"errors"
	"sync"

	"github.com/alfredjeanlab/ims/internal/api"
	"github.com/alfredjeanlab/ims/internal/model"
)

// mockSource serves fixed inventory. Set err to fail every call.
type mockSource struct {
	mu         sync.Mutex
	categories []*model.Category
	products   []*model.Product
	stocks     []*model.StockMovement
	err        error
	calls      int
}

func newMockSource() *mockSource { return &mockSource{} }

func (m *mockSource) ListCategories(context.Context) ([]*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]*model.Category(nil), m.categories...), nil
}

func (m *mockSource) ListProducts(context.Context, api.ProductFilter) ([]*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]*model.Product(nil), m.products...), nil
}

func (m *mockSource) ListStocks(context.Context) ([]*model.StockMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]*model.StockMovement(nil), m.stocks...), nil
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// failingDestination rejects every write.
type failingDestination struct{}

func (failingDestination) Write(context.Context, []byte) error { return errors.New("bucket missing") }

func (failingDestination) String() string { return "broken" }
