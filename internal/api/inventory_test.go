package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/alfredjeanlab/ims/internal/events"
	"github.com/alfredjeanlab/ims/internal/gateway"
	"github.com/alfredjeanlab/ims/internal/model"
)

func TestClient_ListProducts_CategoryFilter(t *testing.T) {
	env := newTestEnv(t, "abc", map[string]cannedResponse{
		"GET /api/products/": {body: `[{"id":1,"name":"Bolt","category":2,"quantity":5,"unit_price":"0.25"}]`},
	})

	products, err := env.client.ListProducts(context.Background(), ProductFilter{Category: 2})
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}
	if len(products) != 1 || products[0].Name != "Bolt" {
		t.Errorf("products = %+v", products)
	}
	if q := env.handler.last(t).query; q != "category=2" {
		t.Errorf("query = %q, want category=2", q)
	}

	if _, err := env.client.ListProducts(context.Background(), ProductFilter{}); err != nil {
		t.Fatal(err)
	}
	if q := env.handler.last(t).query; q != "" {
		t.Errorf("unfiltered query = %q, want empty", q)
	}
}

func TestClient_CreateProduct(t *testing.T) {
	env := newTestEnv(t, "abc", map[string]cannedResponse{
		"POST /api/products/": {statusCode: http.StatusCreated, body: `{"id":9,"name":"Nut","category":2,"quantity":0,"unit_price":"0.10"}`},
	})

	in := &model.ProductInput{Name: "Nut", Category: 2, UnitPrice: decimal.RequireFromString("0.10")}
	p, err := env.client.CreateProduct(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	if p.ID != 9 {
		t.Errorf("ID = %d, want 9", p.ID)
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(env.handler.last(t).body), &body); err != nil {
		t.Fatal(err)
	}
	if body["unit_price"] != "0.1" {
		t.Errorf("unit_price = %#v, want \"0.1\"", body["unit_price"])
	}
	if got := env.topics(); len(got) != 1 || got[0] != events.TopicProductCreated {
		t.Errorf("events = %v", got)
	}
}

func TestClient_CreateProduct_FieldErrors(t *testing.T) {
	env := newTestEnv(t, "abc", map[string]cannedResponse{
		"POST /api/products/": {statusCode: http.StatusBadRequest, body: `{"name":["product with this name already exists."]}`},
	})
	in := &model.ProductInput{Name: "Nut", Category: 2}
	_, err := env.client.CreateProduct(context.Background(), in)

	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("error = %v, want *gateway.Error", err)
	}
	if got := gwErr.FieldErrors["name"]; len(got) != 1 {
		t.Errorf("FieldErrors = %v", gwErr.FieldErrors)
	}
	if len(env.topics()) != 0 {
		t.Error("event published for failed create")
	}
	if !env.session.IsAuthenticated() {
		t.Error("400 invalidated the session")
	}
}

func TestClient_UpdateAndDeleteProduct(t *testing.T) {
	env := newTestEnv(t, "abc", map[string]cannedResponse{
		"PUT /api/products/9/":    {body: `{"id":9,"name":"Nut","category":2,"quantity":3,"unit_price":"0.10"}`},
		"DELETE /api/products/9/": {statusCode: http.StatusNoContent},
	})
	ctx := context.Background()

	in := &model.ProductInput{Name: "Nut", Category: 2, Quantity: 3, UnitPrice: decimal.RequireFromString("0.10")}
	if _, err := env.client.UpdateProduct(ctx, 9, in); err != nil {
		t.Fatalf("UpdateProduct() error = %v", err)
	}
	if req := env.handler.last(t); req.method != http.MethodPut || req.path != "/api/products/9/" {
		t.Errorf("request = %s %s", req.method, req.path)
	}
	if err := env.client.DeleteProduct(ctx, 9); err != nil {
		t.Fatalf("DeleteProduct() error = %v", err)
	}

	want := []string{events.TopicProductUpdated, events.TopicProductDeleted}
	if strings.Join(env.topics(), ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", env.topics(), want)
	}
}

func TestClient_SafeDeleteCategory_BlockedWhenInUse(t *testing.T) {
	env := newTestEnv(t, "abc", map[string]cannedResponse{
		"GET /api/products/": {body: `[{"id":1,"category":3},{"id":2,"category":3}]`},
	})

	err := env.client.SafeDeleteCategory(context.Background(), 3)
	if !errors.Is(err, ErrCategoryInUse) {
		t.Fatalf("SafeDeleteCategory() error = %v, want ErrCategoryInUse", err)
	}
	if !strings.Contains(err.Error(), "2 product(s)") {
		t.Errorf("error = %q", err)
	}
	for _, r := range env.handler.all() {
		if r.method == http.MethodDelete {
			t.Fatal("DELETE dispatched for a category in use")
		}
	}
}

func TestClient_SafeDeleteCategory_Empty(t *testing.T) {
	env := newTestEnv(t, "abc", map[string]cannedResponse{
		"GET /api/products/":        {body: `[]`},
		"DELETE /api/categories/3/": {statusCode: http.StatusNoContent},
	})

	if err := env.client.SafeDeleteCategory(context.Background(), 3); err != nil {
		t.Fatalf("SafeDeleteCategory() error = %v", err)
	}
	if req := env.handler.last(t); req.method != http.MethodDelete || req.path != "/api/categories/3/" {
		t.Errorf("last request = %s %s", req.method, req.path)
	}
	if got := env.topics(); len(got) != 1 || got[0] != events.TopicCategoryDeleted {
		t.Errorf("events = %v", got)
	}
}

func TestClient_SafeDeleteCategory_ServerRejects(t *testing.T) {
	env := newTestEnv(t, "abc", map[string]cannedResponse{
		"GET /api/products/":        {body: `[]`},
		"DELETE /api/categories/3/": {statusCode: http.StatusConflict, body: `{"detail":"Category is referenced by products."}`},
	})

	err := env.client.SafeDeleteCategory(context.Background(), 3)
	if err == nil || err.Error() != "HTTP 409: Category is referenced by products." {
		t.Fatalf("SafeDeleteCategory() error = %v", err)
	}
}

func TestClient_Categories_CRUD(t *testing.T) {
	env := newTestEnv(t, "abc", map[string]cannedResponse{
		"GET /api/categories/":   {body: `[{"id":1,"name":"Tools"},{"id":2,"name":"Hardware"}]`},
		"GET /api/categories/2/": {body: `{"id":2,"name":"Hardware"}`},
		"POST /api/categories/":  {statusCode: http.StatusCreated, body: `{"id":3,"name":"Paint"}`},
		"PUT /api/categories/3/": {body: `{"id":3,"name":"Paints"}`},
	})
	ctx := context.Background()

	cats, err := env.client.ListCategories(ctx)
	if err != nil || len(cats) != 2 {
		t.Fatalf("ListCategories() = %v, %v", cats, err)
	}
	if c, err := env.client.GetCategory(ctx, 2); err != nil || c.Name != "Hardware" {
		t.Fatalf("GetCategory() = %v, %v", c, err)
	}
	if _, err := env.client.CreateCategory(ctx, &model.CategoryInput{Name: "Paint"}); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if c, err := env.client.UpdateCategory(ctx, 3, &model.CategoryInput{Name: "Paints"}); err != nil || c.Name != "Paints" {
		t.Fatalf("UpdateCategory() = %v, %v", c, err)
	}
	if _, err := env.client.CreateCategory(ctx, &model.CategoryInput{}); err == nil {
		t.Error("empty category name accepted")
	}
}

func TestClient_Stocks(t *testing.T) {
	env := newTestEnv(t, "abc", map[string]cannedResponse{
		"GET /api/stocks/":      {body: `[{"id":1,"product":2,"quantity_changed":5,"type":"IN","created_by":1}]`},
		"POST /api/stocks/":     {statusCode: http.StatusCreated, body: `{"id":2,"product":2,"quantity_changed":3,"type":"OUT","created_by":1}`},
		"DELETE /api/stocks/2/": {statusCode: http.StatusNoContent},
	})
	ctx := context.Background()

	stocks, err := env.client.ListStocks(ctx)
	if err != nil || len(stocks) != 1 || stocks[0].Delta() != 5 {
		t.Fatalf("ListStocks() = %v, %v", stocks, err)
	}

	s, err := env.client.CreateStock(ctx, &model.StockInput{Product: 2, QuantityChanged: 3, Type: model.MovementOut})
	if err != nil {
		t.Fatalf("CreateStock() error = %v", err)
	}
	if s.Delta() != -3 {
		t.Errorf("Delta() = %d, want -3", s.Delta())
	}
	if err := env.client.DeleteStock(ctx, 2); err != nil {
		t.Fatalf("DeleteStock() error = %v", err)
	}

	before := env.handler.count()
	if _, err := env.client.CreateStock(ctx, &model.StockInput{Product: 2, QuantityChanged: 0, Type: model.MovementIn}); err == nil {
		t.Error("zero-quantity movement accepted")
	}
	if env.handler.count() != before {
		t.Error("invalid movement was dispatched")
	}

	want := []string{events.TopicStockRecorded, events.TopicStockDeleted}
	if strings.Join(env.topics(), ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", env.topics(), want)
	}
}

func TestClient_Prediction(t *testing.T) {
	env := newTestEnv(t, "abc", map[string]cannedResponse{
		"GET /api/predictions/4/": {body: `{"dates":["2026-05-01T00:00:00"],"historical":[3],"forecast":[2.5],"reorderPoint":6,"peakDemand":4,"confidenceScore":77,"alerts":"Low stock alert"}`},
	})
	ctx := context.Background()

	p, err := env.client.Prediction(ctx, 4, 0)
	if err != nil {
		t.Fatalf("Prediction() error = %v", err)
	}
	if p.ReorderPoint != 6 || p.Alerts != "Low stock alert" {
		t.Errorf("prediction = %+v", p)
	}
	if q := env.handler.last(t).query; q != "days=30" {
		t.Errorf("query = %q, want days=30", q)
	}

	if _, err := env.client.Prediction(ctx, 4, 90); err != nil {
		t.Fatal(err)
	}
	if q := env.handler.last(t).query; q != "days=90" {
		t.Errorf("query = %q, want days=90", q)
	}
}

func TestClient_Prediction_NotFound(t *testing.T) {
	env := newTestEnv(t, "abc", map[string]cannedResponse{
		"GET /api/predictions/4/": {statusCode: http.StatusNotFound, body: `{"error":"Product not found"}`},
	})
	_, err := env.client.Prediction(context.Background(), 4, 30)
	if err == nil || err.Error() != "HTTP 404: Product not found" {
		t.Fatalf("Prediction() error = %v", err)
	}
}

func TestClient_Dashboard(t *testing.T) {
	env := newTestEnv(t, "abc", map[string]cannedResponse{
		"GET /api/dashboard/": {body: `{
			"inventory_summary": {"total_products": 12, "total_categories": 3, "low_stock_products": 2, "out_of_stock_products": 1, "total_inventory_value": "1520.50"},
			"stock_movements": {"recent_movements": 8, "stock_in": 5, "stock_out": 3},
			"top_products": {"most_active": [{"name": "Bolt", "movement_count": 4}], "highest_value": [], "lowest_stock": []},
			"recent_transactions": [],
			"transaction_summary": {"total_transactions": 8, "total_value": "310.00"}
		}`},
	})
	d, err := env.client.Dashboard(context.Background(), 7)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if d.InventorySummary.TotalProducts != 12 || d.InventorySummary.TotalInventoryValue.StringFixed(2) != "1520.50" {
		t.Errorf("summary = %+v", d.InventorySummary)
	}
	if len(d.TopProducts.MostActive) != 1 || d.TopProducts.MostActive[0].MovementCount != 4 {
		t.Errorf("top products = %+v", d.TopProducts)
	}
	if q := env.handler.last(t).query; q != "days=7" {
		t.Errorf("query = %q, want days=7", q)
	}
}

func TestClient_ProtectedCall_401(t *testing.T) {
	env := newTestEnv(t, "abc", map[string]cannedResponse{
		"GET /api/stocks/": {statusCode: http.StatusUnauthorized},
	})
	_, err := env.client.ListStocks(context.Background())
	if !errors.Is(err, gateway.ErrAuthExpired) {
		t.Fatalf("ListStocks() error = %v, want ErrAuthExpired", err)
	}
	if env.session.IsAuthenticated() {
		t.Error("session survived a 401")
	}
}
