package api

import (
	"context"
	"net/http"

	"github.com/alfredjeanlab/ims/internal/events"
	"github.com/alfredjeanlab/ims/internal/model"
)

func (c *Client) ListStocks(ctx context.Context) ([]*model.StockMovement, error) {
	var stocks []*model.StockMovement
	if err := c.gw.DoJSON(ctx, http.MethodGet, pathStocks, nil, &stocks); err != nil {
		return nil, err
	}
	return stocks, nil
}

func (c *Client) GetStock(ctx context.Context, id int64) (*model.StockMovement, error) {
	var s model.StockMovement
	if err := c.gw.DoJSON(ctx, http.MethodGet, itemPath(pathStocks, id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateStock records a movement. The backend applies it to the product's
// quantity and attributes it to the authenticated user.
func (c *Client) CreateStock(ctx context.Context, in *model.StockInput) (*model.StockMovement, error) {
	if err := model.ValidateStock(in); err != nil {
		return nil, err
	}
	var s model.StockMovement
	if err := c.gw.DoJSON(ctx, http.MethodPost, pathStocks, in, &s); err != nil {
		return nil, err
	}
	c.publish(ctx, events.TopicStockRecorded, events.StockChanged{Stock: &s})
	return &s, nil
}

func (c *Client) UpdateStock(ctx context.Context, id int64, in *model.StockInput) (*model.StockMovement, error) {
	if err := model.ValidateStock(in); err != nil {
		return nil, err
	}
	var s model.StockMovement
	if err := c.gw.DoJSON(ctx, http.MethodPut, itemPath(pathStocks, id), in, &s); err != nil {
		return nil, err
	}
	c.publish(ctx, events.TopicStockUpdated, events.StockChanged{Stock: &s})
	return &s, nil
}

func (c *Client) DeleteStock(ctx context.Context, id int64) error {
	if err := c.gw.DoJSON(ctx, http.MethodDelete, itemPath(pathStocks, id), nil, nil); err != nil {
		return err
	}
	c.publish(ctx, events.TopicStockDeleted, events.Deleted{ID: id})
	return nil
}
