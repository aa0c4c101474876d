package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alfredjeanlab/ims/internal/events"
	"github.com/alfredjeanlab/ims/internal/model"
)

// ProductFilter narrows ListProducts. Zero values mean no filter.
type ProductFilter struct {
	Category int64
}

func (c *Client) ListProducts(ctx context.Context, f ProductFilter) ([]*model.Product, error) {
	q := url.Values{}
	if f.Category > 0 {
		q.Set("category", strconv.FormatInt(f.Category, 10))
	}
	var products []*model.Product
	if err := c.gw.DoJSON(ctx, http.MethodGet, withQuery(pathProducts, q), nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	if err := c.gw.DoJSON(ctx, http.MethodGet, itemPath(pathProducts, id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProduct(ctx context.Context, in *model.ProductInput) (*model.Product, error) {
	if err := model.ValidateProduct(in); err != nil {
		return nil, err
	}
	var p model.Product
	if err := c.gw.DoJSON(ctx, http.MethodPost, pathProducts, in, &p); err != nil {
		return nil, err
	}
	c.publish(ctx, events.TopicProductCreated, events.ProductChanged{Product: &p})
	return &p, nil
}

// UpdateProduct replaces the writable fields of product id.
func (c *Client) UpdateProduct(ctx context.Context, id int64, in *model.ProductInput) (*model.Product, error) {
	if err := model.ValidateProduct(in); err != nil {
		return nil, err
	}
	var p model.Product
	if err := c.gw.DoJSON(ctx, http.MethodPut, itemPath(pathProducts, id), in, &p); err != nil {
		return nil, err
	}
	c.publish(ctx, events.TopicProductUpdated, events.ProductChanged{Product: &p})
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	if err := c.gw.DoJSON(ctx, http.MethodDelete, itemPath(pathProducts, id), nil, nil); err != nil {
		return err
	}
	c.publish(ctx, events.TopicProductDeleted, events.Deleted{ID: id})
	return nil
}
