package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alfredjeanlab/ims/internal/events"
	"github.com/alfredjeanlab/ims/internal/model"
)

// ErrCategoryInUse blocks deleting a category that still has products.
var ErrCategoryInUse = errors.New("category still has products")

func (c *Client) ListCategories(ctx context.Context) ([]*model.Category, error) {
	var cats []*model.Category
	if err := c.gw.DoJSON(ctx, http.MethodGet, pathCategories, nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (c *Client) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	var cat model.Category
	if err := c.gw.DoJSON(ctx, http.MethodGet, itemPath(pathCategories, id), nil, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Client) CreateCategory(ctx context.Context, in *model.CategoryInput) (*model.Category, error) {
	if err := model.ValidateCategory(in); err != nil {
		return nil, err
	}
	var cat model.Category
	if err := c.gw.DoJSON(ctx, http.MethodPost, pathCategories, in, &cat); err != nil {
		return nil, err
	}
	c.publish(ctx, events.TopicCategoryCreated, events.CategoryChanged{Category: &cat})
	return &cat, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id int64, in *model.CategoryInput) (*model.Category, error) {
	if err := model.ValidateCategory(in); err != nil {
		return nil, err
	}
	var cat model.Category
	if err := c.gw.DoJSON(ctx, http.MethodPut, itemPath(pathCategories, id), in, &cat); err != nil {
		return nil, err
	}
	c.publish(ctx, events.TopicCategoryUpdated, events.CategoryChanged{Category: &cat})
	return &cat, nil
}

// DeleteCategory deletes unconditionally. Interactive callers should use
// SafeDeleteCategory.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	if err := c.gw.DoJSON(ctx, http.MethodDelete, itemPath(pathCategories, id), nil, nil); err != nil {
		return err
	}
	c.publish(ctx, events.TopicCategoryDeleted, events.Deleted{ID: id})
	return nil
}

// CategoryProductCount returns how many products reference the category.
func (c *Client) CategoryProductCount(ctx context.Context, id int64) (int, error) {
	products, err := c.ListProducts(ctx, ProductFilter{Category: id})
	if err != nil {
		return 0, err
	}
	return len(products), nil
}

// SafeDeleteCategory deletes the category only if no product references it.
// Otherwise it returns an error wrapping ErrCategoryInUse and no DELETE is
// sent. A server-side rejection of the DELETE is returned as is.
func (c *Client) SafeDeleteCategory(ctx context.Context, id int64) error {
	n, err := c.CategoryProductCount(ctx, id)
	if err != nil {
		return fmt.Errorf("counting products in category %d: %w", id, err)
	}
	if n > 0 {
		return fmt.Errorf("category %d has %d product(s): %w", id, n, ErrCategoryInUse)
	}
	return c.DeleteCategory(ctx, id)
}
