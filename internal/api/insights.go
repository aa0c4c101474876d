package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alfredjeanlab/ims/internal/model"
)

func daysQuery(days int) url.Values {
	if days <= 0 {
		days = model.DefaultForecastDays
	}
	return url.Values{"days": []string{strconv.Itoa(days)}}
}

// Prediction fetches the demand forecast for a product using the last days of
// movement history (model.DefaultForecastDays when days <= 0).
func (c *Client) Prediction(ctx context.Context, productID int64, days int) (*model.Prediction, error) {
	var p model.Prediction
	path := withQuery(itemPath(pathPredictions, productID), daysQuery(days))
	if err := c.gw.DoJSON(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Dashboard fetches inventory metrics over the last days.
func (c *Client) Dashboard(ctx context.Context, days int) (*model.Dashboard, error) {
	var d model.Dashboard
	if err := c.gw.DoJSON(ctx, http.MethodGet, withQuery(pathDashboard, daysQuery(days)), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
