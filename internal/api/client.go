// Package api provides typed operations for the IMS REST backend. Every call
// goes through a gateway.Gateway, so authentication and 401 handling are
// uniform; this package adds request shapes, client-side validation and
// mutation events.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/alfredjeanlab/ims/internal/events"
	"github.com/alfredjeanlab/ims/internal/gateway"
)

// Backend paths.
const (
	pathToken        = "/api/auth/token/"
	pathProfile      = "/api/auth/profile/"
	pathProfileWrite = "/api/profile/"
	pathRegister     = "/api/register/"
	pathResetRequest = "/api/auth/password-reset/"
	pathResetConfirm = "/api/auth/password-reset-confirm/"
	pathProducts     = "/api/products/"
	pathCategories   = "/api/categories/"
	pathStocks       = "/api/stocks/"
	pathPredictions  = "/api/predictions/"
	pathDashboard    = "/api/dashboard/"
)

// Session is the part of the session store the client writes to.
type Session interface {
	SetToken(token string) error
	Logout() error
}

// Client is the typed IMS API.
type Client struct {
	gw      *gateway.Gateway
	session Session
	events  events.Publisher
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPublisher sets the publisher that receives mutation events.
func WithPublisher(p events.Publisher) Option {
	return func(c *Client) { c.events = p }
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client issuing requests through gw. s receives the token on
// Login and is cleared on Logout.
func New(gw *gateway.Gateway, s Session, opts ...Option) *Client {
	c := &Client{
		gw:      gw,
		session: s,
		events:  &events.NoopPublisher{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Gateway returns the underlying gateway.
func (c *Client) Gateway() *gateway.Gateway { return c.gw }

// publish emits a mutation event. The mutation already succeeded, so a
// publish failure is only logged.
func (c *Client) publish(ctx context.Context, topic string, event any) {
	if err := c.events.Publish(ctx, topic, event); err != nil {
		c.logger.Warn("publishing event", "topic", topic, "error", err)
	}
}

func itemPath(base string, id int64) string {
	return fmt.Sprintf("%s%d/", base, id)
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
