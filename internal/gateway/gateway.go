// Package gateway is the single chokepoint through which every backend call is
// issued. It attaches the session's bearer token at send time, invalidates the
// session when the backend answers 401, and hands the caller a tagged Result
// instead of navigating on its own.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alfredjeanlab/ims/internal/idgen"
)

// Session is the part of the session store the gateway depends on.
type Session interface {
	// Token returns the current bearer token or "" when anonymous.
	Token() string
	// Invalidate drops the session after the backend rejected it.
	Invalidate(reason string)
}

// Request describes one outbound call.
type Request struct {
	Method string
	// Path is relative to the base URL and may carry a query string.
	Path string
	// Body is JSON-encoded when non-nil.
	Body any
}

// Gateway dispatches requests against one backend.
type Gateway struct {
	baseURL    string
	session    Session
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	observers  []Observer
	newID      func() (string, error)
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default *http.Client. The gateway works on a
// copy, so c itself is never modified.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

// WithTimeout sets an overall per-request timeout, whatever client is in use.
// Zero keeps the client's own timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithObserver adds an observer notified after every request completes.
func WithObserver(o Observer) Option {
	return func(g *Gateway) { g.observers = append(g.observers, o) }
}

// WithRequestIDs overrides the request ID generator.
func WithRequestIDs(fn func() (string, error)) Option {
	return func(g *Gateway) { g.newID = fn }
}

// New returns a Gateway for the backend at baseURL (e.g.
// "http://localhost:8000"). Options are applied in order.
func New(baseURL string, s Session, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		session:    s,
		httpClient: &http.Client{},
		logger:     slog.Default(),
		newID:      idgen.RequestID,
	}
	for _, opt := range opts {
		opt(g)
	}
	c := *g.httpClient
	if g.timeout > 0 {
		c.Timeout = g.timeout
	}
	g.httpClient = &c
	return g
}

// BaseURL returns the backend base URL without a trailing slash.
func (g *Gateway) BaseURL() string { return g.baseURL }

// Do issues req and classifies the response. It never retries. A 401
// invalidates the session before Do returns.
func (g *Gateway) Do(ctx context.Context, req Request) *Result {
	start := time.Now()
	res := g.do(ctx, req)
	res.Duration = time.Since(start)

	if res.Outcome == AuthExpired {
		g.session.Invalidate(fmt.Sprintf("%s %s returned 401", req.Method, req.Path))
		g.logger.Info("session invalidated by backend",
			"request_id", res.RequestID, "method", req.Method, "path", req.Path)
	}

	g.logger.Debug("request completed",
		"request_id", res.RequestID,
		"method", req.Method,
		"path", req.Path,
		"status", res.StatusCode,
		"outcome", res.Outcome.String(),
		"duration", res.Duration,
	)

	c := Completion{
		RequestID:     res.RequestID,
		Method:        req.Method,
		Path:          req.Path,
		StatusCode:    res.StatusCode,
		Outcome:       res.Outcome,
		Authenticated: res.authenticated,
		Duration:      res.Duration,
		CompletedAt:   time.Now().UTC(),
	}
	if res.TransportErr != nil {
		c.Error = res.TransportErr.Error()
	}
	for _, o := range g.observers {
		o.RequestCompleted(ctx, c)
	}
	return res
}

func (g *Gateway) do(ctx context.Context, req Request) *Result {
	res := &Result{}

	id, err := g.newID()
	if err != nil {
		g.logger.Warn("generating request id", "error", err)
	}
	res.RequestID = id

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return res.transport(fmt.Errorf("marshaling request body: %w", err))
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, g.baseURL+req.Path, bodyReader)
	if err != nil {
		return res.transport(fmt.Errorf("creating request: %w", err))
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if id != "" {
		httpReq.Header.Set("X-Request-ID", id)
	}
	// Read the token now, not when the request was built by the caller, so a
	// rotation between two calls is honored by the second one.
	if token := g.session.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
		res.authenticated = true
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return res.transport(fmt.Errorf("performing request: %w", err))
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	body, err := io.ReadAll(resp.Body)

	// The status line alone decides a 401; a body that cannot be read only
	// costs the detail message.
	if resp.StatusCode == http.StatusUnauthorized {
		res.Outcome = AuthExpired
		if err != nil {
			g.logger.Debug("reading 401 body", "request_id", res.RequestID, "error", err)
			return res
		}
		res.Body = body
		res.Detail, _ = parseErrorBody(body)
		return res
	}
	if err != nil {
		return res.transport(fmt.Errorf("reading response: %w", err))
	}
	res.Body = body

	switch {
	case resp.StatusCode >= 400:
		res.Outcome = Failure
		res.Detail, res.FieldErrors = parseErrorBody(body)
		if res.Detail == "" && len(res.FieldErrors) == 0 {
			res.Detail = http.StatusText(resp.StatusCode)
		}
	default:
		res.Outcome = OK
	}
	return res
}

// DoJSON issues a request and decodes a successful JSON response into out.
// If out is nil the body is discarded. Non-OK outcomes are returned as errors
// (see Result.Err).
func (g *Gateway) DoJSON(ctx context.Context, method, path string, body, out any) error {
	res := g.Do(ctx, Request{Method: method, Path: path, Body: body})
	if err := res.Err(); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return res.Decode(out)
}
