// Package audit keeps a log of every request the gateway completes: method,
// path, status, outcome and timing. It never stores request or response
// bodies, and never the bearer token.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/ims/internal/gateway"
)

// Entry is one completed request.
type Entry struct {
	ID            int64     `json:"id"`
	RequestID     string    `json:"request_id"`
	Method        string    `json:"method"`
	Path          string    `json:"path"`
	StatusCode    int       `json:"status_code"`
	Outcome       string    `json:"outcome"`
	Authenticated bool      `json:"authenticated"`
	DurationMS    int64     `json:"duration_ms"`
	Error         string    `json:"error,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}

// ListOptions filters List. Zero values mean no filter; Limit defaults to 50.
type ListOptions struct {
	Limit   int
	Outcome string
}

// Recorder persists entries.
type Recorder interface {
	Record(ctx context.Context, e *Entry) error
	List(ctx context.Context, opts ListOptions) ([]*Entry, error)
	Close() error
}

// EntryFromCompletion converts a gateway completion.
func EntryFromCompletion(c gateway.Completion) *Entry {
	return &Entry{
		RequestID:     c.RequestID,
		Method:        c.Method,
		Path:          c.Path,
		StatusCode:    c.StatusCode,
		Outcome:       c.Outcome.String(),
		Authenticated: c.Authenticated,
		DurationMS:    c.Duration.Milliseconds(),
		Error:         c.Error,
		CompletedAt:   c.CompletedAt,
	}
}

// Observer returns a gateway.Observer that records every completion. Record
// failures are logged; they never fail the request.
func Observer(r Recorder, logger *slog.Logger) gateway.Observer {
	return gateway.ObserverFunc(func(ctx context.Context, c gateway.Completion) {
		if err := r.Record(context.WithoutCancel(ctx), EntryFromCompletion(c)); err != nil {
			logger.Warn("recording request", "request_id", c.RequestID, "error", err)
		}
	})
}

// NoopRecorder is used when no audit database is configured.
type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, *Entry) error { return nil }

func (NoopRecorder) List(context.Context, ListOptions) ([]*Entry, error) { return nil, nil }

func (NoopRecorder) Close() error { return nil }
