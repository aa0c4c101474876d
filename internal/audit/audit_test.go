package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/ims/internal/gateway"
)

type memoryRecorder struct {
	entries []*Entry
	err     error
}

func (m *memoryRecorder) Record(_ context.Context, e *Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryRecorder) List(context.Context, ListOptions) ([]*Entry, error) { return m.entries, nil }

func (m *memoryRecorder) Close() error { return nil }

func TestEntryFromCompletion(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := EntryFromCompletion(gateway.Completion{
		RequestID:     "req-1",
		Method:        "DELETE",
		Path:          "/api/categories/3/",
		StatusCode:    204,
		Outcome:       gateway.OK,
		Authenticated: true,
		Duration:      1500 * time.Microsecond,
		CompletedAt:   at,
	})
	if e.Outcome != "ok" || e.DurationMS != 1 || e.StatusCode != 204 || !e.CompletedAt.Equal(at) {
		t.Errorf("entry = %+v", e)
	}
}

func TestObserver_RecordsCompletions(t *testing.T) {
	rec := &memoryRecorder{}
	obs := Observer(rec, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	obs.RequestCompleted(context.Background(), gateway.Completion{Method: "GET", Path: "/api/stocks/", Outcome: gateway.AuthExpired, StatusCode: 401})

	if len(rec.entries) != 1 || rec.entries[0].Outcome != "auth_expired" {
		t.Fatalf("entries = %+v", rec.entries)
	}
}

func TestObserver_FailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	obs := Observer(&memoryRecorder{err: errors.New("db down")}, slog.New(slog.NewTextHandler(&buf, nil)))

	obs.RequestCompleted(context.Background(), gateway.Completion{RequestID: "req-9", Method: "GET", Path: "/"})

	if !strings.Contains(buf.String(), "db down") || !strings.Contains(buf.String(), "req-9") {
		t.Errorf("log = %s", buf.String())
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	if err := r.Record(context.Background(), &Entry{}); err != nil {
		t.Fatal(err)
	}
	entries, err := r.List(context.Background(), ListOptions{})
	if err != nil || entries != nil {
		t.Errorf("List() = %v, %v", entries, err)
	}
}
