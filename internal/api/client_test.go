package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alfredjeanlab/ims/internal/gateway"
	"github.com/alfredjeanlab/ims/internal/session"
)

// capturedRequest is one request seen by testHandler.
type capturedRequest struct {
	method        string
	path          string
	query         string
	body          string
	authorization string
}

type cannedResponse struct {
	statusCode int
	body       string
}

// testHandler records every request and answers from a table keyed by
// "METHOD /path", falling back to 200 with an empty body.
type testHandler struct {
	mu        sync.Mutex
	requests  []capturedRequest
	responses map[string]cannedResponse
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	h.mu.Lock()
	h.requests = append(h.requests, capturedRequest{
		method:        r.Method,
		path:          r.URL.Path,
		query:         r.URL.RawQuery,
		body:          string(data),
		authorization: r.Header.Get("Authorization"),
	})
	resp, ok := h.responses[r.Method+" "+r.URL.Path]
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok || resp.statusCode == 0 {
		resp.statusCode = http.StatusOK
	}
	w.WriteHeader(resp.statusCode)
	if resp.body != "" {
		_, _ = w.Write([]byte(resp.body))
	}
}

func (h *testHandler) last(t *testing.T) capturedRequest {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.requests) == 0 {
		t.Fatal("no request received")
	}
	return h.requests[len(h.requests)-1]
}

func (h *testHandler) all() []capturedRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]capturedRequest(nil), h.requests...)
}

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.requests)
}

type recordedEvent struct {
	topic string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{topic, event})
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

type testEnv struct {
	client  *Client
	session *session.Store
	storage *session.MemoryStorage
	handler *testHandler
	events  *recordingPublisher
}

// newTestEnv wires a Client to an httptest server. A non-empty token starts
// the session authenticated.
func newTestEnv(t *testing.T, token string, responses map[string]cannedResponse) *testEnv {
	t.Helper()
	h := &testHandler{responses: responses}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	storage := session.NewMemoryStorage()
	if token != "" {
		if err := storage.Set(session.TokenKey, token); err != nil {
			t.Fatal(err)
		}
	}
	store, err := session.Open(storage, logger)
	if err != nil {
		t.Fatalf("session.Open() error = %v", err)
	}
	pub := &recordingPublisher{}
	gw := gateway.New(srv.URL, store, gateway.WithLogger(logger))
	return &testEnv{
		client:  New(gw, store, WithPublisher(pub), WithLogger(logger)),
		session: store,
		storage: storage,
		handler: h,
		events:  pub,
	}
}

func (e *testEnv) topics() []string {
	e.events.mu.Lock()
	defer e.events.mu.Unlock()
	out := make([]string, len(e.events.events))
	for i, ev := range e.events.events {
		out[i] = ev.topic
	}
	return out
}
