package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alfredjeanlab/ims/internal/session"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	mu sync.Mutex

	// captured from the request
	method        string
	path          string
	query         string
	body          string
	contentType   string
	authorization string
	requestID     string
	hits          int

	// canned response
	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits++
	h.method = r.Method
	h.path = r.URL.Path
	h.query = r.URL.RawQuery
	h.contentType = r.Header.Get("Content-Type")
	h.authorization = r.Header.Get("Authorization")
	h.requestID = r.Header.Get("X-Request-ID")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(t *testing.T, token string) (*session.Store, *session.MemoryStorage) {
	t.Helper()
	st := session.NewMemoryStorage()
	s, err := session.Open(st, quietLogger())
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	if token != "" {
		if err := s.SetToken(token); err != nil {
			t.Fatalf("SetToken: %v", err)
		}
	}
	return s, st
}

func newTestGateway(t *testing.T, h http.Handler, s Session, opts ...Option) *Gateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return New(srv.URL+"/", s, opts...)
}

func TestDo_AttachesBearerToken(t *testing.T) {
	h := &testHandler{responseBody: `[]`}
	s, _ := newTestSession(t, "abc")
	g := newTestGateway(t, h, s)

	res := g.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/products/"})
	if res.Outcome != OK {
		t.Fatalf("Outcome = %v, want ok (err=%v)", res.Outcome, res.Err())
	}
	if h.authorization != "Bearer abc" {
		t.Errorf("Authorization = %q, want %q", h.authorization, "Bearer abc")
	}
	if h.path != "/api/products/" {
		t.Errorf("path = %q, want /api/products/", h.path)
	}
}

func TestDo_NoAuthorizationWhenAnonymous(t *testing.T) {
	h := &testHandler{statusCode: http.StatusCreated}
	s, _ := newTestSession(t, "")
	g := newTestGateway(t, h, s)

	body := map[string]string{"username": "u", "email": "u@example.com", "password": "p"}
	res := g.Do(context.Background(), Request{Method: http.MethodPost, Path: "/api/register/", Body: body})
	if res.Outcome != OK {
		t.Fatalf("Outcome = %v, want ok", res.Outcome)
	}
	if h.authorization != "" {
		t.Errorf("Authorization = %q, want none", h.authorization)
	}
	if h.contentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", h.contentType)
	}
	if h.body != `{"email":"u@example.com","password":"p","username":"u"}` {
		t.Errorf("body = %s", h.body)
	}
}

func TestDo_TokenReadAtSendTime(t *testing.T) {
	h := &testHandler{responseBody: `{}`}
	s, _ := newTestSession(t, "first")
	g := newTestGateway(t, h, s)

	g.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/auth/profile/"})
	if h.authorization != "Bearer first" {
		t.Fatalf("first call Authorization = %q", h.authorization)
	}

	_ = s.SetToken("second")
	g.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/auth/profile/"})
	if h.authorization != "Bearer second" {
		t.Errorf("second call Authorization = %q, want Bearer second", h.authorization)
	}
}

func TestDo_UnauthorizedInvalidatesSession(t *testing.T) {
	h := &testHandler{
		statusCode:   http.StatusUnauthorized,
		responseBody: `{"detail": "Given token not valid for any token type"}`,
	}
	s, st := newTestSession(t, "stale")

	var transitions []session.Transition
	s.Subscribe(func(tr session.Transition) { transitions = append(transitions, tr) })

	g := newTestGateway(t, h, s)
	res := g.Do(context.Background(), Request{Method: http.MethodDelete, Path: "/api/stocks/4/"})

	if res.Outcome != AuthExpired {
		t.Fatalf("Outcome = %v, want auth_expired", res.Outcome)
	}
	if s.IsAuthenticated() {
		t.Error("session still authenticated after 401")
	}
	if _, ok, _ := st.Get(session.TokenKey); ok {
		t.Error("token still in storage after 401")
	}
	if len(transitions) != 1 || !transitions[0].Invalidated {
		t.Errorf("transitions = %+v, want one invalidation", transitions)
	}
	if res.Detail != "Given token not valid for any token type" {
		t.Errorf("Detail = %q", res.Detail)
	}

	err := res.Err()
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("Err() = %v, want ErrAuthExpired", err)
	}
}

func TestDo_OtherErrorsPassThrough(t *testing.T) {
	for _, tc := range []struct {
		name       string
		status     int
		body       string
		wantDetail string
		wantFields map[string][]string
	}{
		{
			name:       "Detail",
			status:     http.StatusBadRequest,
			body:       `{"detail": "Username already exists"}`,
			wantDetail: "Username already exists",
		},
		{
			name:       "FieldErrors",
			status:     http.StatusBadRequest,
			body:       `{"name": ["This field is required."], "unit_price": ["A valid number is required."]}`,
			wantFields: map[string][]string{"name": {"This field is required."}, "unit_price": {"A valid number is required."}},
		},
		{
			name:       "ErrorKey",
			status:     http.StatusBadRequest,
			body:       `{"error": "Insufficient data for prediction"}`,
			wantDetail: "Insufficient data for prediction",
		},
		{
			name:       "Forbidden",
			status:     http.StatusForbidden,
			body:       `{"detail": "You do not have permission to perform this action."}`,
			wantDetail: "You do not have permission to perform this action.",
		},
		{
			name:       "HTMLPage",
			status:     http.StatusInternalServerError,
			body:       `<html><body>Server Error</body></html>`,
			wantDetail: "Internal Server Error",
		},
		{
			name:       "PlainText",
			status:     http.StatusBadGateway,
			body:       "upstream connect error",
			wantDetail: "upstream connect error",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := &testHandler{statusCode: tc.status, responseBody: tc.body}
			s, _ := newTestSession(t, "abc")
			g := newTestGateway(t, h, s)

			res := g.Do(context.Background(), Request{Method: http.MethodPost, Path: "/api/products/", Body: map[string]any{}})
			if res.Outcome != Failure {
				t.Fatalf("Outcome = %v, want failure", res.Outcome)
			}
			if res.StatusCode != tc.status {
				t.Errorf("StatusCode = %d, want %d", res.StatusCode, tc.status)
			}
			if res.Detail != tc.wantDetail {
				t.Errorf("Detail = %q, want %q", res.Detail, tc.wantDetail)
			}
			for k, want := range tc.wantFields {
				got := res.FieldErrors[k]
				if len(got) != len(want) || got[0] != want[0] {
					t.Errorf("FieldErrors[%q] = %v, want %v", k, got, want)
				}
			}
			if string(res.Body) != tc.body {
				t.Errorf("Body = %q, want unmodified %q", res.Body, tc.body)
			}
			if !s.IsAuthenticated() {
				t.Error("non-401 error affected the session")
			}

			var apiErr *Error
			if !errors.As(res.Err(), &apiErr) {
				t.Fatalf("Err() = %T, want *Error", res.Err())
			}
			if errors.Is(apiErr, ErrAuthExpired) {
				t.Error("non-401 error reported as auth expired")
			}
		})
	}
}

func TestDo_NoRetry(t *testing.T) {
	h := &testHandler{statusCode: http.StatusServiceUnavailable}
	s, _ := newTestSession(t, "abc")
	g := newTestGateway(t, h, s)

	g.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/categories/"})
	if h.hits != 1 {
		t.Errorf("server hit %d times, want exactly 1", h.hits)
	}
}

func TestDo_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s, _ := newTestSession(t, "abc")
	g := New(url, s, WithLogger(quietLogger()))
	res := g.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/products/"})

	if res.Outcome != Failure {
		t.Fatalf("Outcome = %v, want failure", res.Outcome)
	}
	if res.TransportErr == nil {
		t.Fatal("TransportErr = nil, want error")
	}
	if res.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", res.StatusCode)
	}
	if !s.IsAuthenticated() {
		t.Error("transport failure affected the session")
	}
	var apiErr *Error
	if !errors.As(res.Err(), &apiErr) || !apiErr.Transport() {
		t.Errorf("Err() = %v, want transport *Error", res.Err())
	}
}

func TestDo_RequestIDAndObserver(t *testing.T) {
	h := &testHandler{statusCode: http.StatusUnauthorized}
	s, _ := newTestSession(t, "abc")

	var got []Completion
	obs := ObserverFunc(func(_ context.Context, c Completion) { got = append(got, c) })
	g := newTestGateway(t, h, s,
		WithObserver(obs),
		WithRequestIDs(func() (string, error) { return "req-fixed", nil }),
	)

	g.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/stocks/"})

	if h.requestID != "req-fixed" {
		t.Errorf("X-Request-ID = %q, want req-fixed", h.requestID)
	}
	if len(got) != 1 {
		t.Fatalf("observer called %d times, want 1", len(got))
	}
	c := got[0]
	if c.RequestID != "req-fixed" || c.StatusCode != 401 || c.Outcome != AuthExpired || !c.Authenticated {
		t.Errorf("completion = %+v", c)
	}
	if c.Path != "/api/stocks/" || c.Method != http.MethodGet {
		t.Errorf("completion path/method = %s %s", c.Method, c.Path)
	}
}

func TestDo_ConcurrentRequestsCarryOwnSnapshot(t *testing.T) {
	var bearer atomic.Int64
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer abc" {
			bearer.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	})
	s, _ := newTestSession(t, "abc")
	g := newTestGateway(t, h, s)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/products/"})
		}()
	}
	wg.Wait()
	if bearer.Load() != 20 {
		t.Errorf("%d of 20 requests carried the token", bearer.Load())
	}
}

func TestDoJSON_Decodes(t *testing.T) {
	h := &testHandler{responseBody: `{"access": "abc"}`}
	s, _ := newTestSession(t, "")
	g := newTestGateway(t, h, s)

	var out struct {
		Access string `json:"access"`
	}
	if err := g.DoJSON(context.Background(), http.MethodPost, "/api/auth/token/", map[string]string{"username": "u"}, &out); err != nil {
		t.Fatalf("DoJSON() error = %v", err)
	}
	if out.Access != "abc" {
		t.Errorf("Access = %q, want abc", out.Access)
	}
}

func TestDoJSON_DecodeError(t *testing.T) {
	h := &testHandler{responseBody: `not json`}
	s, _ := newTestSession(t, "abc")
	g := newTestGateway(t, h, s)

	var out map[string]any
	if err := g.DoJSON(context.Background(), http.MethodGet, "/api/products/", nil, &out); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDo_LogsInvalidation(t *testing.T) {
	var logs bytes.Buffer
	h := &testHandler{statusCode: http.StatusUnauthorized}
	s, _ := newTestSession(t, "abc")
	g := newTestGateway(t, h, s, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	g.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/products/"})
	if !bytes.Contains(logs.Bytes(), []byte("session invalidated by backend")) {
		t.Errorf("logs = %q, want invalidation entry", logs.String())
	}
}

func TestError_Messages(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  *Error
		want string
	}{
		{"Detail", &Error{StatusCode: 400, Detail: "Email already exists"}, "HTTP 400: Email already exists"},
		{"Fields", &Error{StatusCode: 400, FieldErrors: map[string][]string{"b": {"bad"}, "a": {"x", "y"}}}, "HTTP 400: a: x y; b: bad"},
		{"Bare", &Error{StatusCode: 404}, "HTTP 404: Not Found"},
		{"Expired", &Error{StatusCode: 401, Err: ErrAuthExpired}, "session expired"},
		{"Transport", &Error{Err: errors.New("performing request: dial tcp: refused")}, "performing request: dial tcp: refused"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

// A 401 whose body is cut short still ends the session.
func TestDo_UnauthorizedWithTruncatedBody(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, buf, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		defer conn.Close()
		_, _ = buf.WriteString("HTTP/1.1 401 Unauthorized\r\n" +
			"Content-Type: application/json\r\n" +
			"Content-Length: 100\r\n\r\n" +
			`{"detail":`)
		_ = buf.Flush()
	})
	s, st := newTestSession(t, "stale")
	g := newTestGateway(t, h, s)

	res := g.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/products/"})

	if res.Outcome != AuthExpired {
		t.Fatalf("Outcome = %v (transport err %v), want auth_expired", res.Outcome, res.TransportErr)
	}
	if s.IsAuthenticated() {
		t.Error("session still authenticated after truncated 401")
	}
	if _, ok, _ := st.Get(session.TokenKey); ok {
		t.Error("token still in storage after truncated 401")
	}
	if res.Detail != "" {
		t.Errorf("Detail = %q, want empty for an unreadable body", res.Detail)
	}
	if !errors.Is(res.Err(), ErrAuthExpired) {
		t.Errorf("Err() = %v, want ErrAuthExpired", res.Err())
	}
}

func TestNew_TimeoutDoesNotModifyCallerClient(t *testing.T) {
	shared := &http.Client{}
	s, _ := newTestSession(t, "")

	g := New("http://example.invalid", s, WithHTTPClient(shared), WithTimeout(time.Second))
	if shared.Timeout != 0 {
		t.Errorf("caller's client Timeout = %v, want untouched", shared.Timeout)
	}
	if g.httpClient == shared || g.httpClient.Timeout != time.Second {
		t.Errorf("gateway client Timeout = %v, want 1s on a copy", g.httpClient.Timeout)
	}
}

func TestNew_TimeoutIndependentOfOptionOrder(t *testing.T) {
	s, _ := newTestSession(t, "")
	custom := &http.Client{Timeout: 5 * time.Second}

	g := New("http://example.invalid", s, WithTimeout(time.Second), WithHTTPClient(custom))
	if g.httpClient.Timeout != time.Second {
		t.Errorf("Timeout = %v, want 1s", g.httpClient.Timeout)
	}

	g = New("http://example.invalid", s, WithHTTPClient(custom))
	if g.httpClient.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want the client's own 5s", g.httpClient.Timeout)
	}
	if custom.Timeout != 5*time.Second {
		t.Errorf("custom client modified: %v", custom.Timeout)
	}
}
