package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// ErrAuthExpired marks a request the backend rejected with 401. By the time a
// caller sees it the session has already been invalidated.
var ErrAuthExpired = errors.New("session expired")

// Outcome tags a Result.
type Outcome int

const (
	// OK is any 1xx-3xx response.
	OK Outcome = iota
	// AuthExpired is a 401 response.
	AuthExpired
	// Failure is any other error status or a transport error.
	Failure
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case AuthExpired:
		return "auth_expired"
	case Failure:
		return "failure"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is the tagged outcome of one request.
type Result struct {
	Outcome    Outcome
	StatusCode int // 0 on transport failure
	Body       []byte

	// Detail is the backend's human-readable message, when it sent one.
	Detail string
	// FieldErrors maps a field name to validation messages.
	FieldErrors map[string][]string
	// TransportErr is set when no response was received.
	TransportErr error

	RequestID string
	Duration  time.Duration

	authenticated bool
}

func (r *Result) transport(err error) *Result {
	r.Outcome = Failure
	r.TransportErr = err
	return r
}

// Err converts a non-OK result to an error. AuthExpired results satisfy
// errors.Is(err, ErrAuthExpired); other failures are *Error.
func (r *Result) Err() error {
	switch r.Outcome {
	case OK:
		return nil
	case AuthExpired:
		return &Error{StatusCode: r.StatusCode, Detail: r.Detail, RequestID: r.RequestID, Err: ErrAuthExpired}
	default:
		return &Error{
			StatusCode:  r.StatusCode,
			Detail:      r.Detail,
			FieldErrors: r.FieldErrors,
			RequestID:   r.RequestID,
			Err:         r.TransportErr,
		}
	}
}

// Decode unmarshals the response body into v. An empty body leaves v untouched.
func (r *Result) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Error is a failed request as seen by the caller.
type Error struct {
	StatusCode  int
	Detail      string
	FieldErrors map[string][]string
	RequestID   string
	// Err is the transport error or ErrAuthExpired, if any.
	Err error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 && e.Err != nil {
		return e.Err.Error()
	}
	if errors.Is(e.Err, ErrAuthExpired) {
		if e.Detail != "" {
			return fmt.Sprintf("%s: %s", ErrAuthExpired, e.Detail)
		}
		return ErrAuthExpired.Error()
	}
	msg := e.Detail
	if fe := e.fieldSummary(); fe != "" {
		if msg != "" {
			msg += "; "
		}
		msg += fe
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Transport reports whether no response was received.
func (e *Error) Transport() bool { return e.StatusCode == 0 }

func (e *Error) fieldSummary() string {
	if len(e.FieldErrors) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.FieldErrors))
	for k := range e.FieldErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.FieldErrors[k], " "))
	}
	return strings.Join(parts, "; ")
}

// parseErrorBody extracts a message and field errors from a backend error
// payload. It understands {"detail": ...}, {"error": ...}, {"message": ...}
// and field-error objects such as {"name": ["This field is required."]}.
func parseErrorBody(body []byte) (string, map[string][]string) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		if strings.HasPrefix(trimmed, "<") {
			// HTML error page from a proxy or the framework's debug view.
			return "", nil
		}
		return trimmed, nil
	}

	var detail string
	for _, key := range []string{"detail", "error", "message"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			detail = s
			delete(obj, key)
			break
		}
	}

	var fields map[string][]string
	for k, raw := range obj {
		msgs := fieldMessages(raw)
		if len(msgs) == 0 {
			continue
		}
		if fields == nil {
			fields = make(map[string][]string)
		}
		fields[k] = msgs
	}
	return detail, fields
}

func fieldMessages(raw json.RawMessage) []string {
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return list
	}
	var s string
	if json.Unmarshal(raw, &s) == nil && s != "" {
		return []string{s}
	}
	return nil
}

// Completion is reported to observers once per request.
type Completion struct {
	RequestID     string
	Method        string
	Path          string
	StatusCode    int
	Outcome       Outcome
	Authenticated bool
	Duration      time.Duration
	CompletedAt   time.Time
	Error         string
}

// Observer is notified after each request completes. Implementations must not
// block for long; they run on the caller's goroutine.
type Observer interface {
	RequestCompleted(ctx context.Context, c Completion)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, c Completion)

func (f ObserverFunc) RequestCompleted(ctx context.Context, c Completion) { f(ctx, c) }
