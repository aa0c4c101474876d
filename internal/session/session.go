// Package session holds the client's belief about the current authenticated
// identity. The bearer token lives both in memory and in durable storage; the
// two are updated together so a reload of the process resumes the session
// without contacting the backend.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// TokenKey is the fixed storage key the bearer token is persisted under.
const TokenKey = "auth.token"

// Reasons attached to transitions that are not invalidations.
const (
	ReasonLogin  = "login"
	ReasonRotate = "rotate"
	ReasonLogout = "logout"
)

// ErrEmptyToken is returned by SetToken when given an empty token.
var ErrEmptyToken = errors.New("session: token must not be empty")

// State is the authentication state of a Store.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Transition describes a state change delivered to listeners.
type Transition struct {
	From   State
	To     State
	Reason string
	// Invalidated is true when the transition came from Invalidate rather
	// than a user-initiated logout.
	Invalidated bool
}

// Store is the single source of truth for authentication state. It is safe
// for concurrent use; readers never observe memory and storage out of sync
// because both are written under the same lock.
type Store struct {
	storage Storage
	logger  *slog.Logger

	mu               sync.RWMutex
	token            string
	lastInvalidation string

	listenersMu sync.Mutex
	listeners   []func(Transition)
}

// Open returns a Store whose initial state is derived from whatever token
// storage already holds. No network call is made.
func Open(storage Storage, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	token, ok, err := storage.Get(TokenKey)
	if err != nil {
		return nil, fmt.Errorf("reading session storage: %w", err)
	}
	s := &Store{storage: storage, logger: logger}
	if ok && token != "" {
		s.token = token
	}
	return s, nil
}

// State reports the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return Anonymous
	}
	return Authenticated
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	return s.State() == Authenticated
}

// Token returns the current token, or "" when anonymous. Callers that attach
// credentials should call this at send time rather than caching the value.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// LastInvalidation returns the reason passed to the most recent Invalidate.
// It is cleared by the next SetToken.
func (s *Store) LastInvalidation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastInvalidation
}

// SetToken stores token and moves the session to Authenticated. If the
// storage write fails the token is still kept in memory for the lifetime of
// the process; the failure is logged, not returned.
func (s *Store) SetToken(token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	from := Anonymous
	if s.token != "" {
		from = Authenticated
	}
	if err := s.storage.Set(TokenKey, token); err != nil {
		s.logger.Warn("session token not persisted; valid for this process only", "error", err)
	}
	s.token = token
	s.lastInvalidation = ""
	s.mu.Unlock()

	reason := ReasonLogin
	if from == Authenticated {
		reason = ReasonRotate
	}
	s.notify(Transition{From: from, To: Authenticated, Reason: reason})
	return nil
}

// Logout clears the token from memory and storage. Calling it while already
// anonymous is a no-op apart from re-checking that storage is empty. An error
// means storage may still hold the token and a restart could resume it.
func (s *Store) Logout() error {
	return s.clear(ReasonLogout, false)
}

// Invalidate has the same effect as Logout. The gateway calls it when the
// backend rejects the token; it is not meant for user-initiated logout. A
// storage failure is logged; the next rejected request invalidates again.
func (s *Store) Invalidate(reason string) {
	_ = s.clear(reason, true)
}

func (s *Store) clear(reason string, invalidated bool) error {
	s.mu.Lock()
	was := s.token != ""
	err := s.eraseStored()
	s.token = ""
	if invalidated && was {
		s.lastInvalidation = reason
	}
	s.mu.Unlock()

	if was {
		s.logger.Debug("session cleared", "reason", reason, "invalidated", invalidated)
		s.notify(Transition{From: Authenticated, To: Anonymous, Reason: reason, Invalidated: invalidated})
	}
	return err
}

// eraseStored removes the persisted token. When Delete fails the key is
// overwritten with an empty value, which Open reads as anonymous.
// Callers hold s.mu.
func (s *Store) eraseStored() error {
	delErr := s.storage.Delete(TokenKey)
	if delErr == nil {
		return nil
	}
	if setErr := s.storage.Set(TokenKey, ""); setErr != nil {
		s.logger.Error("session token left in storage", "delete_error", delErr, "overwrite_error", setErr)
		return fmt.Errorf("removing session token: %w", errors.Join(delErr, setErr))
	}
	s.logger.Warn("session token blanked in storage; delete failed", "error", delErr)
	return nil
}

// Subscribe registers fn to be called after every state transition. fn runs
// on the goroutine that caused the transition, outside the store's lock, so
// it may read the store. The returned function removes the listener.
func (s *Store) Subscribe(fn func(Transition)) (unsubscribe func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			s.listeners[idx] = nil
		})
	}
}

func (s *Store) notify(t Transition) {
	s.listenersMu.Lock()
	fns := make([]func(Transition), 0, len(s.listeners))
	for _, fn := range s.listeners {
		if fn != nil {
			fns = append(fns, fn)
		}
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(t)
	}
}
