// Package guard gates screens that need an authenticated session. It treats a
// present token as sufficient; whether the backend still accepts it is only
// discovered the next time a call returns 401.
package guard

import (
	"errors"
	"fmt"
)

// ErrLoginRequired is returned by Require for a protected route while the
// session is anonymous.
var ErrLoginRequired = errors.New("login required")

// Route identifies a screen.
type Route struct {
	Name      string
	Param     string
	Protected bool
}

func (r Route) String() string {
	if r.Param == "" {
		return r.Name
	}
	return r.Name + "/" + r.Param
}

// Decision is the outcome of evaluating a route.
type Decision struct {
	// Render is true when the route may be shown as-is.
	Render bool
	// Redirect is where to go instead when Render is false.
	Redirect Route
	// Replace is true when the redirect must replace the current navigation
	// entry rather than push a new one.
	Replace bool
	// From is the route that was refused.
	From Route
}

// SessionState is what the guard reads from the session.
type SessionState interface {
	IsAuthenticated() bool
}

// Guard evaluates routes against the current session.
type Guard struct {
	session SessionState
	login   Route
}

// New returns a Guard that sends anonymous sessions to login.
func New(s SessionState, login Route) *Guard {
	return &Guard{session: s, login: login}
}

// Login returns the login route.
func (g *Guard) Login() Route { return g.login }

// Check decides whether r can be rendered right now. It holds no state, so
// calling it on every render observes session changes immediately.
func (g *Guard) Check(r Route) Decision {
	if !r.Protected || g.session.IsAuthenticated() {
		return Decision{Render: true}
	}
	return Decision{Redirect: g.login, Replace: true, From: r}
}

// Require is Check for callers that cannot redirect, such as one-shot
// commands. It returns an error wrapping ErrLoginRequired.
func (g *Guard) Require(r Route) error {
	if d := g.Check(r); !d.Render {
		return fmt.Errorf("%s: %w", r, ErrLoginRequired)
	}
	return nil
}
