package nav

import (
	"errors"
	"log/slog"

	"github.com/alfredjeanlab/ims/internal/gateway"
	"github.com/alfredjeanlab/ims/internal/guard"
)

// Redirect describes a navigation the coordinator performed on its own.
type Redirect struct {
	From   guard.Route
	To     guard.Route
	Reason string
}

// Redirect reasons.
const (
	ReasonLoginRequired  = "login_required"
	ReasonSessionExpired = "session_expired"
)

// Coordinator is the one place that turns guard decisions and expired
// sessions into navigation. Screens never redirect by themselves.
type Coordinator struct {
	history *History
	guard   *guard.Guard
	logger  *slog.Logger

	// OnRedirect, when set, is called after every redirect.
	OnRedirect func(Redirect)
}

// NewCoordinator wires a history to a guard.
func NewCoordinator(h *History, g *guard.Guard, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{history: h, guard: g, logger: logger}
}

// History returns the navigation history.
func (c *Coordinator) History() *History { return c.history }

// Navigate pushes r and resolves it against the guard, returning the route
// that should actually be rendered.
func (c *Coordinator) Navigate(r guard.Route) guard.Route {
	c.history.Push(r)
	return c.Resolve()
}

// Replace replaces the current entry with r and resolves it.
func (c *Coordinator) Replace(r guard.Route) guard.Route {
	c.history.Replace(r)
	return c.Resolve()
}

// Back pops the current entry and resolves the one underneath.
func (c *Coordinator) Back() (guard.Route, bool) {
	if _, ok := c.history.Back(); !ok {
		return c.history.Current(), false
	}
	return c.Resolve(), true
}

// Resolve evaluates the current entry. A refused route is replaced by the
// guard's redirect target. Call it before every render.
func (c *Coordinator) Resolve() guard.Route {
	cur := c.history.Current()
	d := c.guard.Check(cur)
	if d.Render {
		return cur
	}
	c.redirect(d, ReasonLoginRequired)
	return c.history.Current()
}

// Handle absorbs session-expiry errors: the current entry is replaced by the
// login screen and Handle reports true, so the caller must not show its own
// message. Any other error is left to the caller.
func (c *Coordinator) Handle(err error) bool {
	if err == nil || !errors.Is(err, gateway.ErrAuthExpired) {
		return false
	}
	cur := c.history.Current()
	c.redirect(guard.Decision{Redirect: c.guard.Login(), Replace: true, From: cur}, ReasonSessionExpired)
	return true
}

func (c *Coordinator) redirect(d guard.Decision, reason string) {
	if d.Replace {
		c.history.Replace(d.Redirect)
	} else {
		c.history.Push(d.Redirect)
	}
	c.logger.Debug("redirect", "from", d.From.String(), "to", d.Redirect.String(), "reason", reason)
	if c.OnRedirect != nil {
		c.OnRedirect(Redirect{From: d.From, To: d.Redirect, Reason: reason})
	}
}
