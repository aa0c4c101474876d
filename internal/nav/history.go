package nav

import (
	"sync"

	"github.com/alfredjeanlab/ims/internal/guard"
)

// History is a back-stack of visited routes. It is never empty.
type History struct {
	mu      sync.Mutex
	entries []guard.Route
}

// NewHistory returns a history whose only entry is start.
func NewHistory(start guard.Route) *History {
	return &History{entries: []guard.Route{start}}
}

// Current returns the top entry.
func (h *History) Current() guard.Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[len(h.entries)-1]
}

// Push adds r on top.
func (h *History) Push(r guard.Route) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, r)
}

// Replace overwrites the top entry with r, so Back will not return to the
// replaced route.
func (h *History) Replace(r guard.Route) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[len(h.entries)-1] = r
}

// Back drops the top entry and returns the new top. It reports false, and
// changes nothing, when only one entry remains.
func (h *History) Back() (guard.Route, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 1 {
		return h.entries[0], false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return h.entries[len(h.entries)-1], true
}

// Reset discards everything and starts over at r.
func (h *History) Reset(r guard.Route) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = []guard.Route{r}
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Entries returns a copy of the stack, bottom first.
func (h *History) Entries() []guard.Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]guard.Route, len(h.entries))
	copy(out, h.entries)
	return out
}
