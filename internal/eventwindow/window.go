// Package eventwindow holds the short, always-sorted slice of upcoming
// events (spec §3 EventWindow) behind a single atomic pointer, so readers
// never observe a partially-updated window and writers never block a
// reader (spec §5). This replaces the mutex-guarded slice pattern in the
// teacher's control_plane/timeline.Store with the atomic-pointer/reference
// design spec §9 calls for explicitly.
package eventwindow

import (
	"sync/atomic"
	"time"

	"github.com/bencan1a/calendarlite/internal/calendarevent"
)

// Window is an immutable snapshot. Events is the sorted, size-truncated
// slice used for next-meeting purposes; AllEvents is the same refresh
// cycle's full normalized/filtered set (bounded only by the RRULE
// expansion horizon), which the morning-summary analyzer needs since its
// 6am-noon window can fall outside the short next-meeting window (spec
// §4.11: "the full event list known to the system, not just the short
// window").
type Window struct {
	Events      []calendarevent.Event
	AllEvents   []calendarevent.Event
	LastSuccess time.Time
}

// Store holds the current Window behind an atomic pointer.
type Store struct {
	current atomic.Pointer[Window]
}

// NewStore returns a Store with an empty initial window.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&Window{Events: nil})
	return s
}

// Snapshot returns the current window reference. Callers must not mutate
// the returned slice; Window is treated as immutable once published.
func (s *Store) Snapshot() *Window {
	return s.current.Load()
}

// Swap atomically replaces the current window. This is the pipeline's
// single pointer-swap write (spec §4.4 step 8, §5 ordering guarantee).
func (s *Store) Swap(w *Window) {
	s.current.Store(w)
}

// Len returns the length of the currently published window, for the
// atomic-swap length-invariant test (spec §8).
func (s *Store) Len() int {
	return len(s.current.Load().Events)
}
