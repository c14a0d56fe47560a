// Package refresh is the Refresh Pipeline (spec §4.4): it owns the
// fetch -> parse -> expand -> normalize -> filter -> sort -> swap cycle
// and the RefreshState timestamps that /api/health reports.
package refresh

import (
	"sync"
	"time"

	"github.com/bencan1a/calendarlite/internal/clock"
)

// DegradedAfter and StaleAfter are the health-check thresholds from spec §6.
const (
	DegradedAfter = 900 * time.Second
	StaleAfter    = 600 * time.Second
)

// State holds the pipeline's RefreshState timestamps (spec §3). LastSuccess
// only ever moves forward: a failed cycle never clears or rewinds it.
type State struct {
	mu                  sync.RWMutex
	clock               clock.Source
	lastAttempt         time.Time
	lastSuccess         time.Time
	backgroundHeartbeat time.Time
	currentEventCount   int
	serverStart         time.Time
}

// NewState returns a State stamped with serverStart = now.
func NewState(c clock.Source) *State {
	now := c.Now()
	return &State{clock: c, serverStart: now}
}

// MarkAttempt records the start of a refresh cycle and ticks the heartbeat.
func (s *State) MarkAttempt() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAttempt = now
	s.backgroundHeartbeat = now
}

// Heartbeat ticks the background-task liveness timestamp without implying a
// refresh attempt (used by the scheduler's idle-sleep loop).
func (s *State) Heartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backgroundHeartbeat = s.clock.Now()
}

// MarkSuccess records a successful cycle and the resulting event count.
func (s *State) MarkSuccess(eventCount int) {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.lastSuccess) {
		s.lastSuccess = now
	}
	s.currentEventCount = eventCount
}

// Snapshot is an immutable read of State for handler consumption.
type Snapshot struct {
	LastAttempt         time.Time
	LastSuccess         time.Time
	BackgroundHeartbeat time.Time
	CurrentEventCount   int
	ServerStart         time.Time
}

// Snapshot returns the current state under a read lock.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		LastAttempt:         s.lastAttempt,
		LastSuccess:         s.lastSuccess,
		BackgroundHeartbeat: s.backgroundHeartbeat,
		CurrentEventCount:   s.currentEventCount,
		ServerStart:         s.serverStart,
	}
}

// Degraded reports whether the service should report degraded health: no
// successful refresh yet, or the last one is older than DegradedAfter.
func (snap Snapshot) Degraded(now time.Time) bool {
	if snap.LastSuccess.IsZero() {
		return true
	}
	return now.Sub(snap.LastSuccess) > DegradedAfter
}

// HeartbeatStale reports whether the background task looks stuck.
func (snap Snapshot) HeartbeatStale(now time.Time) bool {
	if snap.BackgroundHeartbeat.IsZero() {
		return true
	}
	return now.Sub(snap.BackgroundHeartbeat) > StaleAfter
}
