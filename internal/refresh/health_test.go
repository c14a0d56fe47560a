package refresh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bencan1a/calendarlite/internal/clock"
)

func TestState_DegradedOnColdStart(t *testing.T) {
	c := &movableClock{at: time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)}
	state := NewState(c)

	snap := state.Snapshot()
	assert.True(t, snap.Degraded(c.at))
	assert.True(t, snap.HeartbeatStale(c.at))
}

func TestState_HealthyAfterRecentSuccess(t *testing.T) {
	c := &movableClock{at: time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)}
	state := NewState(c)

	state.MarkAttempt()
	state.MarkSuccess(5)

	snap := state.Snapshot()
	assert.False(t, snap.Degraded(c.at))
	assert.False(t, snap.HeartbeatStale(c.at))
	assert.Equal(t, 5, snap.CurrentEventCount)
}

func TestState_DegradedAfterStaleSuccess(t *testing.T) {
	c := &movableClock{at: time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)}
	state := NewState(c)
	state.MarkAttempt()
	state.MarkSuccess(3)

	c.at = c.at.Add(DegradedAfter + time.Minute)
	snap := state.Snapshot()
	assert.True(t, snap.Degraded(c.at))
}

func TestState_LastSuccessNeverRewinds(t *testing.T) {
	c := &movableClock{at: time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)}
	state := NewState(c)
	state.MarkSuccess(1)

	later := state.Snapshot().LastSuccess
	c.at = c.at.Add(-time.Hour)
	state.MarkSuccess(2)

	assert.Equal(t, later, state.Snapshot().LastSuccess)
}

type movableClock struct {
	at time.Time
}

func (m *movableClock) Now() time.Time { return m.at }

var _ clock.Source = (*movableClock)(nil)
