package httpapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bencan1a/calendarlite/internal/calendarevent"
	"github.com/bencan1a/calendarlite/internal/clock"
	"github.com/bencan1a/calendarlite/internal/eventwindow"
	"github.com/bencan1a/calendarlite/internal/refresh"
)

func TestDashboardSource_SnapshotIncludesHealthAndEvents(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	health := refresh.NewState(clock.Fixed{At: now})
	health.MarkAttempt()
	health.MarkSuccess(1)

	window := eventwindow.NewStore()
	window.Swap(&eventwindow.Window{
		Events: []calendarevent.Event{{MeetingID: "m1", Subject: "Standup", Start: now.Add(time.Hour), DurationSeconds: 900}},
	})

	source := &DashboardSource{Health: health, Window: window, Clock: clock.Fixed{At: now}}
	snap, ok := source.Snapshot().(dashboardSnapshot)
	require.True(t, ok)

	assert.Equal(t, "ok", snap.Status)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "Standup", snap.Events[0].Subject)
}

func TestDashboardSource_SnapshotWithEmptyWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	health := refresh.NewState(clock.Fixed{At: now})
	window := eventwindow.NewStore()

	source := &DashboardSource{Health: health, Window: window, Clock: clock.Fixed{At: now}}
	snap, ok := source.Snapshot().(dashboardSnapshot)
	require.True(t, ok)
	assert.Empty(t, snap.Events)
	assert.Equal(t, "degraded", snap.Status)
}
