package httpapi

import (
	"time"

	"github.com/bencan1a/calendarlite/internal/calendarevent"
	"github.com/bencan1a/calendarlite/internal/clock"
	"github.com/bencan1a/calendarlite/internal/eventwindow"
	"github.com/bencan1a/calendarlite/internal/refresh"
)

// dashboardEventPayload is the window entry shape broadcast to dashboard
// clients: just enough to render a list, no internal fields.
type dashboardEventPayload struct {
	MeetingID string `json:"meeting_id"`
	Subject   string `json:"subject"`
	StartISO  string `json:"start_iso"`
	EndISO    string `json:"end_iso"`
	Location  string `json:"location,omitempty"`
}

type dashboardSnapshot struct {
	healthResponse
	Events []dashboardEventPayload `json:"events"`
}

// DashboardSource implements dashboardhub.Snapshotter: the health response
// shape (spec §4.12) plus the current event window.
type DashboardSource struct {
	Health *refresh.State
	Window *eventwindow.Store
	Clock  clock.Source
}

// Snapshot builds the combined health+window payload broadcast by the
// Dashboard Hub.
func (d *DashboardSource) Snapshot() interface{} {
	now := d.Clock.Now()
	health, _ := buildHealthResponse(d.Health, now)

	win := d.Window.Snapshot()
	events := make([]dashboardEventPayload, 0, len(win.Events))
	for _, ev := range win.Events {
		events = append(events, toDashboardEventPayload(ev))
	}

	return dashboardSnapshot{healthResponse: health, Events: events}
}

func toDashboardEventPayload(ev calendarevent.Event) dashboardEventPayload {
	return dashboardEventPayload{
		MeetingID: ev.MeetingID,
		Subject:   ev.Subject,
		StartISO:  ev.Start.UTC().Format(time.RFC3339),
		EndISO:    ev.End().UTC().Format(time.RFC3339),
		Location:  ev.Location,
	}
}
