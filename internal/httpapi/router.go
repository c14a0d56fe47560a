// Package httpapi wires together the HTTP surface (spec §6): the Alexa
// handler suite, the non-Alexa JSON endpoints, the Prometheus exposition
// endpoint, and the Dashboard Hub WebSocket upgrade, behind a panic-recovery
// middleware grounded on control_plane's handler wrapper pattern.
package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bencan1a/calendarlite/internal/alexa"
	"github.com/bencan1a/calendarlite/internal/clock"
	"github.com/bencan1a/calendarlite/internal/config"
	"github.com/bencan1a/calendarlite/internal/dashboardhub"
	"github.com/bencan1a/calendarlite/internal/eventwindow"
	"github.com/bencan1a/calendarlite/internal/morningsummary"
	"github.com/bencan1a/calendarlite/internal/refresh"
	"github.com/bencan1a/calendarlite/internal/skipstore"
)

// Deps carries every dependency the router wires into handlers.
type Deps struct {
	Config       config.Config
	Clock        clock.Source
	Window       *eventwindow.Store
	Skips        *skipstore.Store
	Health       *refresh.State
	Cache        *morningsummary.Cache
	Hub          *dashboardhub.Hub
	ForceRefresh func()
}

// NewRouter builds the complete route table from spec §6 plus the
// dashboard/metrics expansion routes.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	base := &alexa.Base{
		BearerToken: d.Config.AlexaBearerToken,
		Window:      d.Window,
		Skips:       d.Skips,
	}

	mux.HandleFunc("GET /", dashboardHandler())
	mux.HandleFunc("GET /api/health", HealthHandler(d.Health, d.Clock))
	mux.HandleFunc("GET /api/whats-next", alexa.WhatsNextHandler(base, d.Clock))
	mux.HandleFunc("POST /api/skip", SkipHandler(d.Skips))
	mux.HandleFunc("DELETE /api/skip", ClearSkipsHandler(d.Skips))
	mux.HandleFunc("GET /api/clear_skips", ClearSkipsAndRefreshHandler(d.Skips, d.ForceRefresh))

	mux.HandleFunc("GET /api/alexa/next-meeting", alexa.NextMeetingHandler(base, d.Clock))
	mux.HandleFunc("GET /api/alexa/time-until-next", alexa.TimeUntilHandler(base, d.Clock))
	mux.HandleFunc("GET /api/alexa/done-for-day", alexa.DoneForDayHandler(base, d.Clock))
	mux.HandleFunc("GET /api/alexa/launch-summary", alexa.LaunchSummaryHandler(base, d.Clock))
	mux.HandleFunc("GET /api/alexa/morning-summary", alexa.MorningSummaryHandler(base, d.Clock, d.Cache))

	if d.Config.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}
	if d.Config.DashboardWSEnabled && d.Hub != nil {
		mux.HandleFunc("GET /api/ws", WebSocketHandler(d.Hub))
	}

	return requestIDMiddleware(recoverMiddleware(mux))
}
