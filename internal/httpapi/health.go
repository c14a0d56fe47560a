package httpapi

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/bencan1a/calendarlite/internal/clock"
	"github.com/bencan1a/calendarlite/internal/refresh"
)

// serverStatusPayload is §6's server_status object: process uptime and pid.
type serverStatusPayload struct {
	UptimeSeconds float64 `json:"uptime_s"`
	PID           int     `json:"pid"`
}

// dataStatusPayload is §6's data_status object: current window size and how
// long ago the last successful refresh cycle completed. LastSuccessAge is nil
// until the first successful cycle.
type dataStatusPayload struct {
	EventCount     int      `json:"event_count"`
	LastSuccessAge *float64 `json:"last_refresh_success_age_s"`
}

// backgroundTaskPayload is one entry of §6's background_tasks list.
type backgroundTaskPayload struct {
	Name              string  `json:"name"`
	Status            string  `json:"status"`
	LastHeartbeatAgeS float64 `json:"last_heartbeat_age_s"`
}

// systemDiagnosticsPayload is §6's system_diagnostics object.
type systemDiagnosticsPayload struct {
	Platform         string `json:"platform"`
	RuntimeVersion   string `json:"runtime_version"`
	EventLoopRunning bool   `json:"event_loop_running"`
}

// healthResponse is the nested envelope spec §6 mandates for /api/health.
type healthResponse struct {
	Status            string                   `json:"status"`
	ServerTimeISO     string                   `json:"server_time_iso"`
	ServerStatus      serverStatusPayload      `json:"server_status"`
	DataStatus        dataStatusPayload        `json:"data_status"`
	BackgroundTasks   []backgroundTaskPayload  `json:"background_tasks"`
	SystemDiagnostics systemDiagnosticsPayload `json:"system_diagnostics"`
}

// HealthHandler reports 200 when healthy, 503 when degraded per spec §4.12.
func HealthHandler(health *refresh.State, c clock.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, degraded := buildHealthResponse(health, c.Now())
		status := http.StatusOK
		if degraded {
			status = http.StatusServiceUnavailable
		}
		writeJSONResponse(w, status, resp)
	}
}

func buildHealthResponse(health *refresh.State, now time.Time) (healthResponse, bool) {
	snap := health.Snapshot()
	degraded := snap.Degraded(now)
	stale := snap.HeartbeatStale(now)

	status := "ok"
	if degraded {
		status = "degraded"
	}

	var lastSuccessAge *float64
	if !snap.LastSuccess.IsZero() {
		age := now.Sub(snap.LastSuccess).Seconds()
		lastSuccessAge = &age
	}

	heartbeatAge := 0.0
	if !snap.BackgroundHeartbeat.IsZero() {
		heartbeatAge = now.Sub(snap.BackgroundHeartbeat).Seconds()
	}
	taskStatus := "ok"
	if stale {
		taskStatus = "stale"
	}

	resp := healthResponse{
		Status:        status,
		ServerTimeISO: now.UTC().Format(time.RFC3339),
		ServerStatus: serverStatusPayload{
			UptimeSeconds: now.Sub(snap.ServerStart).Seconds(),
			PID:           os.Getpid(),
		},
		DataStatus: dataStatusPayload{
			EventCount:     snap.CurrentEventCount,
			LastSuccessAge: lastSuccessAge,
		},
		BackgroundTasks: []backgroundTaskPayload{
			{
				Name:              "refresh_pipeline",
				Status:            taskStatus,
				LastHeartbeatAgeS: heartbeatAge,
			},
		},
		SystemDiagnostics: systemDiagnosticsPayload{
			Platform:         runtime.GOOS,
			RuntimeVersion:   runtime.Version(),
			EventLoopRunning: !stale,
		},
	}
	return resp, degraded || stale
}
