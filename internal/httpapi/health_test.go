package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bencan1a/calendarlite/internal/clock"
	"github.com/bencan1a/calendarlite/internal/refresh"
)

func TestHealthHandler_ColdStartReturns503(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	health := refresh.NewState(clock.Fixed{At: now})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	HealthHandler(health, clock.Fixed{At: now})(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Nil(t, resp.DataStatus.LastSuccessAge)
	require.Len(t, resp.BackgroundTasks, 1)
	assert.Equal(t, "stale", resp.BackgroundTasks[0].Status)
}

func TestHealthHandler_RecentSuccessReturns200(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	health := refresh.NewState(clock.Fixed{At: now})
	health.MarkAttempt()
	health.MarkSuccess(4)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	HealthHandler(health, clock.Fixed{At: now})(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, resp.DataStatus.EventCount)
	require.NotNil(t, resp.DataStatus.LastSuccessAge)
	assert.Equal(t, 0.0, *resp.DataStatus.LastSuccessAge)
	require.Len(t, resp.BackgroundTasks, 1)
	assert.Equal(t, "refresh_pipeline", resp.BackgroundTasks[0].Name)
	assert.Equal(t, "ok", resp.BackgroundTasks[0].Status)
	assert.Equal(t, runtime.GOOS, resp.SystemDiagnostics.Platform)
}
