package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/bencan1a/calendarlite/internal/apperrors"
	"github.com/bencan1a/calendarlite/internal/logging"
	"github.com/bencan1a/calendarlite/internal/skipstore"
)

type skipRequest struct {
	MeetingID string `json:"meeting_id"`
}

type skipResponse struct {
	MeetingID string `json:"meeting_id"`
	ExpiresAt string `json:"expires_at"`
}

type clearSkipsResponse struct {
	Cleared int `json:"cleared"`
}

// SkipHandler implements POST /api/skip (spec §4.3/§6): body
// {"meeting_id": "..."} adds a 24h skip entry.
func SkipHandler(skips *skipstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req skipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MeetingID == "" {
			verr := apperrors.New("httpapi.SkipHandler", apperrors.KindValidation, apperrors.ErrValidation)
			logging.For("httpapi").Warn().Err(verr).Msg("rejected skip request")
			writeJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "meeting_id is required"})
			return
		}

		expiry, err := skips.AddSkip(req.MeetingID)
		if err != nil {
			logging.For("httpapi").Error().Err(err).Str("meeting_id", req.MeetingID).Msg("failed to persist skip")
			writeJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			return
		}
		writeJSONResponse(w, http.StatusOK, skipResponse{MeetingID: req.MeetingID, ExpiresAt: expiry})
	}
}

// ClearSkipsHandler implements DELETE /api/skip: wipe every skip entry.
func ClearSkipsHandler(skips *skipstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := skips.ClearAll()
		if err != nil {
			writeJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			return
		}
		writeJSONResponse(w, http.StatusOK, clearSkipsResponse{Cleared: count})
	}
}

// ClearSkipsAndRefreshHandler implements the convenience GET
// /api/clear_skips: clear all skips then force an immediate refresh cycle.
func ClearSkipsAndRefreshHandler(skips *skipstore.Store, forceRefresh func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := skips.ClearAll()
		if err != nil {
			writeJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			return
		}
		if forceRefresh != nil {
			go forceRefresh()
		}
		writeJSONResponse(w, http.StatusOK, clearSkipsResponse{Cleared: count})
	}
}
