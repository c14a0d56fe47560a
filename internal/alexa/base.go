// Package alexa implements the Alexa Handler Base and the handlers built
// on it (spec §4.6-§4.11): bearer auth, a window snapshot, and a shared
// error envelope, adapted from control_plane/middleware/auth.go's
// "Bearer <token>" header parsing but swapped from JWT validation to a
// constant-time static-token compare.
package alexa

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bencan1a/calendarlite/internal/apperrors"
	"github.com/bencan1a/calendarlite/internal/eventwindow"
	"github.com/bencan1a/calendarlite/internal/logging"
	"github.com/bencan1a/calendarlite/internal/skipstore"
)

// Base carries the shared dependencies every Alexa handler needs.
type Base struct {
	BearerToken string
	Window      *eventwindow.Store
	Skips       *skipstore.Store
}

// errorEnvelope is the {error, message?} shape from spec §4.6.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Authenticate enforces the bearer check. When BearerToken is empty, all
// requests are accepted (spec §4.6 "otherwise accept all"). Returns false
// and writes a 401 envelope when auth fails.
func (b *Base) Authenticate(w http.ResponseWriter, r *http.Request) bool {
	if b.BearerToken == "" {
		return true
	}

	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		writeUnauthorized(w)
		return false
	}

	presented := header[len(prefix):]
	if subtle.ConstantTimeCompare([]byte(presented), []byte(b.BearerToken)) != 1 {
		writeUnauthorized(w)
		return false
	}
	return true
}

func writeUnauthorized(w http.ResponseWriter) {
	err := apperrors.New("alexa.Authenticate", apperrors.KindAuthentication, apperrors.ErrUnauthorized)
	logging.For("alexa").Warn().Err(err).Msg("rejected request")
	writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: "Unauthorized"})
}

// WriteInternalError writes the 500 envelope and logs err with context.
func WriteInternalError(w http.ResponseWriter, op string, err error) {
	logging.For("alexa").Error().Err(err).Str("op", op).Msg("handler error")
	writeJSON(w, http.StatusInternalServerError, errorEnvelope{
		Error:   "Internal server error",
		Message: err.Error(),
	})
}

// Snapshot returns the current window reference (spec §4.6 "acquire window
// lock, copy window reference, release").
func (b *Base) Snapshot() *eventwindow.Window {
	return b.Window.Snapshot()
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
