package httpapi

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/bencan1a/calendarlite/internal/logging"
)

const requestIDHeader = "X-Request-Id"

// requestIDMiddleware stamps every request with a correlation id, echoed
// back in the response header, where recoverMiddleware reads it for its
// panic log line.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware implements spec §4.6's "any uncaught handler exception
// -> 500 with error envelope, log with stack trace".
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.For("httpapi").Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Str("request_id", w.Header().Get(requestIDHeader)).
					Bytes("stack", debug.Stack()).
					Msg("unhandled panic in handler")
				writeJSONResponse(w, http.StatusInternalServerError, map[string]string{
					"error": "Internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSONResponse(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
