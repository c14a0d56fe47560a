package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/bencan1a/calendarlite/internal/dashboardhub"
	"github.com/bencan1a/calendarlite/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades GET /api/ws into a Dashboard Hub client
// connection (spec expansion §4.12): unauthenticated, broadcast-only.
func WebSocketHandler(hub *dashboardhub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.For("httpapi").Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		hub.Register(conn)
		go drainClient(hub, conn)
	}
}

// drainClient discards any client-sent frames (the hub is broadcast-only)
// until the connection closes, then unregisters it.
func drainClient(hub *dashboardhub.Hub, conn *websocket.Conn) {
	defer hub.Unregister(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// dashboardHandler serves spec §6's static HTML dashboard at GET /.
func dashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, "web/index.html")
	}
}
