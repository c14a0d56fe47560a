// Package dashboardhub is the Dashboard Hub (SPEC_FULL.md §4.12
// expansion): a WebSocket broadcast loop pushing the current window/health
// snapshot to connected dashboard clients, adapted from
// control_plane/ws_hub.go's register/unregister/broadcast-loop shape. The
// teacher's hub is per-tenant; calendarlite has exactly one "tenant" (the
// single device), so the tenant map collapses to one client set.
package dashboardhub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxClients        = 20
	heartbeatInterval = 5 * time.Second
	writeTimeout      = 5 * time.Second
)

// Snapshotter produces the JSON payload broadcast to every client.
type Snapshotter interface {
	Snapshot() interface{}
}

// Hub manages WebSocket connections and periodically broadcasts the
// current snapshot.
type Hub struct {
	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
	source     Snapshotter
}

// New constructs a Hub that reads payloads from source.
func New(source Snapshotter) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		source:     source,
	}
}

// Run is the hub's main loop: register/unregister handling plus a
// heartbeat-interval broadcast (SPEC_FULL.md §4.12: "once per refresh
// cycle and on a 5s heartbeat" — the refresh-cycle push comes via
// BroadcastNow, this loop covers the heartbeat).
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case conn := <-h.register:
			h.addClient(conn)
		case conn := <-h.unregister:
			h.removeClient(conn)
		case <-ticker.C:
			h.BroadcastNow()
		}
	}
}

func (h *Hub) addClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) >= maxClients {
		conn.Close()
		return
	}
	h.clients[conn] = struct{}{}
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// BroadcastNow immediately pushes the current snapshot to every client,
// called by the refresh pipeline on each completed cycle.
func (h *Hub) BroadcastNow() {
	payload, err := json.Marshal(h.source.Snapshot())
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			go h.Unregister(conn)
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
}

// Register adds a new client connection.
func (h *Hub) Register(conn *websocket.Conn) {
	h.register <- conn
}

// Unregister removes a client connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.unregister <- conn
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
