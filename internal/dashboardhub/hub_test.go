package dashboardhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshotter struct {
	payload string
}

func (f fakeSnapshotter) Snapshot() interface{} { return f.payload }

var testUpgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func dialServerConn(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()
	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Register(conn)
		connCh <- conn
	}))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	serverConn := <-connCh
	return serverConn, func() {
		client.Close()
		srv.Close()
	}
}

func TestHub_RegisterIncreasesClientCount(t *testing.T) {
	hub := New(fakeSnapshotter{payload: "{}"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	_, cleanup := dialServerConn(t, hub)
	defer cleanup()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestHub_UnregisterDecreasesClientCount(t *testing.T) {
	hub := New(fakeSnapshotter{payload: "{}"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	serverConn, cleanup := dialServerConn(t, hub)
	defer cleanup()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Unregister(serverConn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastNowSendsSnapshotToClient(t *testing.T) {
	hub := New(fakeSnapshotter{payload: "hello-dashboard"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	// dialServerConn keeps the client side private, so dial here to read
	// what the hub writes.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Register(conn)
	}))
	defer srv.Close()
	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastNow()

	require.NoError(t, client.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `"hello-dashboard"`, string(msg))
}

func TestHub_ShutdownClosesAllClientsAndResetsCount(t *testing.T) {
	hub := New(fakeSnapshotter{payload: "{}"})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	_, cleanup := dialServerConn(t, hub)
	defer cleanup()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_AddClientRejectsBeyondMaxClients(t *testing.T) {
	hub := New(fakeSnapshotter{payload: "{}"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	for i := 0; i < maxClients; i++ {
		_, cleanup := dialServerConn(t, hub)
		defer cleanup()
	}
	require.Eventually(t, func() bool { return hub.ClientCount() == maxClients }, time.Second, 10*time.Millisecond)

	overflowConn, cleanup := dialServerConn(t, hub)
	defer cleanup()
	_ = overflowConn

	assert.Equal(t, maxClients, hub.ClientCount())
}
