package live

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/roeintheglasses/heimdall/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupTestHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(testLogger())
	go hub.Run(ctx)
	return hub
}

func connectWS(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	dialer := websocket.Dialer{}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect WebSocket: %v", err)
	}

	cleanup := func() {
		conn.Close()
		server.Close()
	}

	return conn, cleanup
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d clients, got %d", want, hub.ClientCount())
}

func TestHub_ClientCountStartsAtZero(t *testing.T) {
	hub := setupTestHub(t)

	if count := hub.ClientCount(); count != 0 {
		t.Errorf("expected 0 clients initially, got %d", count)
	}
}

func TestHub_WebSocketConnectAndDisconnect(t *testing.T) {
	hub := setupTestHub(t)

	conn, cleanup := connectWS(t, hub)
	defer cleanup()

	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_BroadcastReachesWebSocketClients(t *testing.T) {
	hub := setupTestHub(t)

	conn1, cleanup1 := connectWS(t, hub)
	defer cleanup1()
	conn2, cleanup2 := connectWS(t, hub)
	defer cleanup2()

	waitForClients(t, hub, 2)

	hub.Broadcast(domain.DashboardEvent{
		ID:        "evt-multi",
		EventType: "github.push",
		Title:     "Pushed 3 commits to main",
	})

	for i, conn := range []*websocket.Conn{conn1, conn2} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, message, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("client %d failed to read: %v", i+1, err)
		}
		if !strings.Contains(string(message), "evt-multi") {
			t.Errorf("client %d didn't receive broadcast: %s", i+1, message)
		}
	}
}

func TestHub_StopDisconnectsClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(testLogger())
	go hub.Run(ctx)

	conn, cleanup := connectWS(t, hub)
	defer cleanup()
	waitForClients(t, hub, 1)

	cancel()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected connection to close after hub stop")
	}
	if c := hub.join("sse"); c != nil {
		t.Error("join should fail after hub stop")
	}
}

func TestHub_InboundFramesAreIgnored(t *testing.T) {
	hub := setupTestHub(t)

	conn, cleanup := connectWS(t, hub)
	defer cleanup()
	waitForClients(t, hub, 1)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"subscribe":"all"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	hub.Broadcast(domain.DashboardEvent{ID: "evt-after-inbound"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(message), "evt-after-inbound") {
		t.Errorf("unexpected message: %s", message)
	}
	if n := hub.ClientCount(); n != 1 {
		t.Errorf("expected client to stay connected, got %d clients", n)
	}
}

func TestHub_OversizedInboundFrameDisconnects(t *testing.T) {
	hub := setupTestHub(t)

	conn, cleanup := connectWS(t, hub)
	defer cleanup()
	waitForClients(t, hub, 1)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", wsMaxInbound+1))); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitForClients(t, hub, 0)
}
