package websocket

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/satriahrh/lisan/internal/metrics"
)

func setupTestHub(t testing.TB) *Hub {
	t.Helper()
	hub := NewHub(newStubRecognizer(), testRelayConfig(), metrics.New(), zap.NewNop())
	t.Cleanup(hub.Shutdown)
	return hub
}

func newFakeClient(hub *Hub, clientID, connID string) *Client {
	ctx, cancel := context.WithCancel(hub.ctx)
	return &Client{
		hub:      hub,
		send:     make(chan WriteData, 256),
		clientID: clientID,
		connID:   connID,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		logger:   hub.logger,
	}
}

func isClosed(c *Client) bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func TestHub_NewHub(t *testing.T) {
	hub := setupTestHub(t)

	if hub.clients == nil {
		t.Error("Hub clients map not initialized")
	}
	if hub.Count() != 0 {
		t.Errorf("Expected empty hub, got %d clients", hub.Count())
	}
	if hub.Recognizer() == nil {
		t.Error("Hub recognizer not set")
	}
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := setupTestHub(t)
	client := newFakeClient(hub, "c1", "conn-1")

	hub.register(client)

	got, ok := hub.Get("c1")
	if !ok || got != client {
		t.Fatal("Registered client should be retrievable")
	}
	if testutil.ToFloat64(hub.metrics.ActiveConnections) != 1 {
		t.Error("Expected active connections gauge at 1")
	}

	if !hub.unregister(client) {
		t.Error("unregister should report removal")
	}
	if hub.Has("c1") {
		t.Error("Client should be absent after unregister")
	}
	if hub.unregister(client) {
		t.Error("Second unregister should be a no-op")
	}
	if testutil.ToFloat64(hub.metrics.ActiveConnections) != 0 {
		t.Error("Expected active connections gauge back at 0")
	}
}

func TestHub_RegisterReplacesSameIdentifier(t *testing.T) {
	hub := setupTestHub(t)
	first := newFakeClient(hub, "c1", "conn-1")
	second := newFakeClient(hub, "c1", "conn-2")

	hub.register(first)
	hub.register(second)

	if hub.Count() != 1 {
		t.Fatalf("Expected one entry per identifier, got %d", hub.Count())
	}
	if got, _ := hub.Get("c1"); got != second {
		t.Error("Newer connection should own the identifier")
	}
	if !isClosed(first) {
		t.Error("Replaced connection should be closed")
	}
	if first.closeCode != CloseReplaced {
		t.Errorf("Expected close code %d, got %d", CloseReplaced, first.closeCode)
	}

	// The replaced connection's teardown must not evict the newer one.
	if hub.unregister(first) {
		t.Error("Stale unregister should not remove the newer entry")
	}
	if got, _ := hub.Get("c1"); got != second {
		t.Error("Newer connection should still be registered")
	}
	if testutil.ToFloat64(hub.metrics.ActiveConnections) != 1 {
		t.Error("Replacement should not change the active connections gauge")
	}
}

func TestHub_Remove(t *testing.T) {
	hub := setupTestHub(t)
	client := newFakeClient(hub, "c1", "conn-1")
	hub.register(client)

	if !hub.Remove("c1") {
		t.Error("Remove should report removal of a registered client")
	}
	if hub.Has("c1") {
		t.Error("Client should be absent after Remove")
	}
	if !isClosed(client) {
		t.Error("Removed client should be closed")
	}
	if hub.Remove("c1") {
		t.Error("Remove of an absent identifier should be a no-op")
	}
	if hub.Remove("never-registered") {
		t.Error("Remove of an unknown identifier should be a no-op")
	}
}

func TestHub_Shutdown(t *testing.T) {
	hub := setupTestHub(t)
	c1 := newFakeClient(hub, "c1", "conn-1")
	c2 := newFakeClient(hub, "c2", "conn-2")
	hub.register(c1)
	hub.register(c2)

	hub.Shutdown()

	if hub.Count() != 0 {
		t.Errorf("Expected no clients after shutdown, got %d", hub.Count())
	}
	if !isClosed(c1) || !isClosed(c2) {
		t.Error("Every client should be closed on shutdown")
	}
	if c1.closeCode != closeGoingAway {
		t.Errorf("Expected going-away close code, got %d", c1.closeCode)
	}
	if c1.ctx.Err() == nil {
		t.Error("Connection contexts should be cancelled on shutdown")
	}
}

func TestClient_EnqueueAfterClose(t *testing.T) {
	hub := setupTestHub(t)
	client := newFakeClient(hub, "c1", "conn-1")
	client.send = make(chan WriteData)

	client.close(closeNormal, "")
	client.close(closeGoingAway, "ignored")

	if client.enqueue(textFrame("late")) {
		t.Error("enqueue should fail once the client is closed")
	}
	if client.closeCode != closeNormal {
		t.Errorf("First close code should win, got %d", client.closeCode)
	}
}
