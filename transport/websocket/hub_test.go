package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/mcp-training/minesweeper/game/engine"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, engine.WebSocketBufferSize),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func dial(t *testing.T, hub *Hub, sessionID string) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met in time")
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if cap(hub.broadcast) != engine.WebSocketBufferSize {
		t.Errorf("Expected broadcast buffer %d, got %d", engine.WebSocketBufferSize, cap(hub.broadcast))
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	a := newTestClient(hub, "abcd")
	b := newTestClient(hub, "abcd")

	hub.registerClient(a)
	hub.registerClient(b)
	if hub.ClientCount("ABCD") != 2 {
		t.Errorf("Expected 2 clients, got %d", hub.ClientCount("ABCD"))
	}

	hub.unregisterClient(a)
	if _, ok := <-a.send; ok {
		t.Error("Expected send channel to be closed")
	}
	if hub.ClientCount("abcd") != 1 {
		t.Errorf("Expected 1 client, got %d", hub.ClientCount("abcd"))
	}

	// Unregistering twice is a no-op
	hub.unregisterClient(a)

	hub.unregisterClient(b)
	if _, exists := hub.sessions["abcd"]; exists {
		t.Error("Empty session should be removed")
	}
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub()
	watcher := newTestClient(hub, "s1")
	other := newTestClient(hub, "s2")
	hub.registerClient(watcher)
	hub.registerClient(other)

	view := engine.NewEngineWithDefaults().View()
	hub.broadcastMessage(&Message{SessionID: "S1", Game: view, Event: EventStateUpdate})

	select {
	case data := <-watcher.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if msg.Event != EventStateUpdate || msg.Game == nil || msg.Game.Size != 8 {
			t.Errorf("Unexpected message %+v", msg)
		}
	default:
		t.Fatal("Expected a message for the watching client")
	}

	select {
	case <-other.send:
		t.Error("Client of another session should not receive the message")
	default:
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, sessionID: "s1", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "s1", Event: EventTick})

	if hub.ClientCount("s1") != 0 {
		t.Error("Expected the slow client to be dropped")
	}
}

func TestHubEnqueueDoesNotBlock(t *testing.T) {
	hub := NewHub()

	// No Run loop: the queue fills and further messages are dropped
	for i := 0; i < engine.WebSocketBufferSize+10; i++ {
		hub.BroadcastEvent("s1", EventTick, TickData{ElapsedSeconds: i})
	}
	if len(hub.broadcast) != engine.WebSocketBufferSize {
		t.Errorf("Expected a full queue, got %d", len(hub.broadcast))
	}
}

func TestWebSocketStateUpdate(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, "ws01")

	waitFor(t, func() bool { return hub.ClientCount("ws01") == 1 })

	eng, _ := engine.NewEngine(engine.GameConfig{Size: 2, MineCount: 1}, engine.WithMines([]int{3}))
	eng.Reveal(0)
	hub.BroadcastToSession("WS01", eng.View())

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.SessionID != "WS01" || msg.Event != EventStateUpdate {
		t.Errorf("Unexpected message header %+v", msg)
	}
	if msg.Game == nil || msg.Game.Rows[0] != "1#" {
		t.Errorf("Unexpected board in message: %+v", msg.Game)
	}
}

func TestWebSocketTickEvent(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, "tick")

	waitFor(t, func() bool { return hub.ClientCount("tick") == 1 })
	hub.BroadcastEvent("tick", EventTick, TickData{ElapsedSeconds: 7})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg struct {
		Event string   `json:"event"`
		Data  TickData `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read tick: %v", err)
	}
	if msg.Event != EventTick || msg.Data.ElapsedSeconds != 7 {
		t.Errorf("Unexpected tick %+v", msg)
	}
}

func TestWebSocketDisconnect(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, "gone")

	waitFor(t, func() bool { return hub.ClientCount("gone") == 1 })
	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount("gone") == 0 })
}

func TestHubRunStopsOnCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	client := newTestClient(hub, "s1")
	hub.register <- client
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected nil error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if hub.ClientCount("s1") != 0 {
		t.Error("Expected clients to be closed on shutdown")
	}
}
