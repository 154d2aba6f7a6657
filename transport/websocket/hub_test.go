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
	"github.com/wricardo/mcp-training/gridplanner/game/engine"
)

func testView(t *testing.T) engine.RenderView {
	t.Helper()
	p, err := engine.ParseLayout([]string{"#####", "#@$.#", "#####"})
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	path := engine.Path{Origin: p.Agent, Directions: []engine.Action{engine.East}}
	return engine.NewRenderView(p, &path)
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
	t.Fatal("condition not met within timeout")
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub.levels == nil {
		t.Error("Hub levels map is nil")
	}
	if cap(hub.broadcast) != broadcastBuffer {
		t.Errorf("Expected broadcast buffer %d, got %d", broadcastBuffer, cap(hub.broadcast))
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("Hub register channels are nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()

	client := &Client{hub: hub, level: "corridor", send: make(chan []byte, clientBuffer)}
	hub.registerClient(client)

	if !hub.levels["corridor"][client] {
		t.Error("Client was not registered for level")
	}
	if hub.ClientCount("corridor") != 1 {
		t.Errorf("Expected 1 client, got %d", hub.ClientCount("corridor"))
	}

	hub.unregisterClient(client)
	if _, exists := hub.levels["corridor"]; exists {
		t.Error("Level should have been cleaned up after last client left")
	}
	if _, ok := <-client.send; ok {
		t.Error("Expected send channel to be closed")
	}

	// Unregistering twice is a no-op
	hub.unregisterClient(client)
}

func TestHubMultipleClientsPerLevel(t *testing.T) {
	hub := NewHub()
	client1 := &Client{hub: hub, level: "open", send: make(chan []byte, clientBuffer)}
	client2 := &Client{hub: hub, level: "open", send: make(chan []byte, clientBuffer)}
	other := &Client{hub: hub, level: "corridor", send: make(chan []byte, clientBuffer)}

	hub.registerClient(client1)
	hub.registerClient(client2)
	hub.registerClient(other)

	if hub.ClientCount("open") != 2 || hub.ClientCount("corridor") != 1 {
		t.Fatalf("Unexpected counts open=%d corridor=%d", hub.ClientCount("open"), hub.ClientCount("corridor"))
	}

	hub.unregisterClient(client1)
	if hub.ClientCount("open") != 1 || !hub.levels["open"][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub()
	watcher := &Client{hub: hub, level: "corridor", send: make(chan []byte, clientBuffer)}
	bystander := &Client{hub: hub, level: "open", send: make(chan []byte, clientBuffer)}
	hub.registerClient(watcher)
	hub.registerClient(bystander)

	view := testView(t)
	hub.broadcastMessage(&Message{Level: "corridor", Event: EventSolved, View: &view, Lines: view.Lines()})

	select {
	case data := <-watcher.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.Level != "corridor" || message.Event != EventSolved {
			t.Errorf("Unexpected message %+v", message)
		}
		if message.View == nil || message.View.Agent != (engine.Cell{X: 1, Y: 1}) {
			t.Errorf("View not transmitted: %+v", message.View)
		}
		if len(message.Lines) == 0 {
			t.Error("Expected rendered lines")
		}
	default:
		t.Fatal("No message delivered to level subscriber")
	}

	select {
	case <-bystander.send:
		t.Error("Client of another level received the broadcast")
	default:
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, level: "corridor", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{Level: "corridor", Event: EventNoPlan})

	if hub.ClientCount("corridor") != 0 {
		t.Error("Expected slow client to be dropped")
	}
}

func TestHubBroadcastViewQueues(t *testing.T) {
	hub := NewHub()

	hub.BroadcastView("corridor", "run-1", EventSolved, "Path found: (1,1) E", testView(t))

	select {
	case message := <-hub.broadcast:
		if message.RunID != "run-1" || message.Message != "Path found: (1,1) E" {
			t.Errorf("Unexpected queued message %+v", message)
		}
	default:
		t.Fatal("Expected message on broadcast queue")
	}

	// A full queue drops instead of blocking
	for i := 0; i < broadcastBuffer+10; i++ {
		hub.BroadcastView("corridor", "", EventSolved, "", testView(t))
	}
	if len(hub.broadcast) != broadcastBuffer {
		t.Errorf("Expected full queue of %d, got %d", broadcastBuffer, len(hub.broadcast))
	}
}

func newTestServer(t *testing.T, hub *Hub) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("level"))
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebSocketSubscribe(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	wsURL := newTestServer(t, hub) + "?level=ws-test"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}

	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 0 })
}

func TestWebSocketReceivesView(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	wsURL := newTestServer(t, hub) + "?level=msg-test"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount("msg-test") == 1 })

	hub.BroadcastView("msg-test", "run-9", EventSolved, "Path found: (1,1) E", testView(t))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if message.Level != "msg-test" || message.RunID != "run-9" {
		t.Errorf("Unexpected message %+v", message)
	}
	if message.View == nil || message.View.Path == nil || message.View.Path.Len() != 1 {
		t.Errorf("Expected path overlay in view, got %+v", message.View)
	}
}

func TestHubRunStops(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	client := &Client{hub: hub, level: "corridor", send: make(chan []byte, clientBuffer)}
	hub.register <- client
	cancel()

	select {
	case <-hub.done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if hub.ClientCount("corridor") != 0 {
		t.Error("Expected clients to be closed on shutdown")
	}
}
