package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/mcp-training/gridplanner/game/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	broadcastBuffer = 256
	clientBuffer    = 256
)

// Event names carried by Message.Event.
const (
	EventSolved   = "solved"
	EventNoPlan   = "no_plan"
	EventTooLarge = "state_space_too_large"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the JSON document pushed to subscribers of a level.
type Message struct {
	Level   string             `json:"level"`
	RunID   string             `json:"run_id,omitempty"`
	Event   string             `json:"event"`
	Message string             `json:"message,omitempty"`
	View    *engine.RenderView `json:"view,omitempty"`
	Lines   []string           `json:"lines,omitempty"`
}

// Client represents a WebSocket subscriber
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	level string
}

// Hub fans solve results out to the clients watching each level
type Hub struct {
	// Subscribed clients by level
	levels map[string]map[*Client]bool
	mu     sync.RWMutex

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		levels:     make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// ServeWS upgrades the request and subscribes the connection to level
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, level string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, clientBuffer),
		level: level,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// BroadcastView queues a rendered solve result for the subscribers of level.
// The message is dropped with a log line when the queue is full.
func (h *Hub) BroadcastView(level, runID, event, text string, view engine.RenderView) {
	message := &Message{
		Level:   level,
		RunID:   runID,
		Event:   event,
		Message: text,
		View:    &view,
		Lines:   view.Lines(),
	}

	select {
	case h.broadcast <- message:
	default:
		log.Printf("Warning: broadcast queue full, dropping %s update for level %s", event, level)
	}
}

// ClientCount returns the number of clients subscribed to level
func (h *Hub) ClientCount(level string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.levels[level])
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.levels[client.level] == nil {
		h.levels[client.level] = make(map[*Client]bool)
	}
	h.levels[client.level][client] = true

	log.Printf("Client subscribed to level %s (total clients: %d)",
		client.level, len(h.levels[client.level]))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// removeLocked drops client and closes its send channel. h.mu must be held.
func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.levels[client.level]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.levels, client.level)
	}

	log.Printf("Client unsubscribed from level %s (remaining clients: %d)",
		client.level, len(clients))
}

func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal broadcast message: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.levels[message.Level] {
		select {
		case client.send <- data:
		default:
			// Slow client, drop it
			h.removeLocked(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.levels {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// readPump keeps the connection alive and notices when the peer goes away
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Subscribers only listen; inbound frames are discarded
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump sends queued messages, one JSON document per frame
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
