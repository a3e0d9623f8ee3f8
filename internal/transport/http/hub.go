package http

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection. A client belongs to at most one room
// at a time.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
}

func newClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		send: make(chan []byte, 32),
	}
}

// writePump drains the send channel onto the connection so only one
// goroutine ever writes to the socket.
func (c *Client) writePump() {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}

// Hub tracks which connections belong to which room and fans room events out
// to them. It implements app.Broadcaster.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

// Join subscribes a client to a room's broadcasts.
func (h *Hub) Join(code string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[code] == nil {
		h.rooms[code] = make(map[*Client]struct{})
	}
	h.rooms[code][c] = struct{}{}
}

// Leave unsubscribes a client. The room entry is dropped once empty.
func (h *Hub) Leave(code string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[code]
	if !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.rooms, code)
	}
}

// Broadcast sends an event envelope to every connection in the room.
// Non-blocking: a client with a full send buffer misses the message rather
// than stalling the room.
func (h *Hub) Broadcast(code, event string, payload any) {
	data, err := json.Marshal(envelope{Type: event, Payload: payload})
	if err != nil {
		log.Printf("marshal %s broadcast: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[code] {
		select {
		case c.send <- data:
		default:
		}
	}
}

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
