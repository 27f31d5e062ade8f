package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/doomscroll/doomscroll/pkg/models"
	"github.com/gorilla/websocket"
)

const clientBuffer = 64

type client struct {
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	remote string
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.hub.RemoveClient(c)
			return
		}
	}
}

// Hub keeps the latest reading and fans readings out to connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	latest  models.Reading
	logger  *slog.Logger
}

// NewHub creates a hub whose snapshot starts at initial
func NewHub(initial models.Reading, logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		latest:  initial,
		logger:  logger,
	}
}

// AddClient registers conn and queues the current snapshot for it.
func (h *Hub) AddClient(conn *websocket.Conn) *client {
	c := &client{
		conn:   conn,
		hub:    h,
		send:   make(chan []byte, clientBuffer),
		remote: conn.RemoteAddr().String(),
	}

	h.mu.Lock()
	h.clients[c] = true
	data, err := json.Marshal(Message{Type: MsgSnapshot, Payload: h.latest})
	if err == nil {
		c.send <- data
	}
	h.mu.Unlock()

	go c.writePump()
	return c
}

// RemoveClient unregisters c and closes its send queue.
func (h *Hub) RemoveClient(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Publish records r as the latest reading and sends it to every client.
// Clients whose queue is full are disconnected.
func (h *Hub) Publish(r models.Reading) {
	data, err := json.Marshal(Message{Type: MsgReading, Payload: r})
	if err != nil {
		h.logger.Error("failed to marshal reading", "error", err)
		return
	}

	var slow []*client
	h.mu.Lock()
	h.latest = r
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.Warn("ws client too slow, disconnecting", "remote", c.remote)
		h.RemoveClient(c)
	}
}

// Latest returns the most recent reading.
func (h *Hub) Latest() models.Reading {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
