// Package live pushes new dashboard events to browsers over Server-Sent
// Events and WebSocket.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Message types sent to stream clients besides raw dashboard events.
const (
	TypeConnected = "connected"
	TypeHeartbeat = "heartbeat"
)

// StatusMessage is a control frame on the event stream.
type StatusMessage struct {
	Type      string     `json:"type"`
	Message   string     `json:"message,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Hub tracks connected stream clients and fans messages out to them.
// All membership changes go through the Run goroutine.
type Hub struct {
	clients    map[*client]struct{}
	mu         sync.RWMutex
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
	logger     *slog.Logger

	// HeartbeatInterval is how often SSE clients receive a heartbeat frame.
	HeartbeatInterval time.Duration
}

type client struct {
	send chan []byte
	kind string
}

// NewHub creates a new hub. Call Run before serving clients.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:           make(map[*client]struct{}),
		broadcast:         make(chan []byte, 256),
		register:          make(chan *client),
		unregister:        make(chan *client),
		done:              make(chan struct{}),
		logger:            logger,
		HeartbeatInterval: 30 * time.Second,
	}
}

// Run starts the hub's event loop and blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Info("live hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("stream client connected", "kind", c.kind, "total_clients", total)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("stream client disconnected", "kind", c.kind, "total_clients", total)

		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Client buffer full, drop it
					delete(h.clients, c)
					close(c.send)
					h.logger.Warn("dropping slow stream client", "kind", c.kind)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends v, JSON-encoded, to every connected client.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to marshal stream message", "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("stream broadcast channel full, dropping event")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// join registers a new client. It returns nil once the hub has stopped.
func (h *Hub) join(kind string) *client {
	c := &client{send: make(chan []byte, 64), kind: kind}
	select {
	case h.register <- c:
		return c
	case <-h.done:
		return nil
	}
}

func (h *Hub) leave(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
