// Package websocket pushes console notifications to open browser tabs:
// transient toasts and page refresh hints after a mutation.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Message kinds.
const (
	TypeToast   = "toast"
	TypeRefresh = "refresh"
)

// Toast levels.
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
)

// Message is one notification sent to every connected tab.
type Message struct {
	Type   string    `json:"type"`
	Level  string    `json:"level,omitempty"`
	Text   string    `json:"text,omitempty"`
	Page   string    `json:"page,omitempty"`
	Action string    `json:"action,omitempty"`
	ID     string    `json:"id,omitempty"`
	At     time.Time `json:"at"`
}

func NewToast(level, text string) Message {
	return Message{Type: TypeToast, Level: level, Text: text, At: time.Now().UTC()}
}

// NewRefresh tells tabs showing page that the record id changed.
func NewRefresh(page, action, id string) Message {
	return Message{Type: TypeRefresh, Page: page, Action: action, ID: id, At: time.Now().UTC()}
}

// Hub maintains the set of connected tabs and fans messages out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With("component", "websocket"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("tab connected", "clients", h.ClientCount())
}

// Unregister removes c and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast queues msg for every client. A client whose buffer is full
// misses the message.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.wants(msg) {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping message for slow client", "type", msg.Type)
		}
	}
}

func (h *Hub) Toast(level, text string) {
	h.Broadcast(NewToast(level, text))
}

func (h *Hub) Refresh(page, action, id string) {
	h.Broadcast(NewRefresh(page, action, id))
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
