// Package websocket fans out change notifications to connected devices
// so every screen in the household reflects edits immediately.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Message types understood by clients.
const (
	TypeAttendanceChanged = "attendance_changed"
	TypeSettingsChanged   = "settings_changed"
	TypeScheduleChanged   = "schedule_changed"
	TypeShoppingChanged   = "shopping_changed"
	TypeMembersChanged    = "members_changed"
	TypeSyncStatus        = "sync_status"
	TypeBackupStatus      = "backup_status"
)

// Message is one realtime notification. Payload carries type-specific
// detail, e.g. the changed record or a status document.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// NewMessage builds a notification of the given type.
func NewMessage(msgType string, payload any) Message {
	return Message{Type: msgType, Payload: payload}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients. A client whose
// buffer is full misses the message rather than blocking the sender.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
