package ws

import (
	"log/slog"
	"sync"

	"nhooyr.io/websocket"

	"github.com/vedran77/vybe/internal/domain"
	"github.com/vedran77/vybe/internal/presence"
)

// Hub owns the live WebSocket clients. Membership lives in the presence registry; the hub adds
// connection lifecycle and shutdown on top of it.
type Hub struct {
	registry *presence.Registry
	log      *slog.Logger

	mu     sync.Mutex
	closed bool
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		registry: presence.NewRegistry(log, EncodeOnlineUsers),
		log:      log,
	}
}

// Register makes the client reachable and moves it to CONNECTED. It returns false once the hub
// has been shut down.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if prev := h.registry.Register(c.userID, c); prev != nil {
		h.log.Info("ws hub: previous connection no longer receives events", "user_id", c.userID)
	}
	c.markConnected()
	h.log.Info("ws hub: user connected", "user_id", c.userID, "online", h.registry.Len())
	return true
}

// Unregister removes the client unless a newer connection for the same user replaced it.
func (h *Hub) Unregister(c *Client) {
	if h.registry.Unregister(c.userID, c) {
		h.log.Info("ws hub: user disconnected", "user_id", c.userID, "online", h.registry.Len())
	}
}

func (h *Hub) Lookup(userID domain.UserID) (presence.Connection, bool) {
	return h.registry.Lookup(userID)
}

func (h *Hub) Online() []domain.UserID {
	return h.registry.Online()
}

// Shutdown refuses new clients and disconnects every registered one.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	conns := h.registry.Connections()
	for _, conn := range conns {
		if c, ok := conn.(*Client); ok {
			c.Close(websocket.StatusGoingAway)
		}
	}
	h.log.Info("ws hub: shut down", "closed", len(conns))
}
