package ws

import (
	"fmt"

	"github.com/vedran77/vybe/internal/domain"
	"github.com/vedran77/vybe/internal/service"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyUser(userID domain.UserID, event string, payload any) error {
	conn, ok := n.hub.Lookup(userID)
	if !ok {
		return service.ErrRecipientOffline
	}
	data, err := encodeEvent(event, payload)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event, err)
	}
	return conn.Push(data)
}
