package domain

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotificationMessage NotificationType = "message"
	NotificationLike    NotificationType = "like"
	NotificationFollow  NotificationType = "follow"
	NotificationComment NotificationType = "comment"
	NotificationOther   NotificationType = "other"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationMessage, NotificationLike, NotificationFollow, NotificationComment, NotificationOther:
		return true
	}
	return false
}

type Notification struct {
	ID   string           `json:"_id"`
	To   UserID           `json:"to"`
	From *UserID          `json:"from,omitempty"` // nil for system notifications
	Type NotificationType `json:"type"`
	Read bool             `json:"read"`
	// Data is passed through untouched.
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (n *Notification) FromID() UserID {
	if n.From == nil {
		return ""
	}
	return *n.From
}
