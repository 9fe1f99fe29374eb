package domain

import (
	"time"
)

type Message struct {
	ID         string     `json:"_id"`
	SenderID   UserID     `json:"senderId"`
	ReceiverID UserID     `json:"receiverId"`
	Body       string     `json:"message"`
	CreatedAt  time.Time  `json:"createdAt"`
	EditedAt   *time.Time `json:"editedAt,omitempty"`
}

// Counterpart returns the participant on the other side of the message from id.
func (m *Message) Counterpart(id UserID) UserID {
	if m.SenderID == id {
		return m.ReceiverID
	}
	return m.SenderID
}

func (m *Message) Involves(id UserID) bool {
	return m.SenderID == id || m.ReceiverID == id
}
