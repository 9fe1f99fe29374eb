package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vedran77/vybe/internal/domain"
	"github.com/vedran77/vybe/internal/repository"
)

// ActorPreview is the denormalised "from" block clients render without a profile fetch.
type ActorPreview struct {
	ID             domain.UserID `json:"_id"`
	Username       string        `json:"username,omitempty"`
	ProfilePicture string        `json:"profilePicture,omitempty"`
}

// NotificationView is the payload of a newNotification event and of the notification feed.
type NotificationView struct {
	ID        string                  `json:"_id"`
	From      *ActorPreview           `json:"from,omitempty"`
	Type      domain.NotificationType `json:"type"`
	Read      bool                    `json:"read"`
	Data      json.RawMessage         `json:"data,omitempty"`
	CreatedAt time.Time               `json:"createdAt"`
}

type PostLikeRemovedPayload struct {
	PostID string        `json:"postId"`
	UserID domain.UserID `json:"userId"`
}

type MessageDeletedPayload struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId,omitempty"`
}

func newNotificationView(n *domain.Notification, from *ActorPreview) NotificationView {
	return NotificationView{
		ID:        n.ID,
		From:      from,
		Type:      n.Type,
		Read:      n.Read,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
	}
}

// previewer resolves actor previews, caching lookups for the lifetime of one call.
type previewer struct {
	users repository.UserRepository
	cache map[domain.UserID]*ActorPreview
}

func (p *previewer) preview(ctx context.Context, id domain.UserID) *ActorPreview {
	if id == "" {
		return nil
	}
	if cached, ok := p.cache[id]; ok {
		return cached
	}
	out := &ActorPreview{ID: id}
	if p.users != nil {
		if u, err := p.users.GetByID(ctx, id); err == nil && u != nil {
			out.Username = u.Username
			out.ProfilePicture = u.ProfilePicture
		}
	}
	if p.cache == nil {
		p.cache = make(map[domain.UserID]*ActorPreview)
	}
	p.cache[id] = out
	return out
}
