package ws

import (
	"encoding/json"
	"time"

	"github.com/vedran77/vybe/internal/domain"
)

// Action types - Client → Server
const (
	ActionSendMessage    = "sendMessage"
	ActionEditMessage    = "editMessage"
	ActionDeleteMessage  = "deleteMessage"
	ActionForwardMessage = "forwardMessage"
	ActionLikePost       = "likePost"
	ActionUnlikePost     = "unlikePost"
	ActionFollow         = "follow"
	ActionUnfollow       = "unfollow"
	ActionAddComment     = "addComment"
	ActionDeleteComment  = "deleteComment"
	ActionPing           = "ping"
)

// Event types - Server → Client. Domain events use the names in domain/event.go.
const (
	EventTypeAck   = "ack"
	EventTypePong  = "pong"
	EventTypeError = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	TargetID  domain.UserID   `json:"target_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

// SendMessagePayload carries either a plain text message or a shared post.
type SendMessagePayload struct {
	Message string                   `json:"message" validate:"required_without=Post"`
	Post    *domain.SharedPostRef    `json:"post" validate:"omitempty"`
	Author  *domain.SharedPostAuthor `json:"author"`
}

// Body encodes the payload into the stored message body.
func (p SendMessagePayload) Body() string {
	if p.Post == nil {
		return p.Message
	}
	share := domain.SharedPost{Post: *p.Post}
	if p.Author != nil {
		share.Author = *p.Author
	}
	return share.Raw()
}

type EditMessagePayload struct {
	MessageID string `json:"messageId" validate:"required"`
	Message   string `json:"message" validate:"notblank"`
}

type MessageRefPayload struct {
	MessageID string `json:"messageId" validate:"required"`
}

type PostPayload struct {
	PostID string `json:"postId" validate:"required"`
}

type CommentPayload struct {
	PostID    string `json:"postId" validate:"required"`
	CommentID string `json:"commentId"`
	Text      string `json:"text" validate:"max=2000"`
}

// --- Server → Client payloads ---

type OnlineUsersPayload struct {
	Users []domain.UserID `json:"users"`
}

type AckPayload struct {
	Action string `json:"action"`
	Result any    `json:"result,omitempty"`
}

type ErrorPayload struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}

// encodeEvent renders a server→client event ready for Push.
func encodeEvent(eventType string, payload any) ([]byte, error) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(evt)
}

// EncodeOnlineUsers is the presence.PresenceEncoder for the getOnlineUsers broadcast.
func EncodeOnlineUsers(online []domain.UserID) ([]byte, error) {
	if online == nil {
		online = []domain.UserID{}
	}
	return encodeEvent(domain.EventOnlineUsers, OnlineUsersPayload{Users: online})
}
