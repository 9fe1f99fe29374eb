package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vedran77/vybe/internal/domain"
)

// ErrDuplicate is returned by Create when a unique key (e.g. a conversation pair) already exists.
var ErrDuplicate = errors.New("repository: duplicate key")

// Lookups return (nil, nil) when the record does not exist.

type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	GetByParticipants(ctx context.Context, a, b domain.UserID) (*domain.Conversation, error)
	ListByUser(ctx context.Context, userID domain.UserID) ([]domain.Conversation, error)
	AppendMessage(ctx context.Context, conversationID, messageID string) error
	// PullMessage removes messageID from every conversation that references it.
	PullMessage(ctx context.Context, messageID string) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	// ListByIDs returns the messages in the order of ids, skipping ids that no longer exist.
	ListByIDs(ctx context.Context, ids []string) ([]domain.Message, error)
	UpdateBody(ctx context.Context, id, body string, editedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	// ListByRecipient returns newest first.
	ListByRecipient(ctx context.Context, userID domain.UserID, page, limit int) ([]domain.Notification, error)
	// MarkRead returns nil when no notification with that id belongs to userID.
	MarkRead(ctx context.Context, id string, userID domain.UserID) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID domain.UserID) (int64, error)
	Delete(ctx context.Context, id string) error
}

// UserRepository is a read-only view of the profile store.
type UserRepository interface {
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
}

// Set bundles one backend's repositories.
type Set struct {
	Conversations ConversationRepository
	Messages      MessageRepository
	Notifications NotificationRepository
	Users         UserRepository
}
