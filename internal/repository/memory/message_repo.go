package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vedran77/vybe/internal/domain"
)

var (
	// ErrConversationNotFound is returned when appending to a conversation that does not exist.
	ErrConversationNotFound = errors.New("memory: conversation not found")
	// ErrMessageNotFound is returned when mutating a message that does not exist.
	ErrMessageNotFound = errors.New("memory: message not found")
	// ErrNotificationNotFound is returned when deleting a notification that does not exist.
	ErrNotificationNotFound = errors.New("memory: notification not found")
)

type MessageRepo struct {
	mu    sync.RWMutex
	items map[string]*domain.Message
}

func NewMessageRepo() *MessageRepo {
	return &MessageRepo{items: make(map[string]*domain.Message)}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[msg.ID] = cloneMessage(msg)
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msg, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return cloneMessage(msg), nil
}

func (r *MessageRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	messages := make([]domain.Message, 0, len(ids))
	for _, id := range ids {
		if msg, ok := r.items[id]; ok {
			messages = append(messages, *cloneMessage(msg))
		}
	}
	return messages, nil
}

func (r *MessageRepo) UpdateBody(ctx context.Context, id, body string, editedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.items[id]
	if !ok {
		return ErrMessageNotFound
	}
	msg.Body = body
	msg.EditedAt = &editedAt
	return nil
}

func (r *MessageRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrMessageNotFound
	}
	delete(r.items, id)
	return nil
}

// Len reports how many messages are stored.
func (r *MessageRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func cloneMessage(m *domain.Message) *domain.Message {
	out := *m
	if m.EditedAt != nil {
		t := *m.EditedAt
		out.EditedAt = &t
	}
	return &out
}
