package memory

import (
	"context"
	"sync"

	"github.com/vedran77/vybe/internal/domain"
	"github.com/vedran77/vybe/internal/repository"
)

type UserRepo struct {
	mu    sync.RWMutex
	users map[domain.UserID]domain.User
}

func NewUserRepo(users ...domain.User) *UserRepo {
	r := &UserRepo{users: make(map[domain.UserID]domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *UserRepo) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// Put adds or replaces a profile.
func (r *UserRepo) Put(u domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

// NewSet builds an empty in-memory backend.
func NewSet() repository.Set {
	return repository.Set{
		Conversations: NewConversationRepo(),
		Messages:      NewMessageRepo(),
		Notifications: NewNotificationRepo(),
		Users:         NewUserRepo(),
	}
}
