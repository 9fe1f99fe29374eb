package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/vedran77/vybe/internal/domain"
)

type notificationEntry struct {
	n   domain.Notification
	seq int64
}

type NotificationRepo struct {
	mu    sync.RWMutex
	items map[string]*notificationEntry
	seq   int64
}

func NewNotificationRepo() *NotificationRepo {
	return &NotificationRepo{items: make(map[string]*notificationEntry)}
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.items[n.ID] = &notificationEntry{n: cloneNotification(*n), seq: r.seq}
	return nil
}

func (r *NotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	n := cloneNotification(e.n)
	return &n, nil
}

func (r *NotificationRepo) ListByRecipient(ctx context.Context, userID domain.UserID, page, limit int) ([]domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []*notificationEntry
	for _, e := range r.items {
		if e.n.To == userID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].n.CreatedAt.Equal(entries[j].n.CreatedAt) {
			return entries[i].seq > entries[j].seq
		}
		return entries[i].n.CreatedAt.After(entries[j].n.CreatedAt)
	})

	if page < 0 || limit <= 0 || page > (len(entries)-1)/limit {
		return []domain.Notification{}, nil
	}
	start := page * limit
	if start >= len(entries) {
		return []domain.Notification{}, nil
	}
	end := min(start+limit, len(entries))
	out := make([]domain.Notification, 0, end-start)
	for _, e := range entries[start:end] {
		out = append(out, cloneNotification(e.n))
	}
	return out, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id string, userID domain.UserID) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok || e.n.To != userID {
		return nil, nil
	}
	e.n.Read = true
	n := cloneNotification(e.n)
	return &n, nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID domain.UserID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated int64
	for _, e := range r.items {
		if e.n.To == userID && !e.n.Read {
			e.n.Read = true
			updated++
		}
	}
	return updated, nil
}

func (r *NotificationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotificationNotFound
	}
	delete(r.items, id)
	return nil
}

func cloneNotification(n domain.Notification) domain.Notification {
	if n.From != nil {
		from := *n.From
		n.From = &from
	}
	n.Data = slices.Clone(n.Data)
	return n
}
