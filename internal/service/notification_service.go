package service

import (
	"context"
	"math"

	"github.com/vedran77/vybe/internal/domain"
	"github.com/vedran77/vybe/internal/repository"
)

const (
	defaultNotificationLimit = 30
	maxNotificationLimit     = 100
)

// NotificationService serves a recipient's notification feed.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
}

func NewNotificationService(repos repository.Set) *NotificationService {
	return &NotificationService{
		notifications: repos.Notifications,
		users:         repos.Users,
	}
}

// List returns a page of userID's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID domain.UserID, page, limit int) ([]NotificationView, error) {
	if userID.IsZero() {
		return nil, ErrMissingUser
	}
	page = max(page, 0)
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	limit = min(limit, maxNotificationLimit)
	// Keep page*limit+limit inside int for the stores' offset arithmetic.
	page = min(page, math.MaxInt/limit-1)

	items, err := s.notifications.ListByRecipient(ctx, userID, page, limit)
	if err != nil {
		return nil, persistenceError("listing notifications", err)
	}

	p := previewer{users: s.users}
	views := make([]NotificationView, 0, len(items))
	for i := range items {
		views = append(views, newNotificationView(&items[i], p.preview(ctx, items[i].FromID())))
	}
	return views, nil
}

// MarkRead flags one notification as read. A notification owned by someone else is reported as
// not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID domain.UserID, id string) (*domain.Notification, error) {
	n, err := s.notifications.MarkRead(ctx, id, userID)
	if err != nil {
		return nil, persistenceError("marking notification read", err)
	}
	if n == nil {
		return nil, ErrNotificationNotFound
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID domain.UserID) (int64, error) {
	if userID.IsZero() {
		return 0, ErrMissingUser
	}
	updated, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, persistenceError("marking notifications read", err)
	}
	return updated, nil
}

// Delete removes a notification. Only its recipient may delete it.
func (s *NotificationService) Delete(ctx context.Context, userID domain.UserID, id string) error {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return persistenceError("loading notification", err)
	}
	if n == nil {
		return ErrNotificationNotFound
	}
	if n.To != userID {
		return ErrNotNotificationRecipient
	}
	if err := s.notifications.Delete(ctx, id); err != nil {
		return persistenceError("deleting notification", err)
	}
	return nil
}
