package service

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vedran77/vybe/internal/domain"
	"github.com/vedran77/vybe/internal/repository"
)

// Notifier pushes a realtime event to a user's live connection.
// It returns ErrRecipientOffline when the user is not connected.
type Notifier interface {
	NotifyUser(userID domain.UserID, event string, payload any) error
}

// Publisher receives committed records for the activity stream. Enqueue must not block.
type Publisher interface {
	Enqueue(name, key string, payload any)
}

// Activity stream record names.
const (
	ActivityMessageSent         = "message.sent"
	ActivityNotificationCreated = "notification.created"
)

const pairLockStripes = 64

// Router is the single orchestration point for domain actions with a realtime component.
//
// Every operation runs a durable phase (store writes, errors returned to the caller) followed by a
// delivery phase (registry lookup + push) whose failures are logged and swallowed.
type Router struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository
	notifier      Notifier
	publisher     Publisher
	log           *slog.Logger
	now           func() time.Time

	// pairLocks serialise find-or-create, append and delivery per participant pair.
	pairLocks [pairLockStripes]sync.Mutex
}

func NewRouter(repos repository.Set, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		conversations: repos.Conversations,
		messages:      repos.Messages,
		notifications: repos.Notifications,
		users:         repos.Users,
		log:           log,
		now:           time.Now,
	}
}

// SetNotifier sets the realtime notifier (optional dependency).
func (r *Router) SetNotifier(n Notifier) {
	r.notifier = n
}

// SetPublisher sets the activity stream publisher (optional dependency).
func (r *Router) SetPublisher(p Publisher) {
	r.publisher = p
}

func (r *Router) lockPair(a, b domain.UserID) func() {
	h := fnv.New32a()
	h.Write([]byte(domain.PairKey(a, b)))
	mu := &r.pairLocks[h.Sum32()%pairLockStripes]
	mu.Lock()
	return mu.Unlock
}

// deliver is the delivery phase: push if connected, otherwise drop. Never returns an error.
func (r *Router) deliver(userID domain.UserID, event string, payload any) {
	if r.notifier == nil {
		return
	}
	err := r.notifier.NotifyUser(userID, event, payload)
	switch {
	case err == nil:
		r.log.Debug("router: delivered", "event", event, "user_id", userID)
	case errors.Is(err, ErrRecipientOffline):
		r.log.Debug("router: recipient offline, delivery skipped", "event", event, "user_id", userID)
	default:
		r.log.Warn("router: delivery failed", "event", event, "user_id", userID, "error", err)
	}
}

func (r *Router) publish(name, key string, payload any) {
	if r.publisher == nil {
		return
	}
	r.publisher.Enqueue(name, key, payload)
}

// newNotification is the durable write shared by every notification-producing operation.
func (r *Router) newNotification(ctx context.Context, to, from domain.UserID, typ domain.NotificationType, data any) (*domain.Notification, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	n := &domain.Notification{
		ID:        uuid.NewString(),
		To:        to,
		Type:      typ,
		Data:      raw,
		CreatedAt: r.now().UTC(),
	}
	if from != "" {
		n.From = &from
	}
	if err := r.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	r.publish(ActivityNotificationCreated, string(to), n)
	return n, nil
}

func (r *Router) deliverNotification(ctx context.Context, n *domain.Notification) {
	p := previewer{users: r.users}
	view := newNotificationView(n, p.preview(ctx, n.FromID()))
	r.deliver(n.To, domain.EventNewNotification, view)
}

func (r *Router) username(ctx context.Context, id domain.UserID) string {
	p := previewer{users: r.users}
	if preview := p.preview(ctx, id); preview != nil {
		return preview.Username
	}
	return ""
}
