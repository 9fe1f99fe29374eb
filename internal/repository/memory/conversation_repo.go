package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/vedran77/vybe/internal/domain"
	"github.com/vedran77/vybe/internal/repository"
)

// ConversationRepo keeps conversations in process memory. Used by tests and STORE_DRIVER=memory.
type ConversationRepo struct {
	mu     sync.RWMutex
	items  map[string]*domain.Conversation
	byPair map[string]string
}

func NewConversationRepo() *ConversationRepo {
	return &ConversationRepo{
		items:  make(map[string]*domain.Conversation),
		byPair: make(map[string]string),
	}
}

func (r *ConversationRepo) Create(ctx context.Context, conv *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := domain.PairKey(conv.Participants[0], conv.Participants[1])
	if _, exists := r.byPair[key]; exists {
		return repository.ErrDuplicate
	}
	stored := cloneConversation(conv)
	stored.Participants = domain.CanonicalPair(conv.Participants[0], conv.Participants[1])
	r.items[conv.ID] = stored
	r.byPair[key] = conv.ID
	return nil
}

func (r *ConversationRepo) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return cloneConversation(conv), nil
}

func (r *ConversationRepo) GetByParticipants(ctx context.Context, a, b domain.UserID) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPair[domain.PairKey(a, b)]
	if !ok {
		return nil, nil
	}
	return cloneConversation(r.items[id]), nil
}

func (r *ConversationRepo) ListByUser(ctx context.Context, userID domain.UserID) ([]domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var convs []domain.Conversation
	for _, conv := range r.items {
		if conv.HasParticipant(userID) {
			convs = append(convs, *cloneConversation(conv))
		}
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].CreatedAt.After(convs[j].CreatedAt)
	})
	return convs, nil
}

func (r *ConversationRepo) AppendMessage(ctx context.Context, conversationID, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.items[conversationID]
	if !ok {
		return ErrConversationNotFound
	}
	conv.MessageIDs = append(conv.MessageIDs, messageID)
	return nil
}

func (r *ConversationRepo) PullMessage(ctx context.Context, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conv := range r.items {
		if conv.ContainsMessage(messageID) {
			conv.MessageIDs = lo.Without(conv.MessageIDs, messageID)
		}
	}
	return nil
}

func cloneConversation(c *domain.Conversation) *domain.Conversation {
	out := *c
	out.MessageIDs = slices.Clone(c.MessageIDs)
	return &out
}
