package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/vedran77/vybe/internal/domain"
	"github.com/vedran77/vybe/internal/repository"
)

type messageNotificationData struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
	Forwarded      bool   `json:"forwarded,omitempty"`
}

// RouteMessage stores a chat message between two users and pushes it to the receiver if online.
// The body is stored byte-for-byte.
func (r *Router) RouteMessage(ctx context.Context, senderID, receiverID domain.UserID, body string) (*domain.Message, error) {
	if err := validatePair(senderID, receiverID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}
	return r.send(ctx, senderID, receiverID, body, false)
}

// ForwardMessage copies the body of an existing message into a new message to another user.
// The original message is left untouched.
func (r *Router) ForwardMessage(ctx context.Context, senderID, receiverID domain.UserID, originalID string) (*domain.Message, error) {
	if err := validatePair(senderID, receiverID); err != nil {
		return nil, err
	}
	original, err := r.messages.GetByID(ctx, originalID)
	if err != nil {
		return nil, persistenceError("loading original message", err)
	}
	if original == nil {
		return nil, ErrMessageNotFound
	}
	// Only a participant of the original may forward it. Stricter than a plain copy by id.
	if !original.Involves(senderID) {
		return nil, ErrNotMessageParticipant
	}
	return r.send(ctx, senderID, receiverID, original.Body, true)
}

func (r *Router) send(ctx context.Context, senderID, receiverID domain.UserID, body string, forwarded bool) (*domain.Message, error) {
	unlock := r.lockPair(senderID, receiverID)
	defer unlock()

	conv, err := r.findOrCreateConversation(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		CreatedAt:  r.now().UTC(),
	}
	if err := r.messages.Create(ctx, msg); err != nil {
		return nil, persistenceError("creating message", err)
	}
	if err := r.conversations.AppendMessage(ctx, conv.ID, msg.ID); err != nil {
		r.log.Warn("router: message stored but not linked to its conversation",
			"inconsistency", true, "message_id", msg.ID, "conversation_id", conv.ID, "error", err)
		return nil, persistenceError("appending message", err)
	}
	r.publish(ActivityMessageSent, conv.ID, msg)

	n, err := r.newNotification(ctx, receiverID, senderID, domain.NotificationMessage, messageNotificationData{
		MessageID:      msg.ID,
		ConversationID: conv.ID,
		Text:           msg.Body,
		Forwarded:      forwarded,
	})
	if err != nil {
		r.log.Warn("router: message stored without notification",
			"inconsistency", true, "message_id", msg.ID, "error", err)
	} else {
		r.deliverNotification(ctx, n)
	}
	r.deliver(receiverID, domain.EventNewMessage, msg)

	return msg, nil
}

// findOrCreateConversation must be called with the pair lock held.
func (r *Router) findOrCreateConversation(ctx context.Context, a, b domain.UserID) (*domain.Conversation, error) {
	conv, err := r.conversations.GetByParticipants(ctx, a, b)
	if err != nil {
		return nil, persistenceError("finding conversation", err)
	}
	if conv != nil {
		return conv, nil
	}

	conv = &domain.Conversation{
		ID:           uuid.NewString(),
		Participants: domain.CanonicalPair(a, b),
		CreatedAt:    r.now().UTC(),
	}
	err = r.conversations.Create(ctx, conv)
	if errors.Is(err, repository.ErrDuplicate) {
		// Another process created the pair first.
		existing, getErr := r.conversations.GetByParticipants(ctx, a, b)
		if getErr != nil {
			return nil, persistenceError("finding conversation", getErr)
		}
		if existing == nil {
			return nil, persistenceError("finding conversation", err)
		}
		return existing, nil
	}
	if err != nil {
		return nil, persistenceError("creating conversation", err)
	}
	return conv, nil
}

// EditMessage replaces the body of a message. Only its sender may edit it.
func (r *Router) EditMessage(ctx context.Context, actorID domain.UserID, messageID, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	msg, err := r.ownedMessage(ctx, actorID, messageID)
	if err != nil {
		return nil, err
	}

	editedAt := r.now().UTC()
	if err := r.messages.UpdateBody(ctx, msg.ID, body, editedAt); err != nil {
		return nil, persistenceError("updating message", err)
	}
	msg.Body = body
	msg.EditedAt = &editedAt

	r.deliver(msg.ReceiverID, domain.EventMessageEdited, msg)
	return msg, nil
}

// DeleteMessage removes a message from every conversation referencing it, then the message itself.
func (r *Router) DeleteMessage(ctx context.Context, actorID domain.UserID, messageID string) error {
	msg, err := r.ownedMessage(ctx, actorID, messageID)
	if err != nil {
		return err
	}

	var conversationID string
	conv, err := r.conversations.GetByParticipants(ctx, msg.SenderID, msg.ReceiverID)
	switch {
	case err != nil:
		r.log.Debug("router: conversation lookup failed, messageDeleted sent without conversation id",
			"message_id", msg.ID, "error", err)
	case conv != nil:
		conversationID = conv.ID
	}

	if err := r.conversations.PullMessage(ctx, msg.ID); err != nil {
		return persistenceError("unlinking message", err)
	}
	if err := r.messages.Delete(ctx, msg.ID); err != nil {
		r.log.Warn("router: message unlinked but not deleted",
			"inconsistency", true, "message_id", msg.ID, "error", err)
		return persistenceError("deleting message", err)
	}

	r.deliver(msg.ReceiverID, domain.EventMessageDeleted, MessageDeletedPayload{
		MessageID:      msg.ID,
		ConversationID: conversationID,
	})
	return nil
}

func (r *Router) ownedMessage(ctx context.Context, actorID domain.UserID, messageID string) (*domain.Message, error) {
	msg, err := r.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, persistenceError("loading message", err)
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID != actorID {
		return nil, ErrNotMessageOwner
	}
	return msg, nil
}

// GetConversation returns the messages exchanged between two users, oldest first.
func (r *Router) GetConversation(ctx context.Context, userID, otherID domain.UserID) ([]domain.Message, error) {
	if err := validatePair(userID, otherID); err != nil {
		return nil, err
	}
	conv, err := r.conversations.GetByParticipants(ctx, userID, otherID)
	if err != nil {
		return nil, persistenceError("finding conversation", err)
	}
	if conv == nil || len(conv.MessageIDs) == 0 {
		return []domain.Message{}, nil
	}
	messages, err := r.messages.ListByIDs(ctx, conv.MessageIDs)
	if err != nil {
		return nil, persistenceError("listing messages", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// ListConversations returns every conversation userID participates in, newest first.
func (r *Router) ListConversations(ctx context.Context, userID domain.UserID) ([]domain.Conversation, error) {
	if userID.IsZero() {
		return nil, ErrMissingUser
	}
	convs, err := r.conversations.ListByUser(ctx, userID)
	if err != nil {
		return nil, persistenceError("listing conversations", err)
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}

func validatePair(a, b domain.UserID) error {
	if a.IsZero() || b.IsZero() {
		return ErrMissingUser
	}
	if a == b {
		return ErrCannotMessageSelf
	}
	return nil
}
