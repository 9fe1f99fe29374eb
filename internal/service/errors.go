package service

import (
	"errors"
	"fmt"
)

// Error categories. Edges map these onto status codes with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrPersistence  = errors.New("persistence failure")
)

var (
	ErrMessageNotFound      = fmt.Errorf("message %w", ErrNotFound)
	ErrConversationNotFound = fmt.Errorf("conversation %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)

	ErrNotMessageOwner          = fmt.Errorf("%w: only the message sender can perform this action", ErrForbidden)
	ErrNotMessageParticipant    = fmt.Errorf("%w: only a participant can forward this message", ErrForbidden)
	ErrNotNotificationRecipient = fmt.Errorf("%w: only the recipient can perform this action", ErrForbidden)

	ErrEmptyBody         = fmt.Errorf("%w: message body is required", ErrInvalidInput)
	ErrMissingUser       = fmt.Errorf("%w: user id is required", ErrInvalidInput)
	ErrCannotMessageSelf = fmt.Errorf("%w: cannot start a conversation with yourself", ErrInvalidInput)
	ErrPostRequired      = fmt.Errorf("%w: post id is required", ErrInvalidInput)
)

// ErrRecipientOffline is reported by a Notifier when the recipient holds no connection.
// It never leaves the router.
var ErrRecipientOffline = errors.New("recipient offline")

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
