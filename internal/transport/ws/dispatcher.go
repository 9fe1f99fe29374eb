package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/vedran77/vybe/internal/domain"
	"github.com/vedran77/vybe/internal/service"
	"github.com/vedran77/vybe/pkg/validator"
)

var (
	errMissingPayload = errors.New("payload is required")
	errMissingTarget  = errors.New("target_id is required")
)

type invalidPayloadError struct {
	fields validator.ValidationErrors
}

func (e *invalidPayloadError) Error() string {
	return "invalid payload"
}

// Dispatcher turns inbound client actions into router calls. The acting user is always the
// identity the connection was registered under.
type Dispatcher struct {
	router *service.Router
	log    *slog.Logger
}

func NewDispatcher(router *service.Router, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{router: router, log: log}
}

// Dispatch handles one action and returns the reply for the acting connection.
func (d *Dispatcher) Dispatch(ctx context.Context, actorID domain.UserID, evt *Event) *Event {
	if evt.Type == ActionPing {
		return &Event{Type: EventTypePong, RequestID: evt.RequestID, Timestamp: time.Now().Unix()}
	}

	result, err := d.handle(ctx, actorID, evt)
	var reply *Event
	if err != nil {
		reply = d.errorEvent(actorID, evt, err)
	} else {
		reply, err = NewEvent(EventTypeAck, AckPayload{Action: evt.Type, Result: result})
		if err != nil {
			reply = d.errorEvent(actorID, evt, err)
		}
	}
	reply.RequestID = evt.RequestID
	return reply
}

func (d *Dispatcher) handle(ctx context.Context, actorID domain.UserID, evt *Event) (any, error) {
	switch evt.Type {
	case ActionSendMessage:
		var p SendMessagePayload
		if err := decodeAction(evt, true, &p); err != nil {
			return nil, err
		}
		return d.router.RouteMessage(ctx, actorID, evt.TargetID, p.Body())

	case ActionEditMessage:
		var p EditMessagePayload
		if err := decodeAction(evt, false, &p); err != nil {
			return nil, err
		}
		return d.router.EditMessage(ctx, actorID, p.MessageID, p.Message)

	case ActionDeleteMessage:
		var p MessageRefPayload
		if err := decodeAction(evt, false, &p); err != nil {
			return nil, err
		}
		if err := d.router.DeleteMessage(ctx, actorID, p.MessageID); err != nil {
			return nil, err
		}
		return p, nil

	case ActionForwardMessage:
		var p MessageRefPayload
		if err := decodeAction(evt, true, &p); err != nil {
			return nil, err
		}
		return d.router.ForwardMessage(ctx, actorID, evt.TargetID, p.MessageID)

	case ActionLikePost:
		var p PostPayload
		if err := decodeAction(evt, true, &p); err != nil {
			return nil, err
		}
		return d.router.RouteLike(ctx, actorID, evt.TargetID, p.PostID)

	case ActionUnlikePost:
		var p PostPayload
		if err := decodeAction(evt, true, &p); err != nil {
			return nil, err
		}
		return nil, d.router.RouteUnlike(ctx, actorID, evt.TargetID, p.PostID)

	case ActionFollow:
		if evt.TargetID.IsZero() {
			return nil, errMissingTarget
		}
		return d.router.RouteFollow(ctx, actorID, evt.TargetID)

	case ActionUnfollow:
		if evt.TargetID.IsZero() {
			return nil, errMissingTarget
		}
		return nil, d.router.RouteUnfollow(ctx, actorID, evt.TargetID)

	case ActionAddComment:
		var p CommentPayload
		if err := decodeAction(evt, true, &p); err != nil {
			return nil, err
		}
		return d.router.RouteComment(ctx, actorID, evt.TargetID, p.PostID, p.CommentID, p.Text)

	case ActionDeleteComment:
		var p CommentPayload
		if err := decodeAction(evt, true, &p); err != nil {
			return nil, err
		}
		return nil, d.router.RouteCommentDeleted(ctx, actorID, evt.TargetID, p.PostID, p.CommentID)

	default:
		return nil, errUnknownAction
	}
}

var errUnknownAction = errors.New("unknown action")

func decodeAction(evt *Event, needTarget bool, dst any) error {
	if needTarget && evt.TargetID.IsZero() {
		return errMissingTarget
	}
	if len(evt.Payload) == 0 {
		return errMissingPayload
	}
	if err := json.Unmarshal(evt.Payload, dst); err != nil {
		return &invalidPayloadError{fields: validator.ValidationErrors{"payload": "Invalid JSON"}}
	}
	if errs := validator.Struct(dst); errs.HasErrors() {
		return &invalidPayloadError{fields: errs}
	}
	return nil
}

func (d *Dispatcher) errorEvent(actorID domain.UserID, evt *Event, err error) *Event {
	payload := ErrorPayload{Code: "INTERNAL", Message: "Internal server error"}

	var invalid *invalidPayloadError
	switch {
	case errors.As(err, &invalid):
		payload = ErrorPayload{Code: "VALIDATION_ERROR", Message: "Invalid payload", Fields: invalid.fields}
	case errors.Is(err, errUnknownAction):
		payload = ErrorPayload{Code: "UNKNOWN_EVENT", Message: "unknown event type: " + evt.Type}
	case errors.Is(err, errMissingTarget), errors.Is(err, errMissingPayload):
		payload = ErrorPayload{Code: "INVALID_PAYLOAD", Message: err.Error()}
	case errors.Is(err, service.ErrInvalidInput):
		payload = ErrorPayload{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, service.ErrNotFound):
		payload = ErrorPayload{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, service.ErrForbidden):
		payload = ErrorPayload{Code: "FORBIDDEN", Message: err.Error()}
	default:
		d.log.Error("ws: action failed", "action", evt.Type, "user_id", actorID, "error", err)
	}

	data, _ := json.Marshal(payload)
	return &Event{Type: EventTypeError, Payload: data, Timestamp: time.Now().Unix()}
}
