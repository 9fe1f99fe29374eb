package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vedran77/vybe/internal/domain"
	"github.com/vedran77/vybe/internal/repository"
	"github.com/vedran77/vybe/internal/repository/memory"
	"github.com/vedran77/vybe/internal/service"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, repository.Set) {
	t.Helper()
	repos := memory.NewSet()
	return NewDispatcher(service.NewRouter(repos, nil), nil), repos
}

func errorPayload(t *testing.T, evt *Event) ErrorPayload {
	t.Helper()
	require.Equal(t, EventTypeError, evt.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &p))
	return p
}

func TestDispatcher_Ping(t *testing.T) {
	req := require.New(t)
	d, _ := newTestDispatcher(t)

	reply := d.Dispatch(context.Background(), "alice", &Event{Type: ActionPing, RequestID: "p"})

	req.Equal(EventTypePong, reply.Type)
	req.Equal("p", reply.RequestID)
}

func TestDispatcher_Unknown_Action(t *testing.T) {
	req := require.New(t)
	d, _ := newTestDispatcher(t)

	reply := d.Dispatch(context.Background(), "alice", &Event{Type: "typing.start"})

	req.Equal("UNKNOWN_EVENT", errorPayload(t, reply).Code)
}

func TestDispatcher_Validation_Errors(t *testing.T) {
	req := require.New(t)
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	reply := d.Dispatch(ctx, "alice", &Event{Type: ActionSendMessage, Payload: json.RawMessage(`{"message":"hi"}`)})
	req.Equal("INVALID_PAYLOAD", errorPayload(t, reply).Code)

	reply = d.Dispatch(ctx, "alice", &Event{Type: ActionLikePost, TargetID: "bob", Payload: json.RawMessage(`{}`)})
	p := errorPayload(t, reply)
	req.Equal("VALIDATION_ERROR", p.Code)
	req.Contains(p.Fields, "postId")

	reply = d.Dispatch(ctx, "alice", &Event{Type: ActionSendMessage, TargetID: "alice", Payload: json.RawMessage(`{"message":"me"}`)})
	req.Equal("INVALID_INPUT", errorPayload(t, reply).Code)
}

func TestDispatcher_Shared_Post_Is_Stored_As_Envelope(t *testing.T) {
	req := require.New(t)
	d, repos := newTestDispatcher(t)
	ctx := context.Background()

	reply := d.Dispatch(ctx, "alice", &Event{
		Type:     ActionSendMessage,
		TargetID: "bob",
		Payload:  json.RawMessage(`{"post":{"_id":"p1","caption":"sunset"},"author":{"_id":"carol","username":"carol"}}`),
	})
	req.Equal(EventTypeAck, reply.Type)

	conv, err := repos.Conversations.GetByParticipants(ctx, "alice", "bob")
	req.NoError(err)
	msg, err := repos.Messages.GetByID(ctx, conv.MessageIDs[0])
	req.NoError(err)

	body := domain.DecodeBody(msg.Body)
	req.Equal(domain.BodySharedPost, body.Kind())
	req.Equal("sunset", domain.Preview(body))
}

func TestDispatcher_Forbidden_Edit(t *testing.T) {
	req := require.New(t)
	d, repos := newTestDispatcher(t)
	ctx := context.Background()

	d.Dispatch(ctx, "alice", &Event{Type: ActionSendMessage, TargetID: "bob", Payload: json.RawMessage(`{"message":"hi"}`)})
	conv, err := repos.Conversations.GetByParticipants(ctx, "alice", "bob")
	req.NoError(err)
	payload, err := json.Marshal(EditMessagePayload{MessageID: conv.MessageIDs[0], Message: "changed"})
	req.NoError(err)

	reply := d.Dispatch(ctx, "bob", &Event{Type: ActionEditMessage, Payload: payload})
	req.Equal("FORBIDDEN", errorPayload(t, reply).Code)

	reply = d.Dispatch(ctx, "alice", &Event{Type: ActionEditMessage, RequestID: "e1", Payload: payload})
	req.Equal(EventTypeAck, reply.Type)
	req.Equal("e1", reply.RequestID)
}

func TestDispatcher_Delete_Missing_Message(t *testing.T) {
	req := require.New(t)
	d, _ := newTestDispatcher(t)

	reply := d.Dispatch(context.Background(), "alice", &Event{
		Type:    ActionDeleteMessage,
		Payload: json.RawMessage(`{"messageId":"nope"}`),
	})

	req.Equal("NOT_FOUND", errorPayload(t, reply).Code)
}

func TestDispatcher_Self_Like_Acks_Without_Notification(t *testing.T) {
	req := require.New(t)
	d, repos := newTestDispatcher(t)
	ctx := context.Background()

	reply := d.Dispatch(ctx, "alice", &Event{Type: ActionLikePost, TargetID: "alice", Payload: json.RawMessage(`{"postId":"p1"}`)})

	req.Equal(EventTypeAck, reply.Type)
	notifs, err := repos.Notifications.ListByRecipient(ctx, "alice", 0, 10)
	req.NoError(err)
	req.Empty(notifs)
}
