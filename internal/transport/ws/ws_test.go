package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/vedran77/vybe/internal/domain"
	"github.com/vedran77/vybe/internal/repository"
	"github.com/vedran77/vybe/internal/repository/memory"
	"github.com/vedran77/vybe/internal/service"
)

type testServer struct {
	srv   *httptest.Server
	hub   *Hub
	repos repository.Set
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repos := memory.NewSet()
	router := service.NewRouter(repos, nil)
	hub := NewHub(nil)
	router.SetNotifier(NewHubNotifier(hub))

	srv := httptest.NewServer(ServeWS(hub, NewDispatcher(router, nil), Options{}, nil))
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})
	return &testServer{srv: srv, hub: hub, repos: repos}
}

func (s *testServer) dial(t *testing.T, ctx context.Context, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "?userId=" + userID
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	return conn
}

// readUntil skips events until one of the given type arrives.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, eventType string) Event {
	t.Helper()
	for {
		var evt Event
		require.NoError(t, wsjson.Read(ctx, conn, &evt))
		if evt.Type == eventType {
			return evt
		}
	}
}

func readOnline(t *testing.T, ctx context.Context, conn *websocket.Conn, want ...domain.UserID) {
	t.Helper()
	for {
		evt := readUntil(t, ctx, conn, domain.EventOnlineUsers)
		var p OnlineUsersPayload
		require.NoError(t, json.Unmarshal(evt.Payload, &p))
		if len(p.Users) == len(want) {
			require.Equal(t, want, p.Users)
			return
		}
	}
}

func TestServeWS_Presence_And_Message_Delivery(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := newTestServer(t)

	// Given alice and bob are connected
	alice := s.dial(t, ctx, "alice")
	defer alice.Close(websocket.StatusNormalClosure, "")
	readOnline(t, ctx, alice, "alice")

	bob := s.dial(t, ctx, "bob")
	readOnline(t, ctx, alice, "alice", "bob")
	readOnline(t, ctx, bob, "alice", "bob")

	// When bob sends alice a message
	req.NoError(wsjson.Write(ctx, bob, Event{
		Type:      ActionSendMessage,
		RequestID: "r1",
		TargetID:  "alice",
		Payload:   json.RawMessage(`{"message":"hello"}`),
	}))

	// Then bob gets an ack and alice gets the notification and the message
	ack := readUntil(t, ctx, bob, EventTypeAck)
	req.Equal("r1", ack.RequestID)

	notif := readUntil(t, ctx, alice, domain.EventNewNotification)
	var view service.NotificationView
	req.NoError(json.Unmarshal(notif.Payload, &view))
	req.Equal(domain.NotificationMessage, view.Type)
	req.Equal(domain.UserID("bob"), view.From.ID)

	evt := readUntil(t, ctx, alice, domain.EventNewMessage)
	var msg domain.Message
	req.NoError(json.Unmarshal(evt.Payload, &msg))
	req.Equal(domain.UserID("bob"), msg.SenderID)
	req.Equal("hello", msg.Body)

	// And when bob leaves, alice sees the new presence snapshot
	req.NoError(bob.Close(websocket.StatusNormalClosure, ""))
	readOnline(t, ctx, alice, "alice")
}

func TestServeWS_Send_To_Offline_User_Succeeds(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := newTestServer(t)

	alice := s.dial(t, ctx, "alice")
	defer alice.Close(websocket.StatusNormalClosure, "")

	req.NoError(wsjson.Write(ctx, alice, Event{
		Type:      ActionSendMessage,
		RequestID: "r1",
		TargetID:  "carol",
		Payload:   json.RawMessage(`{"message":"are you there?"}`),
	}))

	ack := readUntil(t, ctx, alice, EventTypeAck)
	req.Equal("r1", ack.RequestID)

	notifs, err := s.repos.Notifications.ListByRecipient(ctx, "carol", 0, 10)
	req.NoError(err)
	req.Len(notifs, 1)
}

func TestServeWS_Newer_Connection_Supersedes(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := newTestServer(t)

	first := s.dial(t, ctx, "alice")
	readOnline(t, ctx, first, "alice")
	second := s.dial(t, ctx, "alice")
	defer second.Close(websocket.StatusNormalClosure, "")
	readOnline(t, ctx, second, "alice")

	conn, ok := s.hub.Lookup("alice")
	req.True(ok)

	// The stale connection going away must not evict the live one
	req.NoError(first.Close(websocket.StatusNormalClosure, ""))
	req.Eventually(func() bool {
		cur, ok := s.hub.Lookup("alice")
		return ok && cur == conn
	}, time.Second, 10*time.Millisecond)
	req.Equal([]domain.UserID{"alice"}, s.hub.Online())
}

func TestServeWS_Requires_UserID(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := newTestServer(t)

	url := "ws" + strings.TrimPrefix(s.srv.URL, "http")
	_, resp, err := websocket.Dial(ctx, url, nil)

	req.Error(err)
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestHub_Shutdown_Closes_Connections(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := newTestServer(t)

	alice := s.dial(t, ctx, "alice")
	readOnline(t, ctx, alice, "alice")

	s.hub.Shutdown()

	var evt Event
	err := wsjson.Read(ctx, alice, &evt)
	req.Equal(websocket.StatusGoingAway, websocket.CloseStatus(err))
	req.Eventually(func() bool {
		return len(s.hub.Online()) == 0
	}, time.Second, 10*time.Millisecond)
}
