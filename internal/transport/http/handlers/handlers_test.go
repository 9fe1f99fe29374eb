package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vedran77/vybe/internal/domain"
	"github.com/vedran77/vybe/internal/repository"
	"github.com/vedran77/vybe/internal/repository/memory"
	"github.com/vedran77/vybe/internal/service"
	"github.com/vedran77/vybe/internal/transport/http/middleware"
)

// fakeAuth trusts the X-User header so tests can act as any user.
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := middleware.WithUserID(r.Context(), domain.UserID(r.Header.Get("X-User")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type api struct {
	mux   *http.ServeMux
	repos repository.Set
}

func newAPI(t *testing.T) *api {
	t.Helper()
	repos := memory.NewSet()
	repos.Users.(*memory.UserRepo).Put(domain.User{ID: "alice", Username: "alice_w"})
	router := service.NewRouter(repos, nil)
	mux := http.NewServeMux()
	Routes(mux, fakeAuth,
		NewMessageHandler(router, nil),
		NewNotificationHandler(service.NewNotificationService(repos), nil),
		NewEventsHandler(router, nil),
	)
	return &api{mux: mux, repos: repos}
}

func (a *api) do(t *testing.T, user, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	r.Header.Set("X-User", user)
	w := httptest.NewRecorder()
	a.mux.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

type errorBody struct {
	Error struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func TestMessageHandler_Send_And_List(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)

	w := a.do(t, "alice", http.MethodPost, "/api/v1/message/send/bob", `{"textMessage":"hello"}`)
	req.Equal(http.StatusCreated, w.Code)
	sent := decode[struct {
		NewMessage messageResponse `json:"newMessage"`
	}](t, w)
	req.Equal("hello", sent.NewMessage.Body)
	req.Equal(domain.BodyPlainText, sent.NewMessage.Kind)

	w = a.do(t, "bob", http.MethodGet, "/api/v1/message/all/alice", "")
	req.Equal(http.StatusOK, w.Code)
	listed := decode[struct {
		Messages []messageResponse `json:"messages"`
	}](t, w)
	req.Len(listed.Messages, 1)
	req.Equal(sent.NewMessage.ID, listed.Messages[0].ID)

	w = a.do(t, "bob", http.MethodGet, "/api/v1/message/conversations", "")
	req.Equal(http.StatusOK, w.Code)
	convs := decode[struct {
		Conversations []domain.Conversation `json:"conversations"`
	}](t, w)
	req.Len(convs.Conversations, 1)
}

func TestMessageHandler_Send_Shared_Post(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)

	w := a.do(t, "alice", http.MethodPost, "/api/v1/message/send/bob",
		`{"post":{"_id":"p1","caption":"look"},"author":{"_id":"carol","username":"carol"}}`)

	req.Equal(http.StatusCreated, w.Code)
	sent := decode[struct {
		NewMessage messageResponse `json:"newMessage"`
	}](t, w)
	req.Equal(domain.BodySharedPost, sent.NewMessage.Kind)
	req.Equal("p1", sent.NewMessage.SharedPost.Post.ID)
}

func TestMessageHandler_Send_Validation(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)

	w := a.do(t, "alice", http.MethodPost, "/api/v1/message/send/bob", `{}`)
	req.Equal(http.StatusBadRequest, w.Code)
	req.Equal("VALIDATION_ERROR", decode[errorBody](t, w).Error.Code)

	w = a.do(t, "alice", http.MethodPost, "/api/v1/message/send/bob", `not json`)
	req.Equal(http.StatusBadRequest, w.Code)
	req.Equal("INVALID_JSON", decode[errorBody](t, w).Error.Code)

	w = a.do(t, "alice", http.MethodPost, "/api/v1/message/send/alice", `{"textMessage":"me"}`)
	req.Equal(http.StatusBadRequest, w.Code)
	req.Equal("INVALID_INPUT", decode[errorBody](t, w).Error.Code)
}

func TestMessageHandler_Edit_Delete_Authorization(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)
	w := a.do(t, "alice", http.MethodPost, "/api/v1/message/send/bob", `{"textMessage":"hello"}`)
	id := decode[struct {
		NewMessage messageResponse `json:"newMessage"`
	}](t, w).NewMessage.ID

	w = a.do(t, "bob", http.MethodPut, "/api/v1/message/"+id, `{"text":"hijack"}`)
	req.Equal(http.StatusForbidden, w.Code)

	w = a.do(t, "bob", http.MethodDelete, "/api/v1/message/"+id, "")
	req.Equal(http.StatusForbidden, w.Code)

	w = a.do(t, "alice", http.MethodPut, "/api/v1/message/"+id, `{"text":"hello!"}`)
	req.Equal(http.StatusOK, w.Code)

	w = a.do(t, "alice", http.MethodDelete, "/api/v1/message/"+id, "")
	req.Equal(http.StatusNoContent, w.Code)

	w = a.do(t, "alice", http.MethodDelete, "/api/v1/message/"+id, "")
	req.Equal(http.StatusNotFound, w.Code)
}

func TestMessageHandler_Forward(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)
	w := a.do(t, "bob", http.MethodPost, "/api/v1/message/send/alice", `{"textMessage":"hi"}`)
	id := decode[struct {
		NewMessage messageResponse `json:"newMessage"`
	}](t, w).NewMessage.ID

	w = a.do(t, "alice", http.MethodPost, "/api/v1/message/forward/"+id, `{"toUserId":"carol"}`)
	req.Equal(http.StatusCreated, w.Code)
	fwd := decode[struct {
		Message messageResponse `json:"message"`
	}](t, w).Message
	req.NotEqual(id, fwd.ID)
	req.Equal(domain.UserID("carol"), fwd.ReceiverID)
	req.Equal("hi", fwd.Body)

	w = a.do(t, "alice", http.MethodPost, "/api/v1/message/forward/"+id, `{}`)
	req.Equal(http.StatusBadRequest, w.Code)
	req.Contains(decode[errorBody](t, w).Error.Fields, "toUserId")
}

func TestNotificationHandler_Lifecycle(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)

	w := a.do(t, "alice", http.MethodPost, "/api/v1/events/like", `{"ownerId":"bob","postId":"p1"}`)
	req.Equal(http.StatusCreated, w.Code)
	w = a.do(t, "alice", http.MethodPost, "/api/v1/events/follow", `{"targetId":"bob"}`)
	req.Equal(http.StatusCreated, w.Code)

	w = a.do(t, "bob", http.MethodGet, "/api/v1/notification?limit=10", "")
	req.Equal(http.StatusOK, w.Code)
	list := decode[struct {
		Data []service.NotificationView `json:"data"`
	}](t, w)
	req.Len(list.Data, 2)
	req.Equal("alice_w", list.Data[0].From.Username)
	id := list.Data[0].ID

	// Other users cannot touch bob's notifications
	w = a.do(t, "carol", http.MethodPut, "/api/v1/notification/"+id+"/read", "")
	req.Equal(http.StatusNotFound, w.Code)
	w = a.do(t, "carol", http.MethodDelete, "/api/v1/notification/"+id, "")
	req.Equal(http.StatusForbidden, w.Code)

	w = a.do(t, "bob", http.MethodPut, "/api/v1/notification/"+id+"/read", "")
	req.Equal(http.StatusOK, w.Code)

	w = a.do(t, "bob", http.MethodPut, "/api/v1/notification/markall", "")
	req.Equal(http.StatusOK, w.Code)
	req.Equal(int64(1), decode[struct {
		Updated int64 `json:"updated"`
	}](t, w).Updated)

	w = a.do(t, "bob", http.MethodDelete, "/api/v1/notification/"+id, "")
	req.Equal(http.StatusNoContent, w.Code)
}

func TestEventsHandler_No_Record_Cases(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)

	w := a.do(t, "bob", http.MethodPost, "/api/v1/events/like", `{"ownerId":"bob","postId":"p1"}`)
	req.Equal(http.StatusNoContent, w.Code)
	w = a.do(t, "alice", http.MethodPost, "/api/v1/events/unlike", `{"ownerId":"bob","postId":"p1"}`)
	req.Equal(http.StatusNoContent, w.Code)
	w = a.do(t, "alice", http.MethodPost, "/api/v1/events/unfollow", `{"targetId":"bob"}`)
	req.Equal(http.StatusNoContent, w.Code)
	w = a.do(t, "alice", http.MethodPost, "/api/v1/events/uncomment", `{"ownerId":"bob","postId":"p1","commentId":"c1"}`)
	req.Equal(http.StatusNoContent, w.Code)

	w = a.do(t, "alice", http.MethodPost, "/api/v1/events/comment", `{"ownerId":"bob","postId":"p1","text":"nice"}`)
	req.Equal(http.StatusCreated, w.Code)

	items, err := a.repos.Notifications.ListByRecipient(t.Context(), "bob", 0, 10)
	req.NoError(err)
	req.Len(items, 1)
	req.Equal(domain.NotificationComment, items[0].Type)
}
