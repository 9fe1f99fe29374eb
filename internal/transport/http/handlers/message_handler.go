package handlers

import (
	"log/slog"
	"net/http"

	"github.com/vedran77/vybe/internal/domain"
	"github.com/vedran77/vybe/internal/service"
	"github.com/vedran77/vybe/internal/transport/http/middleware"
)

type MessageHandler struct {
	router *service.Router
	log    *slog.Logger
}

func NewMessageHandler(router *service.Router, log *slog.Logger) *MessageHandler {
	if log == nil {
		log = slog.Default()
	}
	return &MessageHandler{router: router, log: log}
}

type sendMessageRequest struct {
	TextMessage string                   `json:"textMessage" validate:"required_without=Post"`
	Post        *domain.SharedPostRef    `json:"post" validate:"omitempty"`
	Author      *domain.SharedPostAuthor `json:"author"`
}

func (r sendMessageRequest) body() string {
	if r.Post == nil {
		return r.TextMessage
	}
	share := domain.SharedPost{Post: *r.Post}
	if r.Author != nil {
		share.Author = *r.Author
	}
	return share.Raw()
}

type editMessageRequest struct {
	Text string `json:"text" validate:"notblank"`
}

type forwardMessageRequest struct {
	ToUserID domain.UserID `json:"toUserId" validate:"required"`
}

// messageResponse is a message with its body decoded for rendering.
type messageResponse struct {
	domain.Message
	Kind       domain.BodyKind    `json:"kind"`
	SharedPost *domain.SharedPost `json:"sharedPost,omitempty"`
}

func newMessageResponse(m domain.Message) messageResponse {
	body := domain.DecodeBody(m.Body)
	resp := messageResponse{Message: m, Kind: body.Kind()}
	if share, ok := body.(domain.SharedPost); ok {
		resp.SharedPost = &share
	}
	return resp
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	receiverID := domain.UserID(r.PathValue("id"))

	var input sendMessageRequest
	if !decodeBody(w, r, &input) {
		return
	}

	msg, err := h.router.RouteMessage(r.Context(), userID, receiverID, input.body())
	if err != nil {
		writeServiceError(w, h.log, "send message", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"newMessage": newMessageResponse(*msg)})
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	otherID := domain.UserID(r.PathValue("id"))

	messages, err := h.router.GetConversation(r.Context(), userID, otherID)
	if err != nil {
		writeServiceError(w, h.log, "list messages", err)
		return
	}

	resp := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		resp = append(resp, newMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": resp})
}

func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convs, err := h.router.ListConversations(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, "list conversations", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}

func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input editMessageRequest
	if !decodeBody(w, r, &input) {
		return
	}

	msg, err := h.router.EditMessage(r.Context(), userID, r.PathValue("id"), input.Text)
	if err != nil {
		writeServiceError(w, h.log, "edit message", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": newMessageResponse(*msg)})
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.router.DeleteMessage(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, h.log, "delete message", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) Forward(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input forwardMessageRequest
	if !decodeBody(w, r, &input) {
		return
	}

	msg, err := h.router.ForwardMessage(r.Context(), userID, input.ToUserID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.log, "forward message", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"message": newMessageResponse(*msg)})
}
