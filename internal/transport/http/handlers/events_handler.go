package handlers

import (
	"log/slog"
	"net/http"

	"github.com/vedran77/vybe/internal/domain"
	"github.com/vedran77/vybe/internal/service"
	"github.com/vedran77/vybe/internal/transport/http/middleware"
)

// EventsHandler lets the post and profile layer report social actions after it has committed them.
// The acting user is the token subject.
type EventsHandler struct {
	router *service.Router
	log    *slog.Logger
}

func NewEventsHandler(router *service.Router, log *slog.Logger) *EventsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &EventsHandler{router: router, log: log}
}

type postEventRequest struct {
	OwnerID domain.UserID `json:"ownerId" validate:"required"`
	PostID  string        `json:"postId" validate:"required"`
}

type followEventRequest struct {
	TargetID domain.UserID `json:"targetId" validate:"required"`
}

type commentEventRequest struct {
	OwnerID   domain.UserID `json:"ownerId" validate:"required"`
	PostID    string        `json:"postId" validate:"required"`
	CommentID string        `json:"commentId"`
	Text      string        `json:"text" validate:"max=2000"`
}

func (h *EventsHandler) Like(w http.ResponseWriter, r *http.Request) {
	var input postEventRequest
	if !decodeBody(w, r, &input) {
		return
	}
	n, err := h.router.RouteLike(r.Context(), middleware.GetUserID(r.Context()), input.OwnerID, input.PostID)
	h.respond(w, "like", n, err)
}

func (h *EventsHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	var input postEventRequest
	if !decodeBody(w, r, &input) {
		return
	}
	err := h.router.RouteUnlike(r.Context(), middleware.GetUserID(r.Context()), input.OwnerID, input.PostID)
	h.respond(w, "unlike", nil, err)
}

func (h *EventsHandler) Follow(w http.ResponseWriter, r *http.Request) {
	var input followEventRequest
	if !decodeBody(w, r, &input) {
		return
	}
	n, err := h.router.RouteFollow(r.Context(), middleware.GetUserID(r.Context()), input.TargetID)
	h.respond(w, "follow", n, err)
}

func (h *EventsHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	var input followEventRequest
	if !decodeBody(w, r, &input) {
		return
	}
	err := h.router.RouteUnfollow(r.Context(), middleware.GetUserID(r.Context()), input.TargetID)
	h.respond(w, "unfollow", nil, err)
}

func (h *EventsHandler) Comment(w http.ResponseWriter, r *http.Request) {
	var input commentEventRequest
	if !decodeBody(w, r, &input) {
		return
	}
	n, err := h.router.RouteComment(r.Context(), middleware.GetUserID(r.Context()), input.OwnerID, input.PostID, input.CommentID, input.Text)
	h.respond(w, "comment", n, err)
}

func (h *EventsHandler) Uncomment(w http.ResponseWriter, r *http.Request) {
	var input commentEventRequest
	if !decodeBody(w, r, &input) {
		return
	}
	err := h.router.RouteCommentDeleted(r.Context(), middleware.GetUserID(r.Context()), input.OwnerID, input.PostID, input.CommentID)
	h.respond(w, "uncomment", nil, err)
}

// respond writes 201 with the notification when one was recorded, 204 otherwise.
func (h *EventsHandler) respond(w http.ResponseWriter, op string, n *domain.Notification, err error) {
	if err != nil {
		writeServiceError(w, h.log, op, err)
		return
	}
	if n == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"notification": n})
}
