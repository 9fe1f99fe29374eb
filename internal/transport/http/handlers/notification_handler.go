package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vedran77/vybe/internal/service"
	"github.com/vedran77/vybe/internal/transport/http/middleware"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
	log                 *slog.Logger
}

func NewNotificationHandler(notificationService *service.NotificationService, log *slog.Logger) *NotificationHandler {
	if log == nil {
		log = slog.Default()
	}
	return &NotificationHandler{notificationService: notificationService, log: log}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	// Parse query params; the service clamps out-of-range values
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	views, err := h.notificationService.List(r.Context(), userID, page, limit)
	if err != nil {
		writeServiceError(w, h.log, "list notifications", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": views})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	n, err := h.notificationService.MarkRead(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.log, "mark notification read", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": n})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	updated, err := h.notificationService.MarkAllRead(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, "mark all notifications read", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.notificationService.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, h.log, "delete notification", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
