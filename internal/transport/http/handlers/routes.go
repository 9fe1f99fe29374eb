package handlers

import (
	"net/http"
)

// Routes mounts the protected REST API on mux behind auth.
func Routes(mux *http.ServeMux, auth func(http.Handler) http.Handler, messages *MessageHandler, notifications *NotificationHandler, events *EventsHandler) {
	protect := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	// Protected - Messages
	mux.Handle("POST /api/v1/message/send/{id}", protect(messages.Send))
	mux.Handle("GET /api/v1/message/all/{id}", protect(messages.List))
	mux.Handle("GET /api/v1/message/conversations", protect(messages.Conversations))
	mux.Handle("PUT /api/v1/message/{id}", protect(messages.Edit))
	mux.Handle("DELETE /api/v1/message/{id}", protect(messages.Delete))
	mux.Handle("POST /api/v1/message/forward/{id}", protect(messages.Forward))

	// Protected - Notifications
	mux.Handle("GET /api/v1/notification", protect(notifications.List))
	mux.Handle("PUT /api/v1/notification/markall", protect(notifications.MarkAllRead))
	mux.Handle("PUT /api/v1/notification/{id}/read", protect(notifications.MarkRead))
	mux.Handle("DELETE /api/v1/notification/{id}", protect(notifications.Delete))

	// Protected - Social events from the post/profile layer
	mux.Handle("POST /api/v1/events/like", protect(events.Like))
	mux.Handle("POST /api/v1/events/unlike", protect(events.Unlike))
	mux.Handle("POST /api/v1/events/follow", protect(events.Follow))
	mux.Handle("POST /api/v1/events/unfollow", protect(events.Unfollow))
	mux.Handle("POST /api/v1/events/comment", protect(events.Comment))
	mux.Handle("POST /api/v1/events/uncomment", protect(events.Uncomment))
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
