package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/infrastructure/http/response"
	"github.com/Subrata270/studio-sub001/infrastructure/http/sse"
	"github.com/Subrata270/studio-sub001/infrastructure/http/validator"
)

type NotificationHandler struct {
	notifications inbound.NotificationUseCase
	streamer      *sse.Streamer
}

// NewNotificationHandler builds the handler; streamer may be nil to disable
// the event stream.
func NewNotificationHandler(notifications inbound.NotificationUseCase, streamer *sse.Streamer) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		streamer:      streamer,
	}
}

func (h *NotificationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/notifications", h.List).Methods(http.MethodGet)
	router.HandleFunc("/notifications/unread-count", h.UnreadCount).Methods(http.MethodGet)
	router.HandleFunc("/notifications/read-all", h.MarkAllRead).Methods(http.MethodPost)
	router.HandleFunc("/notifications/{id}/read", h.MarkRead).Methods(http.MethodPost)
	if h.streamer != nil {
		router.HandleFunc("/notifications/stream", h.Stream).Methods(http.MethodGet)
	}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	req := inbound.ListNotificationsRequest{
		UnreadOnly: validator.QueryBool(r, "unread"),
		Page:       validator.QueryInt(r, "page", 1),
		Limit:      validator.QueryInt(r, "limit", 0),
	}

	items, err := h.notifications.ListForUser(r.Context(), actor.ID, req)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "success", items)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	n, err := h.notifications.UnreadCount(r.Context(), actor.ID)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "success", map[string]int{"unread": n})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(r.Context(), actor.ID, mux.Vars(r)["id"]); err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	n, err := h.notifications.MarkAllRead(r.Context(), actor.ID)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Notifications marked as read", map[string]int{"updated": n})
}

// Stream keeps a Server-Sent Events connection open for the actor
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	h.streamer.Serve(w, r, actor.ID)
}
