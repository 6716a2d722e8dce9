package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
	apperr "github.com/Subrata270/studio-sub001/domain/error"
	"github.com/Subrata270/studio-sub001/infrastructure/http/response"
	"github.com/Subrata270/studio-sub001/infrastructure/http/validator"
)

// AdminHandler serves the administrator endpoints that are not user management
type AdminHandler struct {
	subscriptions inbound.SubscriptionUseCase
	continuation  inbound.ContinuationUseCase
	notifications inbound.NotificationUseCase
}

func NewAdminHandler(subscriptions inbound.SubscriptionUseCase, continuation inbound.ContinuationUseCase, notifications inbound.NotificationUseCase) *AdminHandler {
	return &AdminHandler{
		subscriptions: subscriptions,
		continuation:  continuation,
		notifications: notifications,
	}
}

type notifyRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

func (h *AdminHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/admin/deleted-subscriptions", h.ListDeleted).Methods(http.MethodGet)
	router.HandleFunc("/admin/expiry-scan", h.RunExpiryScan).Methods(http.MethodPost)
	router.HandleFunc("/admin/notifications", h.Notify).Methods(http.MethodPost)
}

func (h *AdminHandler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	result, err := h.subscriptions.ListDeleted(r.Context(), actor, validator.QueryInt(r, "page", 1), validator.QueryInt(r, "limit", 0))
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "success", result)
}

// RunExpiryScan triggers the scan synchronously and returns its report
func (h *AdminHandler) RunExpiryScan(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r, "expiry_scan"); !ok {
		return
	}
	report, err := h.continuation.RunExpiryScan(r.Context())
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Expiry scan completed", report)
}

// Notify sends a free-form in-app message to one user
func (h *AdminHandler) Notify(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r, "notify"); !ok {
		return
	}
	var req notifyRequest
	if err := validator.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	id, err := h.notifications.Notify(r.Context(), req.UserID, req.Message)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusCreated, "Notification sent", map[string]string{"id": id})
}

func requireAdmin(w http.ResponseWriter, r *http.Request, action string) (entity.Actor, bool) {
	actor, ok := currentActor(w, r)
	if !ok {
		return entity.Actor{}, false
	}
	if actor.Role != entity.RoleAdmin {
		response.WriteError(w, apperr.Unauthorized(apperr.Subject{Action: action, ActorID: actor.ID}, "admin only"))
		return entity.Actor{}, false
	}
	return actor, true
}
