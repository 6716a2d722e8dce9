package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
	"github.com/Subrata270/studio-sub001/infrastructure/http/middleware"
	"github.com/Subrata270/studio-sub001/infrastructure/http/response"
	"github.com/Subrata270/studio-sub001/infrastructure/http/validator"
)

// SubscriptionHandler exposes the subscription lifecycle over HTTP
type SubscriptionHandler struct {
	subscriptions inbound.SubscriptionUseCase
	continuation  inbound.ContinuationUseCase
}

func NewSubscriptionHandler(subscriptions inbound.SubscriptionUseCase, continuation inbound.ContinuationUseCase) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		continuation:  continuation,
	}
}

// RegisterRoutes registers subscription routes on an authenticated router
func (h *SubscriptionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/subscriptions", h.Create).Methods(http.MethodPost)
	router.HandleFunc("/subscriptions", h.List).Methods(http.MethodGet)
	router.HandleFunc("/subscriptions/{id}", h.Get).Methods(http.MethodGet)
	router.HandleFunc("/subscriptions/{id}", h.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/subscriptions/{id}/approve", h.Approve).Methods(http.MethodPost)
	router.HandleFunc("/subscriptions/{id}/decline", h.Decline).Methods(http.MethodPost)
	router.HandleFunc("/subscriptions/{id}/forward", h.Forward).Methods(http.MethodPost)
	router.HandleFunc("/subscriptions/{id}/verify", h.Verify).Methods(http.MethodPost)
	router.HandleFunc("/subscriptions/{id}/execute-payment", h.ExecutePayment).Methods(http.MethodPost)
	router.HandleFunc("/subscriptions/{id}/renew", h.Renew).Methods(http.MethodPost)
	router.HandleFunc("/subscriptions/{id}/continuation", h.RecordContinuation).Methods(http.MethodPost)
}

func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req inbound.CreateSubscriptionRequest
	if err := validator.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	sub, err := h.subscriptions.Create(r.Context(), actor, req)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusCreated, "Subscription requested", sub)
}

func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	req := inbound.ListSubscriptionsRequest{
		Status:      q.Get("status"),
		Department:  q.Get("department"),
		RequestedBy: q.Get("requested_by"),
		HodID:       q.Get("hod_id"),
		Page:        validator.QueryInt(r, "page", 1),
		Limit:       validator.QueryInt(r, "limit", 0),
	}

	result, err := h.subscriptions.List(r.Context(), actor, req)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "success", result)
}

func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	sub, err := h.subscriptions.Get(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "success", sub)
}

func (h *SubscriptionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req inbound.ApproveRequest
	h.transition(w, r, &req, "Subscription approved", func(actor entity.Actor, id string) (*entity.Subscription, error) {
		return h.subscriptions.Approve(r.Context(), actor, id, req)
	})
}

func (h *SubscriptionHandler) Decline(w http.ResponseWriter, r *http.Request) {
	var req inbound.DeclineRequest
	h.transition(w, r, &req, "Subscription declined", func(actor entity.Actor, id string) (*entity.Subscription, error) {
		return h.subscriptions.Decline(r.Context(), actor, id, req)
	})
}

func (h *SubscriptionHandler) Forward(w http.ResponseWriter, r *http.Request) {
	var req inbound.ForwardToAMRequest
	h.transition(w, r, &req, "Subscription forwarded for verification", func(actor entity.Actor, id string) (*entity.Subscription, error) {
		return h.subscriptions.ForwardToAM(r.Context(), actor, id, req)
	})
}

func (h *SubscriptionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req inbound.VerifyRequest
	h.transition(w, r, &req, "Subscription verified", func(actor entity.Actor, id string) (*entity.Subscription, error) {
		return h.subscriptions.Verify(r.Context(), actor, id, req)
	})
}

func (h *SubscriptionHandler) ExecutePayment(w http.ResponseWriter, r *http.Request) {
	var req inbound.ExecutePaymentRequest
	h.transition(w, r, &req, "Payment recorded", func(actor entity.Actor, id string) (*entity.Subscription, error) {
		return h.subscriptions.ExecutePayment(r.Context(), actor, id, req)
	})
}

func (h *SubscriptionHandler) Renew(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req inbound.RenewRequest
	if err := validator.DecodeOptionalJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	sub, err := h.subscriptions.Renew(r.Context(), actor, mux.Vars(r)["id"], req)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusCreated, "Subscription renewed", sub)
}

func (h *SubscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req inbound.DeleteSubscriptionRequest
	if err := validator.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.subscriptions.Delete(r.Context(), actor, mux.Vars(r)["id"], req); err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Subscription deleted", nil)
}

func (h *SubscriptionHandler) RecordContinuation(w http.ResponseWriter, r *http.Request) {
	var req inbound.ContinuationDecisionRequest
	h.transition(w, r, &req, "Continuation decision recorded", func(actor entity.Actor, id string) (*entity.Subscription, error) {
		return h.continuation.RecordDecision(r.Context(), actor, id, req)
	})
}

// transition decodes an optional body into req and runs apply for the path id
func (h *SubscriptionHandler) transition(w http.ResponseWriter, r *http.Request, req interface{}, message string, apply func(actor entity.Actor, id string) (*entity.Subscription, error)) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	if err := validator.DecodeOptionalJSON(r, req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	sub, err := apply(actor, mux.Vars(r)["id"])
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, message, sub)
}

func currentActor(w http.ResponseWriter, r *http.Request) (entity.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return entity.Actor{}, false
	}
	return actor, true
}
