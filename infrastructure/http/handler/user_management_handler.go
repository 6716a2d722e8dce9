package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/infrastructure/http/response"
	"github.com/Subrata270/studio-sub001/infrastructure/http/validator"
)

type UserManagementHandler struct {
	userManagementUseCase inbound.UserManagementUseCase
}

func NewUserManagementHandler(userManagementUseCase inbound.UserManagementUseCase) *UserManagementHandler {
	return &UserManagementHandler{
		userManagementUseCase: userManagementUseCase,
	}
}

// RegisterRoutes registers user routes. Admin checks happen in the use case.
func (h *UserManagementHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/me", h.Me).Methods(http.MethodGet)
	router.HandleFunc("/admin/users", h.CreateUser).Methods(http.MethodPost)
	router.HandleFunc("/admin/users", h.ListUsers).Methods(http.MethodGet)
	router.HandleFunc("/admin/users/{id}", h.GetUserDetail).Methods(http.MethodGet)
	router.HandleFunc("/admin/users/{id}", h.UpdateUser).Methods(http.MethodPatch)
}

// CreateUser creates a new user
func (h *UserManagementHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req inbound.CreateUserRequest
	if err := validator.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userManagementUseCase.CreateUser(r.Context(), actor, req)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusCreated, "User created successfully", user)
}

// UpdateUser changes role, subrole or department
func (h *UserManagementHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req inbound.UpdateUserRequest
	if err := validator.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userManagementUseCase.UpdateUser(r.Context(), actor, mux.Vars(r)["id"], req)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "User updated successfully", user)
}

func (h *UserManagementHandler) GetUserDetail(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	user, err := h.userManagementUseCase.GetUserDetail(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "success", user)
}

// Me returns the acting user
func (h *UserManagementHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	user, err := h.userManagementUseCase.GetUserDetail(r.Context(), actor, actor.ID)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "success", user)
}

// ListUsers retrieves a list of users with pagination and filters
func (h *UserManagementHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	req := inbound.ListUsersRequest{
		Page:  validator.QueryInt(r, "page", 1),
		Limit: validator.QueryInt(r, "limit", 0),
		Filter: inbound.ListUsersFilter{
			Name:       q.Get("name"),
			Role:       q.Get("role"),
			Department: q.Get("department"),
		},
	}

	result, err := h.userManagementUseCase.ListUsers(r.Context(), actor, req)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "success", result)
}
