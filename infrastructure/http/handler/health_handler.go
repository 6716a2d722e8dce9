package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Subrata270/studio-sub001/infrastructure/http/response"
)

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: 2 * time.Second,
	}
}

func (h *HealthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
}

// Health returns 200 when every check passes and 503 otherwise
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = "unavailable"
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		response.WriteJSON(w, http.StatusServiceUnavailable, false, "unhealthy", status)
		return
	}
	response.Success(w, http.StatusOK, "healthy", status)
}
