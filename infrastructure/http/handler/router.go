package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Subrata270/studio-sub001/infrastructure/http/middleware"
	"github.com/Subrata270/studio-sub001/infrastructure/http/response"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

const APIPrefix = "/api/v1"

// RouteRegistrar is implemented by every handler in this package
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

type RouterConfig struct {
	Logger              logger.Logger
	CorrelationIDHeader string
	EnableRequestLog    bool

	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	Auth      *middleware.AuthMiddleware
	RateLimit *middleware.RateLimitMiddleware

	// Public routes are mounted at the root without authentication
	Public []RouteRegistrar
	// API routes are mounted under APIPrefix behind the actor middleware
	API []RouteRegistrar
}

// NewRouter assembles the mux router and the global middleware chain
func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	for _, h := range cfg.Public {
		h.RegisterRoutes(router)
	}

	api := router.PathPrefix(APIPrefix).Subrouter()
	api.Use(cfg.Auth.RequireActor)
	if cfg.RateLimit != nil {
		api.Use(cfg.RateLimit.RateLimit)
	}
	for _, h := range cfg.API {
		h.RegisterRoutes(api)
	}

	// Correlation id wraps everything so panics and CORS rejections carry it too
	var handler http.Handler = router
	if cfg.EnableRequestLog {
		handler = middleware.RequestLog(cfg.Logger)(handler)
	}
	handler = middleware.Recovery(cfg.Logger)(handler)
	if cfg.CORSEnabled && len(cfg.CORSAllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials)(handler)
	}
	return middleware.CorrelationID(cfg.CorrelationIDHeader)(handler)
}
