package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Subrata270/studio-sub001/infrastructure/http/response"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
	"github.com/Subrata270/studio-sub001/infrastructure/service/ratelimit"
)

type RateLimitMiddleware struct {
	rateLimitService ratelimit.RateLimitService
	limit            int
	window           time.Duration
	logger           logger.Logger
}

func NewRateLimitMiddleware(rateLimitService ratelimit.RateLimitService, limit int, window time.Duration, log logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rateLimitService: rateLimitService,
		limit:            limit,
		window:           window,
		logger:           log,
	}
}

// RateLimit counts per actor when one is known, per client IP otherwise.
// Counter failures let the request through.
func (m *RateLimitMiddleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.rateLimitService == nil || m.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()

		key := fmt.Sprintf("ip:%s", getClientIP(r))
		if actor, ok := ActorFromContext(ctx); ok {
			key = fmt.Sprintf("user:%s", actor.ID)
		}

		allowed, err := m.rateLimitService.Allow(ctx, key, m.limit, m.window)
		if err != nil {
			m.logger.Error(ctx, "Failed to check rate limit", err, map[string]interface{}{"key": key})
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			m.logger.Warn(ctx, "Rate limit exceeded", map[string]interface{}{
				"key":  key,
				"path": r.URL.Path,
			})
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(m.window.Seconds())))
			response.TooManyRequests(w, "Too many requests. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts client IP from request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
