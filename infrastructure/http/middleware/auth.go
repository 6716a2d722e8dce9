package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
	"github.com/Subrata270/studio-sub001/infrastructure/http/response"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

type actorKey struct{}

// AuthMiddleware turns a bearer token into the acting user. The token only
// names the user; role and department always come from the user store.
type AuthMiddleware struct {
	tokenService outbound.TokenService
	users        outbound.UserRepository
	logger       logger.Logger
}

func NewAuthMiddleware(tokenService outbound.TokenService, users outbound.UserRepository, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
		users:        users,
		logger:       log,
	}
}

func (m *AuthMiddleware) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.tokenService.ValidateAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		user, err := m.users.FindByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, outbound.ErrUserNotFound) {
				response.Unauthorized(w, "Unknown user")
				return
			}
			m.logger.Error(r.Context(), "Failed to resolve actor", err, map[string]interface{}{"user_id": claims.UserID})
			response.InternalServerError(w, "Failed to resolve user")
			return
		}

		ctx := WithActor(r.Context(), user.Actor())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithActor(ctx context.Context, actor entity.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor RequireActor stored
func ActorFromContext(ctx context.Context) (entity.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(entity.Actor)
	return actor, ok
}
