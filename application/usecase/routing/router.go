package routing

import (
	"context"
	"errors"
	"strings"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
	apperr "github.com/Subrata270/studio-sub001/domain/error"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

// Router answers who must act next on a subscription
type Router struct {
	users  outbound.UserRepository
	logger logger.Logger
}

func NewRouter(users outbound.UserRepository, log logger.Logger) *Router {
	return &Router{
		users:  users,
		logger: log.WithFields(map[string]interface{}{"component": "approval_router"}),
	}
}

// ResolveHOD returns the head of department. When several are registered the
// earliest created one is chosen so routing stays stable.
func (r *Router) ResolveHOD(ctx context.Context, department string) (string, error) {
	department = strings.TrimSpace(department)
	if department == "" {
		return "", apperr.Validation("department", "is required")
	}
	hods, err := r.users.FindHODsByDepartment(ctx, department)
	if err != nil {
		return "", repoError("find department head", err)
	}
	if len(hods) == 0 {
		r.logger.Warn(ctx, "No department head registered", map[string]interface{}{"department": department})
		return "", apperr.NoApproverFound(department)
	}
	if len(hods) > 1 {
		r.logger.Warn(ctx, "Several department heads registered, using the earliest", map[string]interface{}{
			"department": department,
			"hod_id":     hods[0].ID,
			"candidates": len(hods),
		})
	}
	return hods[0].ID, nil
}

// FinancePool lists every finance user with subrole
func (r *Router) FinancePool(ctx context.Context, subrole entity.Subrole) ([]string, error) {
	users, err := r.users.FindByRole(ctx, entity.RoleFinance, subrole)
	if err != nil {
		return nil, repoError("find finance pool", err)
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	if len(ids) == 0 {
		r.logger.Warn(ctx, "Finance pool is empty", map[string]interface{}{"subrole": string(subrole)})
	}
	return ids, nil
}

func repoError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.RepositoryTimeout(op, err)
	}
	return apperr.Internal(op, err)
}
