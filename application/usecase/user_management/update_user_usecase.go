package user_management

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
	apperr "github.com/Subrata270/studio-sub001/domain/error"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

// UpdateUserUseCase changes role, subrole and department. Nothing else on a
// user is mutable.
type UpdateUserUseCase struct {
	userRepo outbound.UserRepository
	logger   logger.Logger
}

func NewUpdateUserUseCase(userRepo outbound.UserRepository, log logger.Logger) *UpdateUserUseCase {
	return &UpdateUserUseCase{
		userRepo: userRepo,
		logger:   log,
	}
}

func (uc *UpdateUserUseCase) Execute(ctx context.Context, actor entity.Actor, userID string, req inbound.UpdateUserRequest) (*entity.User, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, apperr.Unauthorized(apperr.Subject{Action: "update_user", ActorID: actor.ID}, "admin role required")
	}

	user, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			return nil, apperr.NotFound("user", userID)
		}
		return nil, repoError("find user", err)
	}

	role := user.Role
	if req.Role != nil {
		parsed, ok := entity.ParseRole(*req.Role)
		if !ok {
			return nil, apperr.Validation("role", "must be one of poc, requester, hod, finance, admin")
		}
		role = parsed
	}
	if user.Role == entity.RoleAdmin && role != entity.RoleAdmin {
		return nil, apperr.Validation("role", "the administrator cannot be demoted")
	}

	subrole := user.Subrole
	if req.Subrole != nil {
		subrole = entity.Subrole(*req.Subrole)
	} else if role != entity.RoleFinance {
		subrole = entity.SubroleNone
	}
	subrole, err = validateSubrole(role, string(subrole))
	if err != nil {
		return nil, err
	}

	if role == entity.RoleAdmin && user.Role != entity.RoleAdmin {
		admins, err := uc.userRepo.FindByRole(ctx, entity.RoleAdmin, entity.SubroleNone)
		if err != nil {
			return nil, repoError("find admins", err)
		}
		if len(admins) > 0 {
			return nil, apperr.Conflict("an administrator already exists")
		}
	}

	if req.Department != nil {
		user.Department = strings.TrimSpace(*req.Department)
	}
	if (role == entity.RolePOC || role == entity.RoleHOD) && user.Department == "" {
		return nil, apperr.Validation("department", "is required for requesters and department heads")
	}
	user.Role = role
	user.Subrole = subrole
	user.UpdatedAt = time.Now().UTC()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, outbound.ErrAdminExists) {
			return nil, apperr.Conflict("an administrator already exists")
		}
		return nil, repoError("update user", err)
	}

	uc.logger.Info(ctx, "User updated", map[string]interface{}{
		"user_id":    user.ID,
		"role":       string(user.Role),
		"department": user.Department,
		"actor_id":   actor.ID,
	})
	return user, nil
}
