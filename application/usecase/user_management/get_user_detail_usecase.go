package user_management

import (
	"context"
	"errors"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
	apperr "github.com/Subrata270/studio-sub001/domain/error"
)

type GetUserDetailUseCase struct {
	userRepo outbound.UserRepository
}

func NewGetUserDetailUseCase(userRepo outbound.UserRepository) *GetUserDetailUseCase {
	return &GetUserDetailUseCase{
		userRepo: userRepo,
	}
}

func (uc *GetUserDetailUseCase) Execute(ctx context.Context, actor entity.Actor, userID string) (*entity.User, error) {
	if userID == "" {
		return nil, apperr.Validation("id", "cannot be empty")
	}
	if actor.Role != entity.RoleAdmin && actor.ID != userID {
		return nil, apperr.Unauthorized(apperr.Subject{Action: "get_user", ActorID: actor.ID}, "admins may read any user, others only themselves")
	}

	user, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			return nil, apperr.NotFound("user", userID)
		}
		return nil, repoError("find user", err)
	}
	return user, nil
}
