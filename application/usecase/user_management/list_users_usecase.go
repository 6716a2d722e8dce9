package user_management

import (
	"context"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
	apperr "github.com/Subrata270/studio-sub001/domain/error"
)

type ListUsersUseCase struct {
	userRepo outbound.UserRepository
}

func NewListUsersUseCase(userRepo outbound.UserRepository) *ListUsersUseCase {
	return &ListUsersUseCase{
		userRepo: userRepo,
	}
}

func (uc *ListUsersUseCase) Execute(ctx context.Context, actor entity.Actor, req inbound.ListUsersRequest) (*inbound.ListUsersResponse, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, apperr.Unauthorized(apperr.Subject{Action: "list_users", ActorID: actor.ID}, "admin role required")
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	offset := (req.Page - 1) * req.Limit

	filters := outbound.UserFilters{
		Name:       req.Filter.Name,
		Role:       req.Filter.Role,
		Department: req.Filter.Department,
	}
	if filters.Role != "" {
		if role, ok := entity.ParseRole(filters.Role); ok {
			filters.Role = string(role)
		}
	}

	users, total, err := uc.userRepo.FindAll(ctx, offset, req.Limit, filters)
	if err != nil {
		return nil, repoError("list users", err)
	}
	if users == nil {
		users = []*entity.User{}
	}

	return &inbound.ListUsersResponse{
		Users: users,
		Pagination: inbound.PaginationInfo{
			Page:  req.Page,
			Limit: req.Limit,
			Total: total,
		},
	}, nil
}
