package inbound

import (
	"context"

	"github.com/Subrata270/studio-sub001/domain/entity"
)

type CreateUserRequest struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Subrole    string `json:"subrole,omitempty"`
	Department string `json:"department"`
}

// UpdateUserRequest changes only role, subrole and department
type UpdateUserRequest struct {
	Role       *string `json:"role,omitempty"`
	Subrole    *string `json:"subrole,omitempty"`
	Department *string `json:"department,omitempty"`
}

type ListUsersRequest struct {
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
	Filter ListUsersFilter `json:"filter"`
}

type ListUsersFilter struct {
	Name       string `json:"name,omitempty"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
}

type ListUsersResponse struct {
	Users      []*entity.User `json:"users"`
	Pagination PaginationInfo `json:"pagination"`
}

type UserManagementUseCase interface {
	CreateUser(ctx context.Context, actor entity.Actor, req CreateUserRequest) (*entity.User, error)
	// BootstrapAdmin creates the single administrator without an acting user
	BootstrapAdmin(ctx context.Context, req CreateUserRequest) (*entity.User, error)
	UpdateUser(ctx context.Context, actor entity.Actor, userID string, req UpdateUserRequest) (*entity.User, error)
	GetUserDetail(ctx context.Context, actor entity.Actor, userID string) (*entity.User, error)
	ListUsers(ctx context.Context, actor entity.Actor, req ListUsersRequest) (*ListUsersResponse, error)
}
