package user_management

import (
	"context"
	"time"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

type UserManagementUseCaseImpl struct {
	createUserUseCase    *CreateUserUseCase
	updateUserUseCase    *UpdateUserUseCase
	getUserDetailUseCase *GetUserDetailUseCase
	listUsersUseCase     *ListUsersUseCase
}

func NewUserManagementUseCase(userRepo outbound.UserRepository, log logger.Logger) inbound.UserManagementUseCase {
	return NewUserManagementUseCaseWithTimeout(userRepo, log, defaultRepositoryTimeout)
}

// NewUserManagementUseCaseWithTimeout bounds each repository call by timeout
func NewUserManagementUseCaseWithTimeout(userRepo outbound.UserRepository, log logger.Logger, timeout time.Duration) inbound.UserManagementUseCase {
	userRepo = withDeadline(userRepo, timeout)
	log = log.WithFields(map[string]interface{}{"component": "user_management"})
	return &UserManagementUseCaseImpl{
		createUserUseCase:    NewCreateUserUseCase(userRepo, log),
		updateUserUseCase:    NewUpdateUserUseCase(userRepo, log),
		getUserDetailUseCase: NewGetUserDetailUseCase(userRepo),
		listUsersUseCase:     NewListUsersUseCase(userRepo),
	}
}

func (uc *UserManagementUseCaseImpl) CreateUser(ctx context.Context, actor entity.Actor, req inbound.CreateUserRequest) (*entity.User, error) {
	return uc.createUserUseCase.Execute(ctx, actor, req)
}

func (uc *UserManagementUseCaseImpl) BootstrapAdmin(ctx context.Context, req inbound.CreateUserRequest) (*entity.User, error) {
	return uc.createUserUseCase.Bootstrap(ctx, req)
}

func (uc *UserManagementUseCaseImpl) UpdateUser(ctx context.Context, actor entity.Actor, userID string, req inbound.UpdateUserRequest) (*entity.User, error) {
	return uc.updateUserUseCase.Execute(ctx, actor, userID, req)
}

func (uc *UserManagementUseCaseImpl) GetUserDetail(ctx context.Context, actor entity.Actor, userID string) (*entity.User, error) {
	return uc.getUserDetailUseCase.Execute(ctx, actor, userID)
}

func (uc *UserManagementUseCaseImpl) ListUsers(ctx context.Context, actor entity.Actor, req inbound.ListUsersRequest) (*inbound.ListUsersResponse, error) {
	return uc.listUsersUseCase.Execute(ctx, actor, req)
}
