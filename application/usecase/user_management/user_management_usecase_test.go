package user_management

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
	apperr "github.com/Subrata270/studio-sub001/domain/error"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindAll(ctx context.Context, offset, limit int, filters outbound.UserFilters) ([]*entity.User, int, error) {
	args := m.Called(ctx, offset, limit, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entity.User), args.Int(1), args.Error(2)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) FindByRole(ctx context.Context, role entity.Role, subrole entity.Subrole) ([]*entity.User, error) {
	args := m.Called(ctx, role, subrole)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.User), args.Error(1)
}

func (m *MockUserRepository) FindHODsByDepartment(ctx context.Context, department string) ([]*entity.User, error) {
	args := m.Called(ctx, department)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.User), args.Error(1)
}

var admin = entity.Actor{ID: "admin-1", Role: entity.RoleAdmin}

func TestCreateUser_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(MockUserRepository)
	uc := NewUserManagementUseCase(repo, logger.NewNopLogger())

	repo.On("ExistsByEmail", mock.Anything, "ana@corp.test").Return(false, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *entity.User) bool {
		return u.Role == entity.RoleFinance && u.Subrole == entity.SubroleAPA && u.ID != ""
	})).Return(nil)

	// Act
	user, err := uc.CreateUser(ctx, admin, inbound.CreateUserRequest{
		Name:    "Ana",
		Email:   "ana@corp.test",
		Role:    "finance",
		Subrole: "APA",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.SubroleAPA, user.Subrole)
	repo.AssertExpectations(t)
}

func TestCreateUser_RequesterAlias(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	uc := NewUserManagementUseCase(repo, logger.NewNopLogger())

	repo.On("ExistsByEmail", mock.Anything, "pia@corp.test").Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	user, err := uc.CreateUser(ctx, admin, inbound.CreateUserRequest{
		ID:         "poc-1",
		Name:       "Pia",
		Email:      "pia@corp.test",
		Role:       "requester",
		Department: "Engineering",
	})

	require.NoError(t, err)
	assert.Equal(t, "poc-1", user.ID)
	assert.Equal(t, entity.RolePOC, user.Role)
}

func TestCreateUser_Validation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		req  inbound.CreateUserRequest
	}{
		{"short name", inbound.CreateUserRequest{Name: "A", Email: "a@corp.test", Role: "admin"}},
		{"bad email", inbound.CreateUserRequest{Name: "Ana", Email: "nope", Role: "admin"}},
		{"unknown role", inbound.CreateUserRequest{Name: "Ana", Email: "a@corp.test", Role: "system"}},
		{"finance without subrole", inbound.CreateUserRequest{Name: "Ana", Email: "a@corp.test", Role: "finance"}},
		{"subrole on hod", inbound.CreateUserRequest{Name: "Ana", Email: "a@corp.test", Role: "hod", Subrole: "am", Department: "Ops"}},
		{"hod without department", inbound.CreateUserRequest{Name: "Ana", Email: "a@corp.test", Role: "hod"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			uc := NewUserManagementUseCase(repo, logger.NewNopLogger())

			_, err := uc.CreateUser(ctx, admin, tt.req)

			assert.ErrorIs(t, err, apperr.ErrValidation)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateUser_NonAdminRejected(t *testing.T) {
	repo := new(MockUserRepository)
	uc := NewUserManagementUseCase(repo, logger.NewNopLogger())

	_, err := uc.CreateUser(context.Background(), entity.Actor{ID: "hod-1", Role: entity.RoleHOD}, inbound.CreateUserRequest{})

	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	repo.AssertExpectations(t)
}

func TestCreateUser_SecondAdminConflicts(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	uc := NewUserManagementUseCase(repo, logger.NewNopLogger())

	repo.On("ExistsByEmail", mock.Anything, "root@corp.test").Return(false, nil)
	repo.On("FindByRole", mock.Anything, entity.RoleAdmin, entity.SubroleNone).Return([]*entity.User{{ID: "admin-1"}}, nil)

	_, err := uc.BootstrapAdmin(ctx, inbound.CreateUserRequest{Name: "Root", Email: "root@corp.test"})

	assert.ErrorIs(t, err, apperr.ErrConflict)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	uc := NewUserManagementUseCase(repo, logger.NewNopLogger())

	repo.On("ExistsByEmail", mock.Anything, "ana@corp.test").Return(true, nil)

	_, err := uc.CreateUser(ctx, admin, inbound.CreateUserRequest{Name: "Ana", Email: "ana@corp.test", Role: "admin"})

	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("moves department and clears subrole", func(t *testing.T) {
		repo := new(MockUserRepository)
		uc := NewUserManagementUseCase(repo, logger.NewNopLogger())
		existing := &entity.User{ID: "u-1", Role: entity.RoleFinance, Subrole: entity.SubroleAM}
		repo.On("FindByID", mock.Anything, "u-1").Return(existing, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(nil)

		role, dept := "hod", "Sales"
		user, err := uc.UpdateUser(ctx, admin, "u-1", inbound.UpdateUserRequest{Role: &role, Department: &dept})

		require.NoError(t, err)
		assert.Equal(t, entity.RoleHOD, user.Role)
		assert.Equal(t, entity.SubroleNone, user.Subrole)
		assert.Equal(t, "Sales", user.Department)
	})

	t.Run("admin cannot be demoted", func(t *testing.T) {
		repo := new(MockUserRepository)
		uc := NewUserManagementUseCase(repo, logger.NewNopLogger())
		repo.On("FindByID", mock.Anything, "admin-1").Return(&entity.User{ID: "admin-1", Role: entity.RoleAdmin}, nil)

		role := "poc"
		_, err := uc.UpdateUser(ctx, admin, "admin-1", inbound.UpdateUserRequest{Role: &role})

		assert.ErrorIs(t, err, apperr.ErrValidation)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(MockUserRepository)
		uc := NewUserManagementUseCase(repo, logger.NewNopLogger())
		repo.On("FindByID", mock.Anything, "ghost").Return(nil, outbound.ErrUserNotFound)

		_, err := uc.UpdateUser(ctx, admin, "ghost", inbound.UpdateUserRequest{})

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("repository failure is internal", func(t *testing.T) {
		repo := new(MockUserRepository)
		uc := NewUserManagementUseCase(repo, logger.NewNopLogger())
		repo.On("FindByID", mock.Anything, "u-1").Return(nil, errors.New("connection reset"))

		_, err := uc.UpdateUser(ctx, admin, "u-1", inbound.UpdateUserRequest{})

		assert.ErrorIs(t, err, apperr.ErrInternal)
	})
}

func TestGetUserDetail_SelfOrAdmin(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	uc := NewUserManagementUseCase(repo, logger.NewNopLogger())
	repo.On("FindByID", mock.Anything, "poc-1").Return(&entity.User{ID: "poc-1", Role: entity.RolePOC}, nil)

	_, err := uc.GetUserDetail(ctx, entity.Actor{ID: "poc-1", Role: entity.RolePOC}, "poc-1")
	assert.NoError(t, err)

	_, err = uc.GetUserDetail(ctx, entity.Actor{ID: "poc-2", Role: entity.RolePOC}, "poc-1")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestListUsers_Pagination(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	uc := NewUserManagementUseCase(repo, logger.NewNopLogger())
	repo.On("FindAll", mock.Anything, 10, 10, outbound.UserFilters{Role: "hod"}).Return([]*entity.User{{ID: "hod-1"}}, 11, nil)

	resp, err := uc.ListUsers(ctx, admin, inbound.ListUsersRequest{Page: 2, Limit: 10, Filter: inbound.ListUsersFilter{Role: "hod"}})

	require.NoError(t, err)
	assert.Len(t, resp.Users, 1)
	assert.Equal(t, 11, resp.Pagination.Total)
	repo.AssertExpectations(t)
}

func TestRepositoryCallsCarryDeadline(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	uc := NewUserManagementUseCaseWithTimeout(repo, logger.NewNopLogger(), 20*time.Millisecond)

	stall := func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}
	hasDeadline := mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})
	repo.On("FindByID", hasDeadline, "u-1").Run(stall).Return(nil, context.DeadlineExceeded)
	repo.On("FindAll", hasDeadline, 0, 10, outbound.UserFilters{}).Run(stall).Return(nil, 0, context.DeadlineExceeded)

	_, err := uc.GetUserDetail(ctx, admin, "u-1")
	assert.ErrorIs(t, err, apperr.ErrRepositoryTimeout)

	_, err = uc.ListUsers(ctx, admin, inbound.ListUsersRequest{Page: 1, Limit: 10})
	assert.ErrorIs(t, err, apperr.ErrRepositoryTimeout)

	repo.AssertExpectations(t)
}
