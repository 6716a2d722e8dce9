package outbound

import (
	"context"
	"errors"

	"github.com/Subrata270/studio-sub001/domain/entity"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrAdminExists       = errors.New("an administrator already exists")
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindAll(ctx context.Context, offset, limit int, filters UserFilters) ([]*entity.User, int, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// FindByRole returns users with role, narrowed to subrole when it is not empty
	FindByRole(ctx context.Context, role entity.Role, subrole entity.Subrole) ([]*entity.User, error)
	// FindHODsByDepartment matches department case-insensitively, oldest first
	FindHODsByDepartment(ctx context.Context, department string) ([]*entity.User, error)
}

type UserFilters struct {
	Name       string
	Role       string
	Department string
}
