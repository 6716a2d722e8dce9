package user_management

import (
	"context"
	"time"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
)

const defaultRepositoryTimeout = 5 * time.Second

// deadlineUserRepository puts every user store call under a deadline
type deadlineUserRepository struct {
	next    outbound.UserRepository
	timeout time.Duration
}

func withDeadline(repo outbound.UserRepository, timeout time.Duration) outbound.UserRepository {
	if timeout <= 0 {
		timeout = defaultRepositoryTimeout
	}
	return &deadlineUserRepository{next: repo, timeout: timeout}
}

func (r *deadlineUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.next.FindByID(ctx, id)
}

func (r *deadlineUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.next.FindByEmail(ctx, email)
}

func (r *deadlineUserRepository) Create(ctx context.Context, user *entity.User) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.next.Create(ctx, user)
}

func (r *deadlineUserRepository) Update(ctx context.Context, user *entity.User) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.next.Update(ctx, user)
}

func (r *deadlineUserRepository) FindAll(ctx context.Context, offset, limit int, filters outbound.UserFilters) ([]*entity.User, int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.next.FindAll(ctx, offset, limit, filters)
}

func (r *deadlineUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.next.ExistsByEmail(ctx, email)
}

func (r *deadlineUserRepository) FindByRole(ctx context.Context, role entity.Role, subrole entity.Subrole) ([]*entity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.next.FindByRole(ctx, role, subrole)
}

func (r *deadlineUserRepository) FindHODsByDepartment(ctx context.Context, department string) ([]*entity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.next.FindHODsByDepartment(ctx, department)
}
