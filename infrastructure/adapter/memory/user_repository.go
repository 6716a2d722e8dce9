package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
)

type UserRepository struct {
	store *Store
}

var _ outbound.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, outbound.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.store.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, outbound.ErrUserNotFound
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[user.ID]; ok {
		return outbound.ErrUserAlreadyExists
	}
	for _, u := range r.store.users {
		if u.Email == user.Email {
			return outbound.ErrUserAlreadyExists
		}
		if user.Role == entity.RoleAdmin && u.Role == entity.RoleAdmin {
			return outbound.ErrAdminExists
		}
	}
	c := *user
	r.store.users[user.ID] = &c
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[user.ID]; !ok {
		return outbound.ErrUserNotFound
	}
	if user.Role == entity.RoleAdmin {
		for id, u := range r.store.users {
			if id != user.ID && u.Role == entity.RoleAdmin {
				return outbound.ErrAdminExists
			}
		}
	}
	c := *user
	r.store.users[user.ID] = &c
	return nil
}

func (r *UserRepository) FindAll(ctx context.Context, offset, limit int, filters outbound.UserFilters) ([]*entity.User, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []*entity.User
	for _, u := range r.store.users {
		if filters.Name != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(filters.Name)) {
			continue
		}
		if filters.Role != "" && string(u.Role) != filters.Role {
			continue
		}
		if filters.Department != "" && !entity.SameDepartment(u.Department, filters.Department) {
			continue
		}
		c := *u
		matched = append(matched, &c)
	}
	sortOldestFirst(matched)

	start, end := paginate(len(matched), offset, limit)
	return matched[start:end], len(matched), nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == outbound.ErrUserNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *UserRepository) FindByRole(ctx context.Context, role entity.Role, subrole entity.Subrole) ([]*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*entity.User
	for _, u := range r.store.users {
		if u.Role != role {
			continue
		}
		if subrole != entity.SubroleNone && u.Subrole != subrole {
			continue
		}
		c := *u
		out = append(out, &c)
	}
	sortOldestFirst(out)
	return out, nil
}

func (r *UserRepository) FindHODsByDepartment(ctx context.Context, department string) ([]*entity.User, error) {
	hods, err := r.FindByRole(ctx, entity.RoleHOD, entity.SubroleNone)
	if err != nil {
		return nil, err
	}
	out := hods[:0]
	for _, u := range hods {
		if entity.SameDepartment(u.Department, department) {
			out = append(out, u)
		}
	}
	return out, nil
}

func sortOldestFirst(users []*entity.User) {
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
}
