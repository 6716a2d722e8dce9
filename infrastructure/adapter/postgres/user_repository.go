package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
)

const (
	uniqueViolation     = "23505"
	singleAdminIndex    = "users_single_admin"
	userSelectColumns   = "id, name, email, role, subrole, department, created_at, updated_at"
	usersOldestFirstSQL = "ORDER BY created_at ASC, id ASC"
)

type UserRepositoryAdapter struct {
	db *sql.DB
}

func NewUserRepositoryAdapter(db *sql.DB) outbound.UserRepository {
	return &UserRepositoryAdapter{
		db: db,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.Subrole,
		&user.Department,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryAdapter) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if id == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}

	query := `SELECT ` + userSelectColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

func (r *UserRepositoryAdapter) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}

	query := `SELECT ` + userSelectColumns + ` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepositoryAdapter) Create(ctx context.Context, user *entity.User) error {
	if user == nil {
		return fmt.Errorf("user cannot be nil")
	}
	if user.ID == "" || user.Email == "" {
		return fmt.Errorf("user ID and email are required")
	}

	query := `
		INSERT INTO users (id, name, email, role, subrole, department, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		string(user.Role),
		string(user.Subrole),
		user.Department,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update writes role, subrole and department. Name and email never change.
func (r *UserRepositoryAdapter) Update(ctx context.Context, user *entity.User) error {
	if user == nil {
		return fmt.Errorf("user cannot be nil")
	}

	query := `
		UPDATE users
		SET role = $2, subrole = $3, department = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		user.ID,
		string(user.Role),
		string(user.Subrole),
		user.Department,
		user.UpdatedAt,
	)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return outbound.ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryAdapter) FindAll(ctx context.Context, offset, limit int, filters outbound.UserFilters) ([]*entity.User, int, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filters.Name != "" {
		whereClause += fmt.Sprintf(" AND name ILIKE $%d", argIndex)
		args = append(args, "%"+filters.Name+"%")
		argIndex++
	}
	if filters.Role != "" {
		whereClause += fmt.Sprintf(" AND role = $%d", argIndex)
		args = append(args, filters.Role)
		argIndex++
	}
	if filters.Department != "" {
		whereClause += fmt.Sprintf(" AND LOWER(department) = LOWER($%d)", argIndex)
		args = append(args, strings.TrimSpace(filters.Department))
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM users %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		%s
		%s
		LIMIT $%d OFFSET $%d
	`, userSelectColumns, whereClause, usersOldestFirstSQL, argIndex, argIndex+1)
	args = append(args, limit, offset)

	users, err := r.queryUsers(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepositoryAdapter) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, fmt.Errorf("email cannot be empty")
	}

	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check if email exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepositoryAdapter) FindByRole(ctx context.Context, role entity.Role, subrole entity.Subrole) ([]*entity.User, error) {
	if role == "" {
		return nil, fmt.Errorf("role cannot be empty")
	}

	query := `SELECT ` + userSelectColumns + ` FROM users WHERE role = $1`
	args := []interface{}{string(role)}
	if subrole != entity.SubroleNone {
		query += ` AND subrole = $2`
		args = append(args, string(subrole))
	}
	return r.queryUsers(ctx, query+" "+usersOldestFirstSQL, args...)
}

func (r *UserRepositoryAdapter) FindHODsByDepartment(ctx context.Context, department string) ([]*entity.User, error) {
	query := `SELECT ` + userSelectColumns + `
		FROM users
		WHERE role = $1 AND LOWER(TRIM(department)) = LOWER(TRIM($2))
		` + usersOldestFirstSQL
	return r.queryUsers(ctx, query, string(entity.RoleHOD), department)
}

func (r *UserRepositoryAdapter) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*entity.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return nil
	}
	if pqErr.Constraint == singleAdminIndex {
		return outbound.ErrAdminExists
	}
	return outbound.ErrUserAlreadyExists
}
