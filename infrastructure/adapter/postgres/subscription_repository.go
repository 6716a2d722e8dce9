package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
)

// SubscriptionRepositoryAdapter stores the full subscription document as
// JSONB next to the columns used for filtering. The version column carries
// the optimistic lock.
type SubscriptionRepositoryAdapter struct {
	db *sql.DB
}

func NewSubscriptionRepositoryAdapter(db *sql.DB) *SubscriptionRepositoryAdapter {
	return &SubscriptionRepositoryAdapter{db: db}
}

var _ outbound.SubscriptionRepository = (*SubscriptionRepositoryAdapter)(nil)

func (r *SubscriptionRepositoryAdapter) FindByID(ctx context.Context, id string) (*entity.Subscription, error) {
	return findSubscription(ctx, r.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func findSubscription(ctx context.Context, q queryRower, id string) (*entity.Subscription, error) {
	var (
		data    []byte
		version int64
	)
	err := q.QueryRowContext(ctx, `SELECT data, version FROM subscriptions WHERE id = $1`, id).Scan(&data, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return decodeSubscription(data, version)
}

func decodeSubscription(data []byte, version int64) (*entity.Subscription, error) {
	var sub entity.Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subscription: %w", err)
	}
	sub.Version = version
	return &sub, nil
}

func (r *SubscriptionRepositoryAdapter) Create(ctx context.Context, sub *entity.Subscription, notifications []*entity.Notification) error {
	if sub == nil || sub.ID == "" {
		return fmt.Errorf("subscription ID is required")
	}
	sub.Version = 1
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO subscriptions (id, status, department, requested_by, hod_id, request_date, expiry_date, data, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		_, err := tx.ExecContext(ctx, query,
			sub.ID,
			string(sub.Status),
			sub.Department,
			sub.RequestedBy,
			sub.HodID,
			sub.RequestDate,
			sub.ExpiryDate,
			string(data),
			sub.Version,
			sub.CreatedAt,
			sub.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		return insertNotifications(ctx, tx, notifications)
	})
}

// Update reads the row, runs mutate outside any transaction, then writes
// back only when the version is still the one read.
func (r *SubscriptionRepositoryAdapter) Update(ctx context.Context, id string, mutate outbound.SubscriptionMutator) (*entity.Subscription, error) {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	readVersion := current.Version
	original := current.Clone()

	notifications, err := mutate(current)
	if errors.Is(err, outbound.ErrNoChange) {
		return original, nil
	}
	if err != nil {
		return nil, err
	}

	current.ID = id
	current.Version = readVersion + 1
	current.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal subscription: %w", err)
	}

	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			UPDATE subscriptions
			SET status = $3, department = $4, hod_id = $5, expiry_date = $6, data = $7, version = version + 1, updated_at = $8
			WHERE id = $1 AND version = $2
		`
		result, err := tx.ExecContext(ctx, query,
			id,
			readVersion,
			string(current.Status),
			current.Department,
			current.HodID,
			current.ExpiryDate,
			string(data),
			current.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			if _, err := findSubscription(ctx, tx, id); errors.Is(err, outbound.ErrSubscriptionNotFound) {
				return err
			}
			return outbound.ErrVersionConflict
		}
		return insertNotifications(ctx, tx, notifications)
	})
	if err != nil {
		return nil, err
	}
	return current, nil
}

func (r *SubscriptionRepositoryAdapter) Query(ctx context.Context, filter entity.SubscriptionFilter) ([]*entity.Subscription, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(*filter.Status))
		argIndex++
	}
	if filter.Department != nil {
		conditions = append(conditions, fmt.Sprintf("LOWER(department) = LOWER($%d)", argIndex))
		args = append(args, strings.TrimSpace(*filter.Department))
		argIndex++
	}
	if filter.RequestedBy != nil {
		conditions = append(conditions, fmt.Sprintf("requested_by = $%d", argIndex))
		args = append(args, *filter.RequestedBy)
		argIndex++
	}
	if filter.HodID != nil {
		conditions = append(conditions, fmt.Sprintf("hod_id = $%d", argIndex))
		args = append(args, *filter.HodID)
		argIndex++
	}
	where := "WHERE 1=1"
	if len(conditions) > 0 {
		where += " AND " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM subscriptions "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	query := "SELECT data, version FROM subscriptions " + where + " ORDER BY request_date DESC, id ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*entity.Subscription
	for rows.Next() {
		var (
			data    []byte
			version int64
		)
		if err := rows.Scan(&data, &version); err != nil {
			return nil, 0, fmt.Errorf("failed to scan subscription: %w", err)
		}
		sub, err := decodeSubscription(data, version)
		if err != nil {
			return nil, 0, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating subscriptions: %w", err)
	}
	return subs, total, nil
}

// SoftDelete archives the snapshot and removes the live row in one transaction
func (r *SubscriptionRepositoryAdapter) SoftDelete(ctx context.Context, id string, expectedVersion int64, archive *entity.DeletedSubscription) error {
	snapshot, err := json.Marshal(archive.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1 AND version = $2`, id, expectedVersion)
		if err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			if _, err := findSubscription(ctx, tx, id); errors.Is(err, outbound.ErrSubscriptionNotFound) {
				return err
			}
			return outbound.ErrVersionConflict
		}

		query := `
			INSERT INTO deleted_subscriptions (id, subscription_id, snapshot, deleted_by, justification, deleted_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		_, err = tx.ExecContext(ctx, query,
			archive.ID,
			id,
			string(snapshot),
			archive.DeletedBy,
			archive.Justification,
			archive.DeletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to archive subscription: %w", err)
		}
		return nil
	})
}

type DeletedSubscriptionRepositoryAdapter struct {
	db *sql.DB
}

func NewDeletedSubscriptionRepositoryAdapter(db *sql.DB) *DeletedSubscriptionRepositoryAdapter {
	return &DeletedSubscriptionRepositoryAdapter{db: db}
}

var _ outbound.DeletedSubscriptionRepository = (*DeletedSubscriptionRepositoryAdapter)(nil)

const deletedSelectColumns = "id, snapshot, deleted_by, justification, deleted_at"

func scanDeleted(row rowScanner) (*entity.DeletedSubscription, error) {
	var (
		d        entity.DeletedSubscription
		snapshot []byte
	)
	if err := row.Scan(&d.ID, &snapshot, &d.DeletedBy, &d.Justification, &d.DeletedAt); err != nil {
		return nil, err
	}
	var sub entity.Subscription
	if err := json.Unmarshal(snapshot, &sub); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	d.Snapshot = &sub
	return &d, nil
}

func (r *DeletedSubscriptionRepositoryAdapter) FindByID(ctx context.Context, id string) (*entity.DeletedSubscription, error) {
	d, err := scanDeleted(r.db.QueryRowContext(ctx, `SELECT `+deletedSelectColumns+` FROM deleted_subscriptions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to find deleted subscription: %w", err)
	}
	return d, nil
}

func (r *DeletedSubscriptionRepositoryAdapter) FindAll(ctx context.Context, offset, limit int) ([]*entity.DeletedSubscription, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deleted_subscriptions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count deleted subscriptions: %w", err)
	}

	query := `SELECT ` + deletedSelectColumns + ` FROM deleted_subscriptions ORDER BY deleted_at DESC, id ASC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query deleted subscriptions: %w", err)
	}
	defer rows.Close()

	var out []*entity.DeletedSubscription
	for rows.Next() {
		d, err := scanDeleted(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan deleted subscription: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating deleted subscriptions: %w", err)
	}
	return out, total, nil
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
