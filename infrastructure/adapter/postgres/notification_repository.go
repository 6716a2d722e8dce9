package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
)

type NotificationRepositoryAdapter struct {
	db *sql.DB
}

func NewNotificationRepositoryAdapter(db *sql.DB) *NotificationRepositoryAdapter {
	return &NotificationRepositoryAdapter{db: db}
}

var _ outbound.NotificationRepository = (*NotificationRepositoryAdapter)(nil)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertNotifications(ctx context.Context, ex execer, notifications []*entity.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, subscription_id, kind, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, n := range notifications {
		_, err := ex.ExecContext(ctx, query,
			n.ID,
			n.UserID,
			n.SubscriptionID,
			string(n.Kind),
			n.Message,
			n.IsRead,
			n.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
	}
	return nil
}

func (r *NotificationRepositoryAdapter) Create(ctx context.Context, notifications ...*entity.Notification) error {
	if len(notifications) == 1 {
		return insertNotifications(ctx, r.db, notifications)
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertNotifications(ctx, tx, notifications)
	})
}

func (r *NotificationRepositoryAdapter) ListByUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]*entity.Notification, error) {
	query := `
		SELECT id, user_id, subscription_id, kind, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1
	`
	args := []interface{}{userID}
	if unreadOnly {
		query += " AND is_read = FALSE"
	}
	query += " ORDER BY created_at DESC, seq DESC"
	if limit > 0 {
		query += " LIMIT $2 OFFSET $3"
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.SubscriptionID, &n.Kind, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return out, nil
}

func (r *NotificationRepositoryAdapter) MarkRead(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return outbound.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepositoryAdapter) MarkAllRead(ctx context.Context, userID string) (int, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

func (r *NotificationRepositoryAdapter) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}
