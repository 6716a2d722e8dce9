package outbound

import (
	"context"
	"errors"

	"github.com/Subrata270/studio-sub001/domain/entity"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(ctx context.Context, notifications ...*entity.Notification) error
	// ListByUser returns newest first
	ListByUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}
