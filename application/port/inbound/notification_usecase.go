package inbound

import (
	"context"

	"github.com/Subrata270/studio-sub001/domain/entity"
)

type ListNotificationsRequest struct {
	UnreadOnly bool `json:"unread_only"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
}

type NotificationUseCase interface {
	Notify(ctx context.Context, userID, message string) (string, error)
	ListForUser(ctx context.Context, userID string, req ListNotificationsRequest) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}
