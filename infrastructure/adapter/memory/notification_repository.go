package memory

import (
	"context"
	"sort"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
)

type NotificationRepository struct {
	store *Store
}

var _ outbound.NotificationRepository = (*NotificationRepository)(nil)

func (r *NotificationRepository) Create(ctx context.Context, notifications ...*entity.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.appendNotifications(notifications)
	return nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]*entity.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*entity.Notification
	// reverse insertion order breaks CreatedAt ties newest first
	for i := len(r.store.notifications) - 1; i >= 0; i-- {
		n := r.store.notifications[i]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		c := *n
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	start, end := paginate(len(out), offset, limit)
	return out[start:end], nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, n := range r.store.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return outbound.ErrNotificationNotFound
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	count := 0
	for _, n := range r.store.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, n := range r.store.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}
