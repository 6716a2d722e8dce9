package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
	apperr "github.com/Subrata270/studio-sub001/domain/error"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200

	defaultRepositoryTimeout = 5 * time.Second
)

// Dispatcher decides which in-app notifications exist and stores them.
// Delivery beyond the notification store is someone else's job.
type Dispatcher struct {
	repo      outbound.NotificationRepository
	publisher outbound.NotificationPublisher
	logger    logger.Logger
	timeout   time.Duration
	now       func() time.Time
}

func NewDispatcher(repo outbound.NotificationRepository, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		repo:   repo,
		logger:  log.WithFields(map[string]interface{}{"component": "notification_dispatcher"}),
		timeout: defaultRepositoryTimeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetRepositoryTimeout bounds every notification store call. Non-positive
// values keep the current deadline.
func (d *Dispatcher) SetRepositoryTimeout(timeout time.Duration) {
	if timeout > 0 {
		d.timeout = timeout
	}
}

var _ inbound.NotificationUseCase = (*Dispatcher)(nil)

// SetPublisher attaches a live delivery channel for committed notifications
func (d *Dispatcher) SetPublisher(p outbound.NotificationPublisher) {
	d.publisher = p
}

// Published hands notifications that are already stored to the publisher
func (d *Dispatcher) Published(ctx context.Context, notifications []*entity.Notification) {
	if d.publisher == nil {
		return
	}
	for _, n := range notifications {
		d.publisher.Publish(n)
	}
}

// Compose builds one unread notification per distinct non-empty recipient
// without persisting anything.
func (d *Dispatcher) Compose(subscriptionID string, kind entity.NotificationKind, message string, userIDs ...string) []*entity.Notification {
	seen := make(map[string]struct{}, len(userIDs))
	out := make([]*entity.Notification, 0, len(userIDs))
	now := d.now()
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, &entity.Notification{
			ID:             uuid.NewString(),
			UserID:         id,
			SubscriptionID: subscriptionID,
			Kind:           kind,
			Message:        message,
			CreatedAt:      now,
		})
	}
	return out
}

// Notify stores a free-form notification for one user
func (d *Dispatcher) Notify(ctx context.Context, userID, message string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", apperr.Validation("user_id", "is required")
	}
	if strings.TrimSpace(message) == "" {
		return "", apperr.Validation("message", "is required")
	}
	n := d.Compose("", entity.NotificationGeneral, message, userID)[0]
	err := d.withTimeout(ctx, func(ctx context.Context) error {
		return d.repo.Create(ctx, n)
	})
	if err != nil {
		d.logger.Error(ctx, "Failed to store notification", err, map[string]interface{}{"user_id": userID})
		return "", mapRepoError("create notification", err)
	}
	d.Published(ctx, []*entity.Notification{n})
	return n.ID, nil
}

func (d *Dispatcher) ListForUser(ctx context.Context, userID string, req inbound.ListNotificationsRequest) ([]*entity.Notification, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = defaultPageSize
	}
	if req.Limit > maxPageSize {
		req.Limit = maxPageSize
	}
	var items []*entity.Notification
	err := d.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		items, err = d.repo.ListByUser(ctx, userID, req.UnreadOnly, (req.Page-1)*req.Limit, req.Limit)
		return err
	})
	if err != nil {
		return nil, mapRepoError("list notifications", err)
	}
	return items, nil
}

func (d *Dispatcher) MarkRead(ctx context.Context, userID, id string) error {
	err := d.withTimeout(ctx, func(ctx context.Context) error {
		return d.repo.MarkRead(ctx, userID, id)
	})
	if err != nil {
		if errors.Is(err, outbound.ErrNotificationNotFound) {
			return apperr.NotFound("notification", id)
		}
		return mapRepoError("mark notification read", err)
	}
	return nil
}

func (d *Dispatcher) MarkAllRead(ctx context.Context, userID string) (int, error) {
	var n int
	err := d.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		n, err = d.repo.MarkAllRead(ctx, userID)
		return err
	})
	if err != nil {
		return 0, mapRepoError("mark all notifications read", err)
	}
	return n, nil
}

func (d *Dispatcher) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := d.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		n, err = d.repo.CountUnread(ctx, userID)
		return err
	})
	if err != nil {
		return 0, mapRepoError("count unread notifications", err)
	}
	return n, nil
}

func (d *Dispatcher) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return fn(opCtx)
}

func mapRepoError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.RepositoryTimeout(op, err)
	}
	return apperr.Internal(op, err)
}
