package outbound

import (
	"context"
	"errors"

	"github.com/Subrata270/studio-sub001/domain/entity"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrVersionConflict means the record changed between read and write
	ErrVersionConflict = errors.New("subscription version conflict")
	// ErrNoChange may be returned by a mutator to end Update without writing
	ErrNoChange = errors.New("no change")
)

// SubscriptionMutator edits a private copy of the stored subscription and
// returns the notifications to commit with it. Returning an error aborts the
// update and leaves storage untouched.
type SubscriptionMutator func(sub *entity.Subscription) ([]*entity.Notification, error)

type SubscriptionRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Subscription, error)
	// Create stores sub together with notifications
	Create(ctx context.Context, sub *entity.Subscription, notifications []*entity.Notification) error
	// Update reads id, applies mutate and writes the result only if the
	// version is unchanged, bumping it. The stored record is returned.
	Update(ctx context.Context, id string, mutate SubscriptionMutator) (*entity.Subscription, error)
	Query(ctx context.Context, filter entity.SubscriptionFilter) ([]*entity.Subscription, int, error)
	// SoftDelete removes id and stores archive in one unit
	SoftDelete(ctx context.Context, id string, expectedVersion int64, archive *entity.DeletedSubscription) error
}

type DeletedSubscriptionRepository interface {
	FindByID(ctx context.Context, id string) (*entity.DeletedSubscription, error)
	FindAll(ctx context.Context, offset, limit int) ([]*entity.DeletedSubscription, int, error)
}
