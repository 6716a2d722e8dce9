package outbound

import (
	"context"
	"errors"
)

var ErrLockNotAcquired = errors.New("subscription lock not acquired")

// SubscriptionLocker serializes work on one subscription. The returned
// release func must always be called.
type SubscriptionLocker interface {
	Lock(ctx context.Context, subscriptionID string) (release func(), err error)
}
