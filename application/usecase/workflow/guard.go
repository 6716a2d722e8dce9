package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
	apperr "github.com/Subrata270/studio-sub001/domain/error"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

type Options struct {
	MaxRetries        int
	Backoff           time.Duration
	RepositoryTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxRetries:        3,
		Backoff:           25 * time.Millisecond,
		RepositoryTimeout: 5 * time.Second,
	}
}

// Guard runs subscription writes under the per-subscription lock with a
// repository deadline, retrying optimistic conflicts a bounded number of times.
type Guard struct {
	repo        outbound.SubscriptionRepository
	locker      outbound.SubscriptionLocker
	opts        Options
	logger      logger.Logger
	afterCommit func(ctx context.Context, notifications []*entity.Notification)
}

func NewGuard(repo outbound.SubscriptionRepository, locker outbound.SubscriptionLocker, opts Options, log logger.Logger) *Guard {
	def := DefaultOptions()
	if opts.MaxRetries < 1 {
		opts.MaxRetries = def.MaxRetries
	}
	if opts.RepositoryTimeout <= 0 {
		opts.RepositoryTimeout = def.RepositoryTimeout
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}
	return &Guard{
		repo:   repo,
		locker: locker,
		opts:   opts,
		logger: log.WithFields(map[string]interface{}{"component": "subscription_guard"}),
	}
}

// OnCommit registers fn to receive the notifications of every successful write
func (g *Guard) OnCommit(fn func(ctx context.Context, notifications []*entity.Notification)) {
	g.afterCommit = fn
}

// Update applies mutate to the subscription named by subject
func (g *Guard) Update(ctx context.Context, subject apperr.Subject, mutate outbound.SubscriptionMutator) (*entity.Subscription, error) {
	var out *entity.Subscription
	var committed []*entity.Notification
	err := g.Do(ctx, subject, func(ctx context.Context) error {
		var notes []*entity.Notification
		sub, err := g.repo.Update(ctx, subject.SubscriptionID, func(s *entity.Subscription) ([]*entity.Notification, error) {
			n, err := mutate(s)
			notes = n
			return n, err
		})
		if err != nil {
			return err
		}
		out = sub
		committed = notes
		return nil
	})
	if err == nil && g.afterCommit != nil && len(committed) > 0 {
		g.afterCommit(ctx, committed)
	}
	return out, err
}

// Do runs fn while holding the subscription lock. Version conflicts and lock
// contention are retried; anything else is returned on first sight.
func (g *Guard) Do(ctx context.Context, subject apperr.Subject, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= g.opts.MaxRetries; attempt++ {
		err := g.attempt(ctx, subject.SubscriptionID, fn)
		if err == nil {
			return nil
		}
		if !retryable(ctx, err) {
			return MapRepoError(subject, "update subscription", err)
		}
		lastErr = err
		g.logger.Debug(ctx, "Subscription write conflicted, retrying", map[string]interface{}{
			"subscription_id": subject.SubscriptionID,
			"action":          subject.Action,
			"attempt":         attempt,
		})
		if attempt < g.opts.MaxRetries {
			if err := sleep(ctx, g.opts.Backoff*time.Duration(attempt)); err != nil {
				return MapRepoError(subject, "update subscription", err)
			}
		}
	}
	g.logger.Warn(ctx, "Subscription write gave up after retries", map[string]interface{}{
		"subscription_id": subject.SubscriptionID,
		"action":          subject.Action,
		"attempts":        g.opts.MaxRetries,
	})
	return apperr.TransitionFailed(subject, g.opts.MaxRetries, lastErr)
}

func (g *Guard) attempt(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, g.opts.RepositoryTimeout)
	defer cancel()

	release, err := g.locker.Lock(opCtx, id)
	if err != nil {
		return err
	}
	defer release()

	return fn(opCtx)
}

// Find reads one subscription under the repository deadline
func (g *Guard) Find(ctx context.Context, subject apperr.Subject) (*entity.Subscription, error) {
	opCtx, cancel := context.WithTimeout(ctx, g.opts.RepositoryTimeout)
	defer cancel()

	sub, err := g.repo.FindByID(opCtx, subject.SubscriptionID)
	if err != nil {
		return nil, MapRepoError(subject, "find subscription", err)
	}
	return sub, nil
}

// Run executes a repository call under the repository deadline
func (g *Guard) Run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, g.opts.RepositoryTimeout)
	defer cancel()

	if err := fn(opCtx); err != nil {
		return MapRepoError(apperr.Subject{}, op, err)
	}
	return nil
}

// MapRepoError turns adapter errors into the application error catalog
func MapRepoError(subject apperr.Subject, op string, err error) error {
	var appErr *apperr.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, outbound.ErrSubscriptionNotFound):
		return apperr.NotFound("subscription", subject.SubscriptionID)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, outbound.ErrLockNotAcquired):
		return apperr.RepositoryTimeout(op, err)
	case errors.Is(err, outbound.ErrVersionConflict):
		return apperr.Conflict(subject.String())
	default:
		return apperr.Internal(op, err)
	}
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return errors.Is(err, outbound.ErrVersionConflict) || errors.Is(err, outbound.ErrLockNotAcquired)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
