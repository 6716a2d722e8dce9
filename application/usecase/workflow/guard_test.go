package workflow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
	apperr "github.com/Subrata270/studio-sub001/domain/error"
	"github.com/Subrata270/studio-sub001/infrastructure/adapter/memory"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

// conflictingRepo loses every optimistic write
type conflictingRepo struct {
	outbound.SubscriptionRepository
	calls int32
}

func (r *conflictingRepo) Update(ctx context.Context, id string, mutate outbound.SubscriptionMutator) (*entity.Subscription, error) {
	atomic.AddInt32(&r.calls, 1)
	return nil, outbound.ErrVersionConflict
}

// slowRepo blocks until the deadline fires
type slowRepo struct {
	outbound.SubscriptionRepository
}

func (r *slowRepo) Update(ctx context.Context, id string, mutate outbound.SubscriptionMutator) (*entity.Subscription, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (r *slowRepo) FindByID(ctx context.Context, id string) (*entity.Subscription, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func testSubject() apperr.Subject {
	return apperr.Subject{SubscriptionID: "sub-1", Action: "approve", ActorID: "hod-1"}
}

func noop(s *entity.Subscription) ([]*entity.Notification, error) {
	return nil, nil
}

func TestGuard_GivesUpAfterRetries(t *testing.T) {
	repo := &conflictingRepo{}
	guard := NewGuard(repo, memory.NewKeyedLocker(), Options{MaxRetries: 3, Backoff: time.Millisecond, RepositoryTimeout: time.Second}, logger.NewNopLogger())

	_, err := guard.Update(context.Background(), testSubject(), noop)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrTransitionFailed)
	assert.ErrorIs(t, err, outbound.ErrVersionConflict, "cause is kept")
	assert.Equal(t, int32(3), atomic.LoadInt32(&repo.calls))
}

func TestGuard_TimeoutIsNotRetried(t *testing.T) {
	guard := NewGuard(&slowRepo{}, memory.NewKeyedLocker(), Options{MaxRetries: 3, RepositoryTimeout: 20 * time.Millisecond}, logger.NewNopLogger())

	start := time.Now()
	_, err := guard.Update(context.Background(), testSubject(), noop)

	assert.ErrorIs(t, err, apperr.ErrRepositoryTimeout)
	assert.Less(t, time.Since(start), time.Second)

	_, err = guard.Find(context.Background(), testSubject())
	assert.ErrorIs(t, err, apperr.ErrRepositoryTimeout)
}

func TestGuard_DomainErrorsPassThrough(t *testing.T) {
	store := memory.NewStore()
	sub := &entity.Subscription{ID: "sub-1", Status: entity.StatusPending}
	require.NoError(t, store.Subscriptions().Create(context.Background(), sub, nil))
	guard := NewGuard(store.Subscriptions(), memory.NewKeyedLocker(), Options{}, logger.NewNopLogger())

	_, err := guard.Update(context.Background(), testSubject(), func(s *entity.Subscription) ([]*entity.Notification, error) {
		return nil, apperr.Validation("reason", "is required")
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = guard.Update(context.Background(), apperr.Subject{SubscriptionID: "missing"}, noop)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGuard_LockContentionFallsBackToTransitionFailed(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Subscriptions().Create(context.Background(), &entity.Subscription{ID: "sub-1"}, nil))
	locker := memory.NewKeyedLocker()
	release, err := locker.Lock(context.Background(), "sub-1")
	require.NoError(t, err)
	defer release()

	guard := NewGuard(store.Subscriptions(), locker, Options{MaxRetries: 2, RepositoryTimeout: 10 * time.Millisecond}, logger.NewNopLogger())
	_, err = guard.Update(context.Background(), testSubject(), noop)

	assert.ErrorIs(t, err, apperr.ErrTransitionFailed)
	assert.True(t, errors.Is(err, outbound.ErrLockNotAcquired))
}

func TestMapRepoError(t *testing.T) {
	s := testSubject()
	tests := []struct {
		name string
		err  error
		want *apperr.AppError
	}{
		{"not found", outbound.ErrSubscriptionNotFound, apperr.ErrNotFound},
		{"deadline", context.DeadlineExceeded, apperr.ErrRepositoryTimeout},
		{"conflict", outbound.ErrVersionConflict, apperr.ErrConflict},
		{"other", errors.New("boom"), apperr.ErrInternal},
		{"app error", apperr.Validation("x", "y"), apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, MapRepoError(s, "op", tt.err), tt.want)
		})
	}
}
