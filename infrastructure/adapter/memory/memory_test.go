package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
)

func TestSubscriptionRepository_OptimisticUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Subscriptions()
	require.NoError(t, repo.Create(ctx, &entity.Subscription{ID: "sub-1", Status: entity.StatusPending}, nil))

	_, err := repo.Update(ctx, "sub-1", func(s *entity.Subscription) ([]*entity.Notification, error) {
		// a concurrent writer commits while this mutator runs
		_, inner := repo.Update(ctx, "sub-1", func(s *entity.Subscription) ([]*entity.Notification, error) {
			s.Status = entity.StatusDeclined
			return nil, nil
		})
		require.NoError(t, inner)
		s.Status = entity.StatusApproved
		return nil, nil
	})
	assert.ErrorIs(t, err, outbound.ErrVersionConflict)

	stored, err := repo.FindByID(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDeclined, stored.Status)
	assert.Equal(t, int64(2), stored.Version)
}

func TestSubscriptionRepository_NoChangeSkipsWrite(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Subscriptions()
	require.NoError(t, repo.Create(ctx, &entity.Subscription{ID: "sub-1", Status: entity.StatusActive}, nil))

	got, err := repo.Update(ctx, "sub-1", func(s *entity.Subscription) ([]*entity.Notification, error) {
		s.Status = entity.StatusExpired
		return nil, outbound.ErrNoChange
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, got.Status)
	assert.Equal(t, int64(1), got.Version)
}

func TestSubscriptionRepository_NotificationsCommitWithWrite(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Subscriptions()
	require.NoError(t, repo.Create(ctx, &entity.Subscription{ID: "sub-1"}, []*entity.Notification{{ID: "n-1", UserID: "hod-1"}}))

	_, err := repo.Update(ctx, "sub-1", func(s *entity.Subscription) ([]*entity.Notification, error) {
		return []*entity.Notification{{ID: "n-2", UserID: "hod-1"}}, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	count, err := store.Notifications().CountUnread(ctx, "hod-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "a failed mutation stores no notifications")
}

func TestSubscriptionRepository_SoftDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Subscriptions().Create(ctx, &entity.Subscription{ID: "sub-1"}, nil))
	archive := &entity.DeletedSubscription{ID: "del-1", Snapshot: &entity.Subscription{ID: "sub-1"}, DeletedBy: "admin-1"}

	assert.ErrorIs(t, store.Subscriptions().SoftDelete(ctx, "sub-1", 7, archive), outbound.ErrVersionConflict)
	require.NoError(t, store.Subscriptions().SoftDelete(ctx, "sub-1", 1, archive))

	_, err := store.Subscriptions().FindByID(ctx, "sub-1")
	assert.ErrorIs(t, err, outbound.ErrSubscriptionNotFound)

	items, total, err := store.Deleted().FindAll(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "sub-1", items[0].Snapshot.ID)
}

func TestUserRepository_SingleAdmin(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()
	require.NoError(t, users.Create(ctx, &entity.User{ID: "a-1", Email: "a1@corp.test", Role: entity.RoleAdmin}))

	err := users.Create(ctx, &entity.User{ID: "a-2", Email: "a2@corp.test", Role: entity.RoleAdmin})
	assert.ErrorIs(t, err, outbound.ErrAdminExists)

	require.NoError(t, users.Create(ctx, &entity.User{ID: "p-1", Email: "p1@corp.test", Role: entity.RolePOC}))
	err = users.Update(ctx, &entity.User{ID: "p-1", Email: "p1@corp.test", Role: entity.RoleAdmin})
	assert.ErrorIs(t, err, outbound.ErrAdminExists)
}

func TestKeyedLocker(t *testing.T) {
	locker := NewKeyedLocker()
	release, err := locker.Lock(context.Background(), "sub-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "sub-1")
	assert.ErrorIs(t, err, outbound.ErrLockNotAcquired)

	other, err := locker.Lock(context.Background(), "sub-2")
	require.NoError(t, err, "keys are independent")
	other()

	release()
	release()
	again, err := locker.Lock(context.Background(), "sub-1")
	require.NoError(t, err)
	again()

	assert.Empty(t, locker.locks)
}
