package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
)

type SubscriptionRepository struct {
	store *Store
}

var _ outbound.SubscriptionRepository = (*SubscriptionRepository)(nil)

func (r *SubscriptionRepository) FindByID(ctx context.Context, id string) (*entity.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, ok := r.store.subscriptions[id]
	if !ok {
		return nil, outbound.ErrSubscriptionNotFound
	}
	return s.Clone(), nil
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *entity.Subscription, notifications []*entity.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.subscriptions[sub.ID]; ok {
		return outbound.ErrVersionConflict
	}
	c := sub.Clone()
	if c.Version == 0 {
		c.Version = 1
	}
	r.store.subscriptions[sub.ID] = c
	r.store.appendNotifications(notifications)
	sub.Version = c.Version
	return nil
}

// Update reads without holding the lock while mutate runs, then commits only
// if nobody else wrote in between.
func (r *SubscriptionRepository) Update(ctx context.Context, id string, mutate outbound.SubscriptionMutator) (*entity.Subscription, error) {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	readVersion := current.Version
	original := current.Clone()

	notifications, err := mutate(current)
	if errors.Is(err, outbound.ErrNoChange) {
		return original, nil
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.subscriptions[id]
	if !ok {
		return nil, outbound.ErrSubscriptionNotFound
	}
	if stored.Version != readVersion {
		return nil, outbound.ErrVersionConflict
	}
	current.ID = id
	current.Version = readVersion + 1
	current.UpdatedAt = time.Now().UTC()
	r.store.subscriptions[id] = current.Clone()
	r.store.appendNotifications(notifications)
	return current, nil
}

func (r *SubscriptionRepository) Query(ctx context.Context, filter entity.SubscriptionFilter) ([]*entity.Subscription, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []*entity.Subscription
	for _, s := range r.store.subscriptions {
		if filter.Matches(s) {
			matched = append(matched, s.Clone())
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].RequestDate.Equal(matched[j].RequestDate) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].RequestDate.After(matched[j].RequestDate)
	})

	start, end := paginate(len(matched), filter.Offset, filter.Limit)
	return matched[start:end], len(matched), nil
}

func (r *SubscriptionRepository) SoftDelete(ctx context.Context, id string, expectedVersion int64, archive *entity.DeletedSubscription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.subscriptions[id]
	if !ok {
		return outbound.ErrSubscriptionNotFound
	}
	if stored.Version != expectedVersion {
		return outbound.ErrVersionConflict
	}
	c := *archive
	c.Snapshot = archive.Snapshot.Clone()
	r.store.deleted[archive.ID] = &c
	delete(r.store.subscriptions, id)
	return nil
}

type DeletedSubscriptionRepository struct {
	store *Store
}

var _ outbound.DeletedSubscriptionRepository = (*DeletedSubscriptionRepository)(nil)

func (r *DeletedSubscriptionRepository) FindByID(ctx context.Context, id string) (*entity.DeletedSubscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	d, ok := r.store.deleted[id]
	if !ok {
		return nil, outbound.ErrSubscriptionNotFound
	}
	c := *d
	c.Snapshot = d.Snapshot.Clone()
	return &c, nil
}

func (r *DeletedSubscriptionRepository) FindAll(ctx context.Context, offset, limit int) ([]*entity.DeletedSubscription, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*entity.DeletedSubscription, 0, len(r.store.deleted))
	for _, d := range r.store.deleted {
		c := *d
		c.Snapshot = d.Snapshot.Clone()
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DeletedAt.After(out[j].DeletedAt)
	})

	start, end := paginate(len(out), offset, limit)
	return out[start:end], len(out), nil
}
