// Package memory keeps every repository in process memory. It backs the
// STORAGE_DRIVER=memory mode and the use case tests.
package memory

import (
	"sync"

	"github.com/Subrata270/studio-sub001/domain/entity"
)

// Store is the shared state behind the memory repositories. One mutex
// guards everything so subscription writes and their notifications land
// together.
type Store struct {
	mu            sync.RWMutex
	users         map[string]*entity.User
	subscriptions map[string]*entity.Subscription
	deleted       map[string]*entity.DeletedSubscription
	notifications []*entity.Notification
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]*entity.User),
		subscriptions: make(map[string]*entity.Subscription),
		deleted:       make(map[string]*entity.DeletedSubscription),
	}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

func (s *Store) Subscriptions() *SubscriptionRepository {
	return &SubscriptionRepository{store: s}
}

func (s *Store) Deleted() *DeletedSubscriptionRepository {
	return &DeletedSubscriptionRepository{store: s}
}

func (s *Store) Notifications() *NotificationRepository {
	return &NotificationRepository{store: s}
}

// appendNotifications must be called with mu held for writing
func (s *Store) appendNotifications(items []*entity.Notification) {
	for _, n := range items {
		c := *n
		s.notifications = append(s.notifications, &c)
	}
}

func paginate(total, offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return offset, end
}
