package memory

import (
	"context"
	"sync"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
)

// KeyedLocker is an in-process per-subscription mutex. Entries are dropped
// once nobody holds or waits for them.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	ch      chan struct{}
	waiters int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyedLock)}
}

var _ outbound.SubscriptionLocker = (*KeyedLocker)(nil)

func (l *KeyedLocker) Lock(ctx context.Context, subscriptionID string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[subscriptionID]
	if !ok {
		kl = &keyedLock{ch: make(chan struct{}, 1)}
		l.locks[subscriptionID] = kl
	}
	kl.waiters++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(subscriptionID, kl, false)
		return func() {}, outbound.ErrLockNotAcquired
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(subscriptionID, kl, true) })
	}, nil
}

func (l *KeyedLocker) release(id string, kl *keyedLock, held bool) {
	if held {
		<-kl.ch
	}
	l.mu.Lock()
	kl.waiters--
	if kl.waiters == 0 {
		delete(l.locks, id)
	}
	l.mu.Unlock()
}
