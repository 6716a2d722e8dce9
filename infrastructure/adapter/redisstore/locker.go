package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

const (
	lockKeyPrefix = "subscription:lock:"
	lockPollEvery = 10 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker serializes subscription writes across service instances. The TTL
// bounds how long a crashed holder can block others.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewLocker(client *redis.Client, ttl time.Duration, log logger.Logger) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Locker{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "redis_locker"}),
	}
}

var _ outbound.SubscriptionLocker = (*Locker)(nil)

// Lock polls SET NX until it wins or ctx is done
func (l *Locker) Lock(ctx context.Context, subscriptionID string) (func(), error) {
	key := lockKeyPrefix + subscriptionID
	token := uuid.NewString()

	ticker := time.NewTicker(lockPollEvery)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return func() {}, outbound.ErrLockNotAcquired
			}
			return func() {}, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return func() {}, outbound.ErrLockNotAcquired
		case <-ticker.C:
		}
	}
}

// release runs on a fresh context so an expired request deadline still frees the key
func (l *Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
		l.logger.Warn(ctx, "Failed to release subscription lock", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
