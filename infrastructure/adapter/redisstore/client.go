// Package redisstore holds the Redis backed adapters: the cross-instance
// subscription lock and the shared currency rate table.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// NewClient parses url and checks the connection before returning
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
