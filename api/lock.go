package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBoardLocker serializes bulk reorders per board owner across all
// API instances. The TTL bounds how long a crashed holder can keep a
// board locked.
type RedisBoardLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBoardLocker creates a locker using the provided Redis client
// and lock TTL.
func NewRedisBoardLocker(client *redis.Client, ttl time.Duration) *RedisBoardLocker {
	return &RedisBoardLocker{client: client, ttl: ttl}
}

func (r *RedisBoardLocker) key(owner string) string {
	return "reorder-lock:" + owner
}

// Acquire takes the owner's board lock. It returns false when another
// reorder already holds it.
func (r *RedisBoardLocker) Acquire(ctx context.Context, owner string) (bool, error) {
	return r.client.SetNX(ctx, r.key(owner), 1, r.ttl).Result()
}

// Release frees the owner's board lock.
func (r *RedisBoardLocker) Release(ctx context.Context, owner string) error {
	return r.client.Del(ctx, r.key(owner)).Err()
}
