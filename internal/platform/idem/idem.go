// Package idem provides a best-effort idempotency guard backed by Redis.
// It is used to suppress duplicate bill submissions that carry the same
// Idempotency-Key header.
package idem

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "idem:"
	keyTTL    = 24 * time.Hour
)

// Guard reports whether a request key is being seen for the first time.
type Guard interface {
	// FirstSeen returns true if key was not recorded before, atomically
	// recording it. A false return means a duplicate submission.
	FirstSeen(ctx context.Context, key string) (bool, error)
}

type RedisGuard struct {
	client *redis.Client
}

func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

func (g *RedisGuard) FirstSeen(ctx context.Context, key string) (bool, error) {
	return g.client.SetNX(ctx, keyPrefix+key, 1, keyTTL).Result()
}

// MemGuard is an in-process Guard for tests and Redis-less deployments.
type MemGuard struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemGuard() *MemGuard {
	return &MemGuard{seen: make(map[string]struct{})}
}

func (g *MemGuard) FirstSeen(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.seen[key]; ok {
		return false, nil
	}
	g.seen[key] = struct{}{}
	return true, nil
}
