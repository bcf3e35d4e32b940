package idem

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestMemGuard_FirstSeen(t *testing.T) {
	g := NewMemGuard()
	ctx := context.Background()

	first, err := g.FirstSeen(ctx, "bill-abc")
	if err != nil {
		t.Fatalf("FirstSeen: %v", err)
	}
	if !first {
		t.Error("expected first sighting to return true")
	}

	first, err = g.FirstSeen(ctx, "bill-abc")
	if err != nil {
		t.Fatalf("FirstSeen: %v", err)
	}
	if first {
		t.Error("expected duplicate key to return false")
	}

	first, _ = g.FirstSeen(ctx, "bill-def")
	if !first {
		t.Error("expected distinct key to return true")
	}
}

func TestRedisGuard_FirstSeen(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.Close()

	g := NewRedisGuard(client)
	key := "test-" + t.Name()
	defer client.Del(ctx, keyPrefix+key)

	first, err := g.FirstSeen(ctx, key)
	if err != nil {
		t.Fatalf("FirstSeen: %v", err)
	}
	if !first {
		t.Error("expected first sighting to return true")
	}

	first, err = g.FirstSeen(ctx, key)
	if err != nil {
		t.Fatalf("FirstSeen: %v", err)
	}
	if first {
		t.Error("expected duplicate key to return false")
	}
}
