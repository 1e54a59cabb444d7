package cache

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, log.New(io.Discard, "", 0), "rail:"), server
}

func TestRedisCacheGetSetDelete(t *testing.T) {
	ctx := context.Background()
	c, server := newTestRedisCache(t)

	if _, ok, err := c.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get missing = %v, %v", ok, err)
	}

	if err := c.Set(ctx, "overview:2024-05-01", []byte(`{"trains":3}`), 30*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !server.Exists("rail:overview:2024-05-01") {
		t.Error("key was not stored under the prefix")
	}
	if ttl := server.TTL("rail:overview:2024-05-01"); ttl != 30*time.Second {
		t.Errorf("ttl = %v, want 30s", ttl)
	}

	got, ok, err := c.Get(ctx, "overview:2024-05-01")
	if err != nil || !ok || string(got) != `{"trains":3}` {
		t.Fatalf("Get = %q, %v, %v", got, ok, err)
	}

	if err := c.Delete(ctx, "overview:2024-05-01", "never-set"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "overview:2024-05-01"); ok {
		t.Error("deleted key should miss")
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, server := newTestRedisCache(t)

	_ = c.Set(ctx, "k", []byte("v"), time.Minute)
	server.FastForward(2 * time.Minute)

	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("expired key should miss")
	}
}

func TestRememberWithRedis(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedisCache(t)
	logger := log.New(io.Discard, "", 0)

	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"1001", "1002"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Remember(ctx, c, "trains:all", time.Minute, logger, load)
		if err != nil {
			t.Fatalf("Remember: %v", err)
		}
		if len(got) != 2 || got[1] != "1002" {
			t.Errorf("got = %v", got)
		}
	}
	if calls != 1 {
		t.Errorf("loader calls = %d, want 1", calls)
	}
}

func TestRedisCacheStats(t *testing.T) {
	c, _ := newTestRedisCache(t)

	stats := c.Stats()
	if stats["driver"] != DriverRedis || stats["prefix"] != "rail:" {
		t.Errorf("stats = %v", stats)
	}
}
