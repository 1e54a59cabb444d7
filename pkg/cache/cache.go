// -----------------------------------------------------------------------------
// Cache
// -----------------------------------------------------------------------------
// Short-lived read caches (the train catalogue, the admin overview). Values
// are stored as JSON bytes so every driver behaves the same way; Remember
// handles the encode/decode for typed callers.
//
// Drivers: memory (single process), redis (shared between replicas).
// -----------------------------------------------------------------------------

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is implemented by every driver. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Driver names accepted by config.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Logger is the subset of *log.Logger the drivers use.
type Logger interface {
	Printf(format string, v ...any)
	Println(v ...any)
}

// Remember returns the cached value of key, or calls fn and caches its result
// for ttl. A broken cache never fails the call: read and write errors fall
// through to fn and are reported to logger.
//
//	overview, err := cache.Remember(ctx, c, "overview:2024-05-01", 30*time.Second, logger,
//	    func(ctx context.Context) (models.Overview, error) { return s.compute(ctx, day) })
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, logger Logger, fn func(context.Context) (T, error)) (T, error) {
	if data, ok, err := c.Get(ctx, key); err != nil {
		logger.Printf("⚠️  Cache read failed [%s]: %v", key, err)
	} else if ok {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		logger.Printf("⚠️  Cache entry [%s] is not decodable, recomputing", key)
	}

	value, err := fn(ctx)
	if err != nil {
		return value, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return value, fmt.Errorf("failed to encode cache value: %w", err)
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		logger.Printf("⚠️  Cache write failed [%s]: %v", key, err)
	}
	return value, nil
}
