// -----------------------------------------------------------------------------
// Redis Connection Pool
// -----------------------------------------------------------------------------
// Shared go-redis client used by the redis seat store, the redis cache driver
// and the redis job queue. One pool per process.
// -----------------------------------------------------------------------------

package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection and pool settings.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultRedisConfig returns local development settings.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Host:         "127.0.0.1",
		Port:         6379,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// RedisClient wraps *redis.Client with health and lifecycle helpers.
type RedisClient struct {
	client *redis.Client
	logger *log.Logger
}

// NewRedisClient opens the pool and pings the server.
//
// Example:
//
//	client, err := database.NewRedisClient(ctx, cfg, logger)
//	if err != nil {
//	    logger.Fatal(err)
//	}
//	defer client.Close()
func NewRedisClient(ctx context.Context, config *RedisConfig, logger *log.Logger) (*RedisClient, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Printf("❌ Redis connection failed: %v", err)
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Printf("✅ Redis connected: %s:%d (DB: %d)", config.Host, config.Port, config.DB)

	return &RedisClient{client: client, logger: logger}, nil
}

// Client returns the raw client for stores, caches and queues.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}

// Ping is used by the health endpoint.
func (r *RedisClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

// Stats exposes pool counters on the health endpoint.
func (r *RedisClient) Stats() map[string]any {
	poolStats := r.client.PoolStats()

	return map[string]any{
		"hits":        poolStats.Hits,
		"misses":      poolStats.Misses,
		"timeouts":    poolStats.Timeouts,
		"total_conns": poolStats.TotalConns,
		"idle_conns":  poolStats.IdleConns,
		"stale_conns": poolStats.StaleConns,
	}
}

// Close is called during graceful shutdown.
func (r *RedisClient) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Printf("❌ Redis close failed: %v", err)
		return err
	}

	r.logger.Println("✅ Redis connection closed")
	return nil
}
