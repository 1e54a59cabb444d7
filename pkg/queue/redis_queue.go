// -----------------------------------------------------------------------------
// Redis Queue Driver
// -----------------------------------------------------------------------------
// Keys (all under prefix):
//   queues:{name}           list, FIFO of ready envelopes
//   queues:{name}:delayed   sorted set scored by available-at unix time
//   queues:{name}:reserved  set of envelopes being processed
//   queues:failed           list of buried envelopes
// -----------------------------------------------------------------------------

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisQueue struct {
	client   redis.UniversalClient
	registry *Registry
	logger   Logger
	prefix   string
	now      func() time.Time
}

func NewRedisQueue(client redis.UniversalClient, registry *Registry, logger Logger, prefix string) *RedisQueue {
	return &RedisQueue{
		client:   client,
		registry: registry,
		logger:   logger,
		prefix:   prefix,
		now:      time.Now,
	}
}

func (r *RedisQueue) queueKey(queue string) string {
	return r.prefix + "queues:" + queue
}

func (r *RedisQueue) delayedKey(queue string) string {
	return r.prefix + "queues:" + queue + ":delayed"
}

func (r *RedisQueue) reservedKey(queue string) string {
	return r.prefix + "queues:" + queue + ":reserved"
}

func (r *RedisQueue) failedKey() string {
	return r.prefix + "queues:failed"
}

func (r *RedisQueue) Push(ctx context.Context, job Job, queue string) error {
	return r.Later(ctx, 0, job, queue)
}

func (r *RedisQueue) Later(ctx context.Context, delay time.Duration, job Job, queue string) error {
	queue = queueName(queue)
	env, err := NewEnvelope(job, queue, r.now(), delay)
	if err != nil {
		return err
	}
	if err := r.enqueue(ctx, env, delay); err != nil {
		return err
	}
	r.logger.Printf("✅ Job pushed: %s %s (queue: %s, delay: %v)", env.Type, env.ID, queue, delay)
	return nil
}

func (r *RedisQueue) enqueue(ctx context.Context, env *Envelope, delay time.Duration) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}

	if delay > 0 {
		err = r.client.ZAdd(ctx, r.delayedKey(env.Queue), redis.Z{
			Score:  float64(env.AvailableAt.Unix()),
			Member: data,
		}).Err()
		if err != nil {
			return fmt.Errorf("failed to push delayed job: %w", err)
		}
		return nil
	}

	if err := r.client.RPush(ctx, r.queueKey(env.Queue), data).Err(); err != nil {
		return fmt.Errorf("failed to push job: %w", err)
	}
	return nil
}

func (r *RedisQueue) Pop(ctx context.Context, queue string, timeout time.Duration) (*Delivery, error) {
	queue = queueName(queue)
	r.migrateDelayed(ctx, queue)

	result, err := r.client.BLPop(ctx, timeout, r.queueKey(queue)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop job: %w", err)
	}

	// result[0] is the key, result[1] the value
	raw := result[1]

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		r.client.RPush(ctx, r.failedKey(), raw)
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}

	job, err := r.registry.Decode(&env)
	if err != nil {
		r.client.RPush(ctx, r.failedKey(), raw)
		return nil, err
	}

	if err := r.client.SAdd(ctx, r.reservedKey(queue), raw).Err(); err != nil {
		r.logger.Printf("⚠️  Failed to mark job %s reserved: %v", env.ID, err)
	}
	return &Delivery{Envelope: &env, Job: job, Raw: raw}, nil
}

func (r *RedisQueue) Ack(ctx context.Context, d *Delivery) error {
	if err := r.client.SRem(ctx, r.reservedKey(d.Envelope.Queue), d.Raw).Err(); err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}
	return nil
}

func (r *RedisQueue) Release(ctx context.Context, d *Delivery, delay time.Duration, cause error) error {
	if err := r.Ack(ctx, d); err != nil {
		return err
	}

	env := *d.Envelope
	env.Attempts++
	env.AvailableAt = r.now().Add(delay)
	if cause != nil {
		env.LastError = cause.Error()
	}
	return r.enqueue(ctx, &env, delay)
}

func (r *RedisQueue) Bury(ctx context.Context, d *Delivery, cause error) error {
	if err := r.Ack(ctx, d); err != nil {
		return err
	}

	env := *d.Envelope
	env.Attempts++
	if cause != nil {
		env.LastError = cause.Error()
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	if err := r.client.RPush(ctx, r.failedKey(), data).Err(); err != nil {
		return fmt.Errorf("failed to bury job: %w", err)
	}
	return nil
}

func (r *RedisQueue) Size(ctx context.Context, queue string) (int64, error) {
	queue = queueName(queue)

	ready, err := r.client.LLen(ctx, r.queueKey(queue)).Result()
	if err != nil {
		return 0, err
	}
	delayed, err := r.client.ZCard(ctx, r.delayedKey(queue)).Result()
	if err != nil {
		return 0, err
	}
	return ready + delayed, nil
}

// migrateDelayed moves due delayed jobs to the ready list. ZRem decides
// which worker moves a job when several poll at once.
func (r *RedisQueue) migrateDelayed(ctx context.Context, queue string) {
	due, err := r.client.ZRangeByScore(ctx, r.delayedKey(queue), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(r.now().Unix(), 10),
	}).Result()
	if err != nil || len(due) == 0 {
		return
	}

	moved := 0
	for _, data := range due {
		removed, err := r.client.ZRem(ctx, r.delayedKey(queue), data).Result()
		if err != nil || removed == 0 {
			continue
		}
		if err := r.client.RPush(ctx, r.queueKey(queue), data).Err(); err != nil {
			r.logger.Printf("❌ Failed to move delayed job (queue: %s): %v", queue, err)
			continue
		}
		moved++
	}
	if moved > 0 {
		r.logger.Printf("🔄 Migrated %d delayed jobs (queue: %s)", moved, queue)
	}
}
