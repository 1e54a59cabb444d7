// -----------------------------------------------------------------------------
// Queue
// -----------------------------------------------------------------------------
// Background job queue. Drivers:
//   - redis: list per queue, sorted set for delayed jobs, failed list
//   - sync:  runs the job inline on Push (tests, local development)
// -----------------------------------------------------------------------------

package queue

import (
	"context"
	"time"
)

// Driver names accepted by config.
const (
	DriverRedis = "redis"
	DriverSync  = "sync"
)

// DefaultQueue is used when callers pass an empty queue name.
const DefaultQueue = "default"

// Queue is implemented by every driver.
type Queue interface {
	Push(ctx context.Context, job Job, queue string) error
	Later(ctx context.Context, delay time.Duration, job Job, queue string) error

	// Pop waits up to timeout for a job. It returns (nil, nil) when none
	// arrived.
	Pop(ctx context.Context, queue string, timeout time.Duration) (*Delivery, error)

	// Ack removes a processed job.
	Ack(ctx context.Context, d *Delivery) error

	// Release puts a failed job back for another attempt after delay.
	Release(ctx context.Context, d *Delivery, delay time.Duration, cause error) error

	// Bury moves a job that exhausted its attempts to the failed list.
	Bury(ctx context.Context, d *Delivery, cause error) error

	Size(ctx context.Context, queue string) (int64, error)
}

// Logger is the subset of *log.Logger the package uses.
type Logger interface {
	Printf(format string, v ...any)
	Println(v ...any)
}

func queueName(queue string) string {
	if queue == "" {
		return DefaultQueue
	}
	return queue
}
