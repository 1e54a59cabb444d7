package queue

import (
	"context"
	"time"
)

// SyncQueue runs jobs inline. Nothing is ever stored, so Pop always times
// out empty.
type SyncQueue struct {
	logger Logger
}

func NewSyncQueue(logger Logger) *SyncQueue {
	return &SyncQueue{logger: logger}
}

// Push runs the job immediately. A failing job gets its Failed callback and
// the error is returned.
func (s *SyncQueue) Push(ctx context.Context, job Job, queue string) error {
	if err := job.Handle(ctx); err != nil {
		s.logger.Printf("❌ Job failed: %s (queue: %s, error: %v)", job.Type(), queueName(queue), err)
		job.Failed(ctx, err)
		return err
	}
	s.logger.Printf("✅ Job completed: %s (queue: %s)", job.Type(), queueName(queue))
	return nil
}

// Later waits for delay (or ctx) and then runs the job.
func (s *SyncQueue) Later(ctx context.Context, delay time.Duration, job Job, queue string) error {
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return s.Push(ctx, job, queue)
}

func (s *SyncQueue) Pop(ctx context.Context, queue string, timeout time.Duration) (*Delivery, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	return nil, nil
}

func (s *SyncQueue) Ack(ctx context.Context, d *Delivery) error { return nil }

func (s *SyncQueue) Release(ctx context.Context, d *Delivery, delay time.Duration, cause error) error {
	return nil
}

func (s *SyncQueue) Bury(ctx context.Context, d *Delivery, cause error) error { return nil }

func (s *SyncQueue) Size(ctx context.Context, queue string) (int64, error) { return 0, nil }
