// -----------------------------------------------------------------------------
// Queue Worker
// -----------------------------------------------------------------------------
// One goroutine per queue pops jobs and runs them. A failed job is released
// for a retry after RetryDelay until its attempts are exhausted, then its
// Failed callback runs and it is buried. Run returns when ctx is cancelled
// and in-flight jobs have finished.
// -----------------------------------------------------------------------------

package queue

import (
	"context"
	"sync"
	"time"
)

type WorkerConfig struct {
	RetryDelay time.Duration
	PopTimeout time.Duration
}

type Worker struct {
	queue      Queue
	logger     Logger
	retryDelay time.Duration
	popTimeout time.Duration
}

func NewWorker(queue Queue, logger Logger, cfg WorkerConfig) *Worker {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 30 * time.Second
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 2 * time.Second
	}
	return &Worker{
		queue:      queue,
		logger:     logger,
		retryDelay: cfg.RetryDelay,
		popTimeout: cfg.PopTimeout,
	}
}

// Run blocks until ctx is done.
func (w *Worker) Run(ctx context.Context, queues ...string) {
	if len(queues) == 0 {
		queues = []string{DefaultQueue}
	}

	w.logger.Printf("🚀 Queue worker started (queues: %v, retry delay: %v)", queues, w.retryDelay)

	var wg sync.WaitGroup
	for _, name := range queues {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			w.processQueue(ctx, name)
		}(name)
	}
	wg.Wait()

	w.logger.Println("✅ Queue worker stopped")
}

func (w *Worker) processQueue(ctx context.Context, queueName string) {
	for {
		if ctx.Err() != nil {
			return
		}

		delivery, err := w.queue.Pop(ctx, queueName, w.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Printf("❌ Job pop failed [%s]: %v", queueName, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if delivery == nil {
			continue
		}

		w.process(ctx, delivery)
	}
}

// process runs one job. The job gets a context that outlives a shutdown
// signal so it can finish.
func (w *Worker) process(ctx context.Context, d *Delivery) {
	env := d.Envelope
	jobCtx := context.WithoutCancel(ctx)
	start := time.Now()

	err := d.Job.Handle(jobCtx)
	if err == nil {
		w.logger.Printf("✅ Job completed: %s %s (duration: %v)", env.Type, env.ID, time.Since(start))
		if ackErr := w.queue.Ack(jobCtx, d); ackErr != nil {
			w.logger.Printf("⚠️  Job ack failed: %v", ackErr)
		}
		return
	}

	w.logger.Printf("❌ Job failed: %s %s (attempt %d/%d): %v", env.Type, env.ID, env.Attempts+1, env.MaxAttempts, err)

	if env.Exhausted() {
		d.Job.Failed(jobCtx, err)
		if buryErr := w.queue.Bury(jobCtx, d, err); buryErr != nil {
			w.logger.Printf("❌ Job bury failed: %v", buryErr)
		}
		return
	}

	if relErr := w.queue.Release(jobCtx, d, w.retryDelay, err); relErr != nil {
		w.logger.Printf("❌ Job release failed: %v", relErr)
	}
}

// Stats reports the pending size of each queue.
func (w *Worker) Stats(ctx context.Context, queues ...string) map[string]any {
	stats := make(map[string]any, len(queues))
	for _, name := range queues {
		size, err := w.queue.Size(ctx, name)
		if err != nil {
			stats[name] = map[string]any{"error": err.Error()}
			continue
		}
		stats[name] = map[string]any{"size": size}
	}
	return stats
}
