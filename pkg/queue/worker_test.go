package queue

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"
)

type flakyJob struct {
	Name     string `json:"name"`
	failures *int
	failed   *error
}

func (j *flakyJob) Type() string { return "test.flaky" }

func (j *flakyJob) Handle(ctx context.Context) error {
	if j.failures != nil && *j.failures > 0 {
		*j.failures--
		return errors.New("transient")
	}
	return nil
}

func (j *flakyJob) Failed(ctx context.Context, err error) {
	if j.failed != nil {
		*j.failed = err
	}
}

func (j *flakyJob) MaxAttempts() int { return 2 }

// recordingQueue is a Queue double that records the worker's decisions.
type recordingQueue struct {
	mu       sync.Mutex
	pending  []*Delivery
	acked    int
	released int
	buried   int
}

func (q *recordingQueue) Push(ctx context.Context, job Job, queue string) error {
	return q.Later(ctx, 0, job, queue)
}

func (q *recordingQueue) Later(ctx context.Context, delay time.Duration, job Job, queue string) error {
	env, err := NewEnvelope(job, queue, time.Now(), delay)
	if err != nil {
		return err
	}
	q.mu.Lock()
	q.pending = append(q.pending, &Delivery{Envelope: env, Job: job})
	q.mu.Unlock()
	return nil
}

func (q *recordingQueue) Pop(ctx context.Context, queue string, timeout time.Duration) (*Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, nil
	}
	d := q.pending[0]
	q.pending = q.pending[1:]
	return d, nil
}

func (q *recordingQueue) Ack(ctx context.Context, d *Delivery) error {
	q.mu.Lock()
	q.acked++
	q.mu.Unlock()
	return nil
}

func (q *recordingQueue) Release(ctx context.Context, d *Delivery, delay time.Duration, cause error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.released++
	env := *d.Envelope
	env.Attempts++
	q.pending = append(q.pending, &Delivery{Envelope: &env, Job: d.Job})
	return nil
}

func (q *recordingQueue) Bury(ctx context.Context, d *Delivery, cause error) error {
	q.mu.Lock()
	q.buried++
	q.mu.Unlock()
	return nil
}

func (q *recordingQueue) Size(ctx context.Context, queue string) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.pending)), nil
}

func newTestWorker(q Queue) *Worker {
	return NewWorker(q, log.New(io.Discard, "", 0), WorkerConfig{RetryDelay: time.Millisecond, PopTimeout: time.Millisecond})
}

func drain(t *testing.T, w *Worker, q *recordingQueue) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		d, _ := q.Pop(ctx, DefaultQueue, 0)
		if d == nil {
			return
		}
		w.process(ctx, d)
	}
	t.Fatal("queue did not drain")
}

func TestWorkerRetriesThenSucceeds(t *testing.T) {
	q := &recordingQueue{}
	w := newTestWorker(q)

	failures := 1
	_ = q.Push(context.Background(), &flakyJob{Name: "a", failures: &failures}, "")
	drain(t, w, q)

	if q.released != 1 || q.acked != 1 || q.buried != 0 {
		t.Errorf("released=%d acked=%d buried=%d, want 1 1 0", q.released, q.acked, q.buried)
	}
}

func TestWorkerBuriesExhaustedJob(t *testing.T) {
	q := &recordingQueue{}
	w := newTestWorker(q)

	failures := 5
	var failedWith error
	_ = q.Push(context.Background(), &flakyJob{Name: "b", failures: &failures, failed: &failedWith}, "")
	drain(t, w, q)

	if q.buried != 1 || q.acked != 0 {
		t.Errorf("buried=%d acked=%d, want 1 0", q.buried, q.acked)
	}
	if failedWith == nil {
		t.Error("Failed callback was not called")
	}
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	w := newTestWorker(&recordingQueue{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Run(ctx, "passes")
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRegistryDecode(t *testing.T) {
	registry := NewRegistry()
	registry.Register("test.flaky", func() Job { return &flakyJob{} })

	env, err := NewEnvelope(&flakyJob{Name: "pass-42"}, "passes", time.Now(), 0)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if env.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d, want 2", env.MaxAttempts)
	}

	job, err := registry.Decode(env)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if job.(*flakyJob).Name != "pass-42" {
		t.Errorf("decoded name = %q", job.(*flakyJob).Name)
	}

	env.Type = "unknown"
	if _, err := registry.Decode(env); err == nil {
		t.Error("unregistered type should fail")
	}
}

func TestSyncQueueRunsInline(t *testing.T) {
	q := NewSyncQueue(log.New(io.Discard, "", 0))

	failures := 1
	var failedWith error
	err := q.Push(context.Background(), &flakyJob{failures: &failures, failed: &failedWith}, "")
	if err == nil || failedWith == nil {
		t.Errorf("err=%v failedWith=%v, want both set", err, failedWith)
	}
	if err := q.Push(context.Background(), &flakyJob{}, ""); err != nil {
		t.Errorf("Push: %v", err)
	}
}
