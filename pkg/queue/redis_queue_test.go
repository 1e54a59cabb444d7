package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type noteJob struct {
	Note string `json:"note"`
}

func (j *noteJob) Type() string                         { return "test.note" }
func (j *noteJob) Handle(ctx context.Context) error     { return nil }
func (j *noteJob) Failed(ctx context.Context, err error) {}

func newTestRedisQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	registry := NewRegistry()
	registry.Register("test.note", func() Job { return &noteJob{} })
	return NewRedisQueue(client, registry, log.New(io.Discard, "", 0), "rail:"), server
}

func TestRedisQueuePushPopAck(t *testing.T) {
	ctx := context.Background()
	q, server := newTestRedisQueue(t)

	if err := q.Push(ctx, &noteJob{Note: "render"}, "passes"); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if size, _ := q.Size(ctx, "passes"); size != 1 {
		t.Errorf("size = %d, want 1", size)
	}

	d, err := q.Pop(ctx, "passes", time.Second)
	if err != nil || d == nil {
		t.Fatalf("Pop = %v, %v", d, err)
	}
	if job, ok := d.Job.(*noteJob); !ok || job.Note != "render" {
		t.Errorf("job = %#v", d.Job)
	}
	if ok, _ := server.SIsMember("rail:queues:passes:reserved", d.Raw); !ok {
		t.Error("popped job is not marked reserved")
	}

	if err := q.Ack(ctx, d); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if ok, _ := server.SIsMember("rail:queues:passes:reserved", d.Raw); ok {
		t.Error("acked job is still reserved")
	}
}

func TestRedisQueuePopTimesOutEmpty(t *testing.T) {
	q, _ := newTestRedisQueue(t)

	d, err := q.Pop(context.Background(), "", 50*time.Millisecond)
	if err != nil || d != nil {
		t.Errorf("Pop on empty queue = %v, %v", d, err)
	}
}

func TestRedisQueueDelayedJobsMigrate(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestRedisQueue(t)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return now }

	if err := q.Later(ctx, time.Minute, &noteJob{Note: "later"}, "passes"); err != nil {
		t.Fatalf("Later: %v", err)
	}
	if d, _ := q.Pop(ctx, "passes", 50*time.Millisecond); d != nil {
		t.Fatal("delayed job popped before it was due")
	}

	now = now.Add(2 * time.Minute)
	d, err := q.Pop(ctx, "passes", time.Second)
	if err != nil || d == nil {
		t.Fatalf("Pop after delay = %v, %v", d, err)
	}
	if d.Job.(*noteJob).Note != "later" {
		t.Errorf("job = %#v", d.Job)
	}
}

func TestRedisQueueReleaseAndBury(t *testing.T) {
	ctx := context.Background()
	q, server := newTestRedisQueue(t)

	_ = q.Push(ctx, &noteJob{Note: "flaky"}, "passes")
	d, _ := q.Pop(ctx, "passes", time.Second)

	if err := q.Release(ctx, d, 0, errors.New("storage offline")); err != nil {
		t.Fatalf("Release: %v", err)
	}
	d, err := q.Pop(ctx, "passes", time.Second)
	if err != nil || d == nil {
		t.Fatalf("Pop released job = %v, %v", d, err)
	}
	if d.Envelope.Attempts != 1 || d.Envelope.LastError != "storage offline" {
		t.Errorf("envelope = %+v", d.Envelope)
	}

	if err := q.Bury(ctx, d, errors.New("still offline")); err != nil {
		t.Fatalf("Bury: %v", err)
	}
	failed, err := server.List("rail:queues:failed")
	if err != nil || len(failed) != 1 {
		t.Fatalf("failed list = %v, %v", failed, err)
	}
	var env Envelope
	if err := json.Unmarshal([]byte(failed[0]), &env); err != nil {
		t.Fatalf("decode buried envelope: %v", err)
	}
	if env.Attempts != 2 || env.LastError != "still offline" {
		t.Errorf("buried envelope = %+v", env)
	}
}

func TestRedisQueueUnknownJobIsBuried(t *testing.T) {
	ctx := context.Background()
	q, server := newTestRedisQueue(t)

	env, _ := NewEnvelope(&noteJob{}, "passes", time.Now(), 0)
	env.Type = "test.unregistered"
	data, _ := json.Marshal(env)
	if _, err := server.RPush("rail:queues:passes", string(data)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := q.Pop(ctx, "passes", time.Second); err == nil {
		t.Fatal("expected a decode error for an unregistered job")
	}
	if failed, _ := server.List("rail:queues:failed"); len(failed) != 1 {
		t.Errorf("failed list = %v, want the raw envelope", failed)
	}
}
