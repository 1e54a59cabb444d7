// -----------------------------------------------------------------------------
// Jobs
// -----------------------------------------------------------------------------
// A job is a JSON-serialisable struct with a registered type name. Drivers
// store it inside an Envelope that carries the retry metadata.
// -----------------------------------------------------------------------------

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxAttempts applies when a job does not implement AttemptLimiter.
const DefaultMaxAttempts = 3

// Job is the unit of background work.
type Job interface {
	// Type is the registry key used to rebuild the job from its payload.
	Type() string

	Handle(ctx context.Context) error

	// Failed is called once the job has exhausted its attempts.
	Failed(ctx context.Context, err error)
}

// AttemptLimiter overrides DefaultMaxAttempts for a job type.
type AttemptLimiter interface {
	MaxAttempts() int
}

// Envelope is what a driver stores.
type Envelope struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Queue       string          `json:"queue"`
	Payload     json.RawMessage `json:"payload"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	LastError   string          `json:"last_error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	AvailableAt time.Time       `json:"available_at"`
}

// NewEnvelope serialises job for queue, available after delay.
func NewEnvelope(job Job, queue string, now time.Time, delay time.Duration) (*Envelope, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job %s: %w", job.Type(), err)
	}

	maxAttempts := DefaultMaxAttempts
	if limiter, ok := job.(AttemptLimiter); ok && limiter.MaxAttempts() > 0 {
		maxAttempts = limiter.MaxAttempts()
	}

	return &Envelope{
		ID:          uuid.NewString(),
		Type:        job.Type(),
		Queue:       queue,
		Payload:     payload,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		AvailableAt: now.Add(delay),
	}, nil
}

// Exhausted reports whether the attempt just made was the last one allowed.
func (e *Envelope) Exhausted() bool {
	return e.Attempts+1 >= e.MaxAttempts
}

// Delivery is a popped job. Raw is the driver's stored form, used to
// acknowledge it.
type Delivery struct {
	Envelope *Envelope
	Job      Job
	Raw      string
}
