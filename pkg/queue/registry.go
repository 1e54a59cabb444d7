package queue

import (
	"encoding/json"
	"fmt"
	"sync"
)

// JobFactory returns an empty job ready for json.Unmarshal.
type JobFactory func() Job

// Registry maps job type names to factories. Workers can only run registered
// types.
//
//	registry.Register(jobs.RenderTicketPassType, func() queue.Job { return &jobs.RenderTicketPassJob{} })
type Registry struct {
	mu        sync.RWMutex
	factories map[string]JobFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]JobFactory)}
}

func (r *Registry) Register(jobType string, factory JobFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[jobType] = factory
}

// Decode rebuilds the job carried by env.
func (r *Registry) Decode(env *Envelope) (Job, error) {
	r.mu.RLock()
	factory, ok := r.factories[env.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("job type is not registered: %s", env.Type)
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", env.Type, err)
	}
	return job, nil
}
