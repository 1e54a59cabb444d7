package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/biyonik/rail-booking-api/internal/http/request"
	"github.com/biyonik/rail-booking-api/internal/http/response"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// StatsFunc reports runtime counters of one component.
type StatsFunc func() map[string]any

// HealthController reports the status of the configured backends (MySQL,
// Redis). With none configured the service is always healthy.
type HealthController struct {
	checks  map[string]HealthCheck
	stats   map[string]StatsFunc
	started time.Time
	timeout time.Duration
}

func NewHealthController(checks map[string]HealthCheck) *HealthController {
	return &HealthController{
		checks:  checks,
		stats:   make(map[string]StatsFunc),
		started: time.Now(),
		timeout: 2 * time.Second,
	}
}

// WithStats adds the counters of name to every health response.
func (c *HealthController) WithStats(name string, fn StatsFunc) *HealthController {
	c.stats[name] = fn
	return c
}

// Health handles GET /health
func (c *HealthController) Health(w http.ResponseWriter, r *request.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	components := make(map[string]string, len(names))
	for _, name := range names {
		if err := c.checks[name](ctx); err != nil {
			components[name] = "down: " + err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "up"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	data := map[string]any{
		"status":     overall,
		"components": components,
		"uptime":     time.Since(c.started).Round(time.Second).String(),
	}
	if len(c.stats) > 0 {
		stats := make(map[string]any, len(c.stats))
		for name, fn := range c.stats {
			stats[name] = fn()
		}
		data["stats"] = stats
	}
	response.Send(w, status, response.JSONResponse{
		Success: status == http.StatusOK,
		Data:    data,
	})
}
