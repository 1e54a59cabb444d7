// -----------------------------------------------------------------------------
// Rate Limit Middleware
// -----------------------------------------------------------------------------
// Token bucket per client key (golang.org/x/time/rate). Idle buckets are
// dropped by a background sweep; Stop ends the sweep.
//
//	limiter := middleware.NewRateLimiter(20, 10)  // 20 req/s, burst 10
//	defer limiter.Stop()
//	r.Use(limiter.Middleware(middleware.ClientKey))
// -----------------------------------------------------------------------------

package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/biyonik/rail-booking-api/internal/http/request"
	"github.com/biyonik/rail-booking-api/internal/http/response"
	"github.com/biyonik/rail-booking-api/pkg/auth"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var (
	limiterRegistry   = make(map[*RateLimiter]bool)
	limiterRegistryMu sync.Mutex
)

// NewRateLimiter allows perSecond requests per key with bursts of burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}

	limiterRegistryMu.Lock()
	limiterRegistry[rl] = true
	limiterRegistryMu.Unlock()

	rl.wg.Add(1)
	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	defer rl.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.ctx.Done():
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTTL)
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	limiterRegistryMu.Lock()
	delete(limiterRegistry, rl)
	limiterRegistryMu.Unlock()

	rl.cancel()
	rl.wg.Wait()
}

// StopAllLimiters stops every limiter created by NewRateLimiter (shutdown).
func StopAllLimiters() {
	limiterRegistryMu.Lock()
	limiters := make([]*RateLimiter, 0, len(limiterRegistry))
	for limiter := range limiterRegistry {
		limiters = append(limiters, limiter)
	}
	limiterRegistryMu.Unlock()

	for _, limiter := range limiters {
		limiter.Stop()
	}
}

// Allow takes one token for key. When none is left it reports how long the
// client should wait.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	rl.mu.Unlock()

	reservation := v.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Second
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// KeyFunc picks the bucket of a request.
type KeyFunc func(r *http.Request) string

// ClientKey buckets authenticated callers by user id and everyone else by IP.
func ClientKey(r *http.Request) string {
	if id, ok := auth.IdentityFrom(r.Context()); ok && id.UserID != "" {
		return "user:" + id.UserID
	}
	return "ip:" + request.ClientIP(r)
}

// Middleware rejects requests over the limit with 429 and Retry-After.
func (rl *RateLimiter) Middleware(key KeyFunc) Middleware {
	if key == nil {
		key = ClientKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter := rl.Allow(key(r))

			w.Header().Set("X-RateLimit-Limit", strconv.FormatFloat(float64(rl.limit), 'f', -1, 64))
			if !allowed {
				response.TooManyRequests(w, retryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit is a shorthand for a dedicated limiter keyed by ClientKey.
func RateLimit(perSecond float64, burst int) Middleware {
	return NewRateLimiter(perSecond, burst).Middleware(ClientKey)
}
