// -----------------------------------------------------------------------------
// Memory Cache Driver
// -----------------------------------------------------------------------------
// Process-local cache for tests and single-instance deployments. Expired
// entries are skipped on read and swept periodically until Close.
// -----------------------------------------------------------------------------

package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero = no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is safe for concurrent use.
type MemoryCache struct {
	mu     sync.RWMutex
	store  map[string]memoryEntry
	logger Logger
	now    func() time.Time
	stop   chan struct{}
	once   sync.Once
}

// NewMemoryCache starts a cache that sweeps expired keys every interval
// (5 minutes when interval <= 0).
func NewMemoryCache(logger Logger, interval time.Duration) *MemoryCache {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	mc := &MemoryCache{
		store:  make(map[string]memoryEntry),
		logger: logger,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	go mc.sweep(interval)

	logger.Println("✅ Memory cache started")
	return mc
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.store[key]
	if !ok || entry.expired(m.now()) {
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.now().Add(ttl)
	}
	m.store[key] = memoryEntry{value: append([]byte(nil), value...), expiresAt: expiresAt}
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.store, key)
	}
	return nil
}

// Stats reports key counts for the health endpoint.
func (m *MemoryCache) Stats() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	valid := 0
	for _, entry := range m.store {
		if !entry.expired(now) {
			valid++
		}
	}
	return map[string]any{
		"driver":     DriverMemory,
		"total_keys": len(m.store),
		"valid_keys": valid,
	}
}

// Close stops the sweeper.
func (m *MemoryCache) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.removeExpired()
		}
	}
}

func (m *MemoryCache) removeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cleaned := 0
	for key, entry := range m.store {
		if entry.expired(now) {
			delete(m.store, key)
			cleaned++
		}
	}
	if cleaned > 0 {
		m.logger.Printf("🧹 Memory cache sweep: %d expired entries removed", cleaned)
	}
}
