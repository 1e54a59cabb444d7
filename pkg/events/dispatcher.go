// -----------------------------------------------------------------------------
// Event Dispatcher
// -----------------------------------------------------------------------------
// Routes events to the listeners registered under their name. Dispatch runs
// listeners in registration order on the caller's goroutine; DispatchAsync
// hands the event to a tracked goroutine so Shutdown can wait for it.
// -----------------------------------------------------------------------------

package events

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Publisher is what services depend on.
type Publisher interface {
	Dispatch(event Event) error
	DispatchAsync(event Event)
}

// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	closed    bool
	inflight  sync.WaitGroup
	logger    Logger
}

// NewDispatcher creates a dispatcher. Call Shutdown when done so pending
// async events finish.
func NewDispatcher(logger Logger) *Dispatcher {
	return &Dispatcher{
		listeners: make(map[string][]Listener),
		logger:    logger,
	}
}

// Listen registers listener for eventName.
func (d *Dispatcher) Listen(eventName string, listener Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listeners[eventName] = append(d.listeners[eventName], listener)
	d.logger.Printf("✅ Listener registered for event: %s", eventName)
}

// Subscribe registers one listener for several events.
func (d *Dispatcher) Subscribe(eventNames []string, listener Listener) {
	for _, eventName := range eventNames {
		d.Listen(eventName, listener)
	}
}

// Dispatch runs every listener of the event synchronously, in registration
// order. A failing or panicking listener does not stop the others; their
// errors are joined.
func (d *Dispatcher) Dispatch(event Event) error {
	d.mu.RLock()
	listeners := d.listeners[event.Name()]
	d.mu.RUnlock()

	if len(listeners) == 0 {
		return nil
	}

	d.logger.Printf("📢 Dispatching event: %s (listeners: %d)", event.Name(), len(listeners))

	var errs []error
	for _, listener := range listeners {
		if err := d.handle(listener, event); err != nil {
			d.logger.Printf("❌ Listener error for '%s': %v", event.Name(), err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) handle(listener Listener, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return listener.Handle(event)
}

// DispatchAsync dispatches on a tracked goroutine and returns immediately.
// Events sent after Shutdown are dropped.
func (d *Dispatcher) DispatchAsync(event Event) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		d.logger.Printf("⚠️  Dispatcher is shutting down, async event '%s' ignored", event.Name())
		return
	}
	d.inflight.Add(1)
	d.mu.RUnlock()

	go func() {
		defer d.inflight.Done()
		if err := d.Dispatch(event); err != nil {
			d.logger.Printf("❌ Async dispatch error for '%s': %v", event.Name(), err)
		}
	}()
}

// Stats maps event name to listener count.
func (d *Dispatcher) Stats() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := make(map[string]int, len(d.listeners))
	for event, listeners := range d.listeners {
		stats[event] = len(listeners)
	}
	return stats
}

// PrintStats logs the listener table, sorted by event name.
func (d *Dispatcher) PrintStats() {
	stats := d.Stats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	d.logger.Println("📊 Event listeners:")
	for _, name := range names {
		d.logger.Printf("   %s: %d", name, stats[name])
	}
}

// Shutdown stops accepting async events and waits for in-flight ones.
func (d *Dispatcher) Shutdown() {
	d.close()
	d.inflight.Wait()
	d.logger.Println("✅ Event dispatcher shutdown complete")
}

func (d *Dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

// ShutdownWithTimeout is Shutdown bounded by timeout.
func (d *Dispatcher) ShutdownWithTimeout(timeout time.Duration) error {
	d.close()

	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Println("✅ Event dispatcher shutdown complete")
		return nil
	case <-time.After(timeout):
		d.logger.Println("⚠️  Event dispatcher shutdown timeout, some events may not have completed")
		return fmt.Errorf("event dispatcher shutdown exceeded %v", timeout)
	}
}
