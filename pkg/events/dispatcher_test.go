package events

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type mockLogger struct {
	mu   sync.Mutex
	logs []string
}

func (m *mockLogger) Printf(format string, v ...any) {
	m.mu.Lock()
	m.logs = append(m.logs, fmt.Sprintf(format, v...))
	m.mu.Unlock()
}

func (m *mockLogger) Println(v ...any) {
	m.mu.Lock()
	m.logs = append(m.logs, fmt.Sprint(v...))
	m.mu.Unlock()
}

type countingListener struct {
	handled atomic.Int32
	delay   time.Duration
	err     error
}

func (l *countingListener) Handle(event Event) error {
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	l.handled.Add(1)
	return l.err
}

func (l *countingListener) count() int {
	return int(l.handled.Load())
}

func TestDispatcher_DispatchRunsEveryListener(t *testing.T) {
	dispatcher := NewDispatcher(&mockLogger{})
	defer dispatcher.Shutdown()

	first, second := &countingListener{}, &countingListener{}
	dispatcher.Listen(EventTicketBooked, first)
	dispatcher.Listen(EventTicketBooked, second)

	if err := dispatcher.Dispatch(NewBaseEvent(EventTicketBooked, "k1")); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if first.count() != 1 || second.count() != 1 {
		t.Errorf("calls = %d, %d, want 1, 1", first.count(), second.count())
	}
}

func TestDispatcher_ListenerErrorDoesNotStopOthers(t *testing.T) {
	dispatcher := NewDispatcher(&mockLogger{})
	defer dispatcher.Shutdown()

	failing := &countingListener{err: fmt.Errorf("boom")}
	after := &countingListener{}
	dispatcher.Listen(EventTicketCancelled, failing)
	dispatcher.Listen(EventTicketCancelled, after)

	if err := dispatcher.Dispatch(NewBaseEvent(EventTicketCancelled, nil)); err == nil {
		t.Error("expected the listener error to be returned")
	}
	if after.count() != 1 {
		t.Errorf("second listener calls = %d, want 1", after.count())
	}
}

type panickingListener struct{}

func (panickingListener) Handle(Event) error { panic("nil ticket") }

func TestDispatcher_ListenerPanicIsContained(t *testing.T) {
	dispatcher := NewDispatcher(&mockLogger{})
	defer dispatcher.Shutdown()

	failing := &countingListener{err: errors.New("boom")}
	after := &countingListener{}
	dispatcher.Listen(EventTicketBooked, panickingListener{})
	dispatcher.Listen(EventTicketBooked, failing)
	dispatcher.Listen(EventTicketBooked, after)

	err := dispatcher.Dispatch(NewBaseEvent(EventTicketBooked, nil))
	if err == nil || !strings.Contains(err.Error(), "panicked") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("err = %v, want both failures joined", err)
	}
	if after.count() != 1 {
		t.Errorf("listener after the panic calls = %d, want 1", after.count())
	}
}

func TestDispatcher_ShutdownWaitsForAsyncEvents(t *testing.T) {
	dispatcher := NewDispatcher(&mockLogger{})

	listener := &countingListener{delay: 20 * time.Millisecond}
	dispatcher.Listen(EventTrainCreated, listener)

	for i := 0; i < 10; i++ {
		dispatcher.DispatchAsync(NewBaseEvent(EventTrainCreated, i))
	}
	dispatcher.Shutdown()

	if listener.count() != 10 {
		t.Errorf("calls = %d, want 10", listener.count())
	}
}

func TestDispatcher_AsyncAfterShutdownIsDropped(t *testing.T) {
	dispatcher := NewDispatcher(&mockLogger{})
	listener := &countingListener{}
	dispatcher.Listen(EventTrainDeleted, listener)

	dispatcher.Shutdown()
	dispatcher.DispatchAsync(NewBaseEvent(EventTrainDeleted, nil))
	time.Sleep(20 * time.Millisecond)

	if listener.count() != 0 {
		t.Errorf("calls after shutdown = %d, want 0", listener.count())
	}
}

func TestDispatcher_ShutdownWithTimeout(t *testing.T) {
	dispatcher := NewDispatcher(&mockLogger{})
	dispatcher.Listen(EventWarrantSubmitted, &countingListener{delay: 300 * time.Millisecond})

	dispatcher.DispatchAsync(NewBaseEvent(EventWarrantSubmitted, nil))
	if err := dispatcher.ShutdownWithTimeout(20 * time.Millisecond); err == nil {
		t.Error("expected timeout error")
	}
}

func TestDispatcher_ConcurrentDispatch(t *testing.T) {
	dispatcher := NewDispatcher(&mockLogger{})
	defer dispatcher.Shutdown()

	listener := &countingListener{}
	dispatcher.Listen(EventTicketBooked, listener)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = dispatcher.Dispatch(NewBaseEvent(EventTicketBooked, j))
			}
		}()
	}
	wg.Wait()

	if listener.count() != 200 {
		t.Errorf("calls = %d, want 200", listener.count())
	}
}
