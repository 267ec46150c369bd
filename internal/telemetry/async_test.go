package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockEventEmitter implements EventEmitter for tests.
type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*Event
	emitErr error
	done    chan struct{}
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *Event) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return m.emitErr
}

func (m *mockEventEmitter) getEvents() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Event(nil), m.events...)
}

func waitEmits(t *testing.T, m *mockEventEmitter, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-m.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for emit %d of %d", i+1, n)
		}
	}
}

func TestEmitAsync_NilEmitter(t *testing.T) {
	// Should not panic
	EmitAsync(nil, context.Background(), NewEvent(EventLogin, "1"))
}

func TestEmitAsync_NilEvent(t *testing.T) {
	emitter := &mockEventEmitter{}
	EmitAsync(emitter, context.Background(), nil)

	time.Sleep(10 * time.Millisecond)
	if events := emitter.getEvents(); len(events) != 0 {
		t.Errorf("expected 0 events, got %d", len(events))
	}
}

func TestEmitAsync_SuccessfulEmit(t *testing.T) {
	emitter := &mockEventEmitter{done: make(chan struct{}, 1)}
	EmitAsync(emitter, context.Background(), NewEvent(EventLogin, "user-1"))
	waitEmits(t, emitter, 1)

	events := emitter.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != EventLogin {
		t.Errorf("event type = %q, want %q", events[0].Type, EventLogin)
	}
	if events[0].UserID != "user-1" {
		t.Errorf("event user_id = %q, want %q", events[0].UserID, "user-1")
	}
	if events[0].Source != SourceClient {
		t.Errorf("event source = %q, want %q", events[0].Source, SourceClient)
	}
}

func TestEmitAsync_CancelledContextStillEmits(t *testing.T) {
	emitter := &mockEventEmitter{done: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	EmitAsync(emitter, ctx, NewEvent(EventLogout, ""))
	waitEmits(t, emitter, 1)

	if events := emitter.getEvents(); len(events) != 1 {
		t.Errorf("expected 1 event after cancelled ctx, got %d", len(events))
	}
}

func TestEmitAsync_ErrorIsSwallowed(t *testing.T) {
	emitter := &mockEventEmitter{emitErr: errors.New("collector down"), done: make(chan struct{}, 1)}
	EmitAsync(emitter, context.Background(), NewEvent(EventSessionExpired, ""))
	waitEmits(t, emitter, 1)
}

func TestEmitAsync_ConcurrentAccess(t *testing.T) {
	emitter := &mockEventEmitter{done: make(chan struct{}, 10)}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			EmitAsync(emitter, context.Background(), NewEvent(EventTokenRefreshed, ""))
		}()
	}
	wg.Wait()
	waitEmits(t, emitter, 10)

	if events := emitter.getEvents(); len(events) != 10 {
		t.Errorf("expected 10 events, got %d", len(events))
	}
}
