package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"account-service/internal/telemetry/domain"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []*domain.Event
	err    error
	done   chan struct{}
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{done: make(chan struct{}, 8)}
}

func (m *recordingEmitter) Emit(ctx context.Context, event *domain.Event) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	m.done <- struct{}{}
	return m.err
}

func (m *recordingEmitter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func TestEmitAsync(t *testing.T) {
	em := newRecordingEmitter()
	EmitAsync(em, &domain.Event{EventType: "http_request"}, zap.NewNop())
	select {
	case <-em.done:
	case <-time.After(time.Second):
		t.Fatal("event not emitted")
	}
	if em.count() != 1 {
		t.Errorf("events = %d, want 1", em.count())
	}
}

func TestEmitAsync_NilArgs(t *testing.T) {
	EmitAsync(nil, &domain.Event{}, nil)
	em := newRecordingEmitter()
	EmitAsync(em, nil, nil)
	time.Sleep(10 * time.Millisecond)
	if em.count() != 0 {
		t.Errorf("events = %d, want 0", em.count())
	}
}

func TestEmitAsync_ErrorIsSwallowed(t *testing.T) {
	em := newRecordingEmitter()
	em.err = errors.New("broker down")
	EmitAsync(em, &domain.Event{EventType: "x"}, zap.NewNop())
	select {
	case <-em.done:
	case <-time.After(time.Second):
		t.Fatal("event not emitted")
	}
}

func TestFanout(t *testing.T) {
	a, b := newRecordingEmitter(), newRecordingEmitter()
	b.err = errors.New("b failed")
	err := Fanout{a, nil, b}.Emit(context.Background(), &domain.Event{EventType: "x"})
	if err == nil || err.Error() != "b failed" {
		t.Errorf("err = %v, want b failed", err)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("counts = %d, %d, want 1, 1", a.count(), b.count())
	}
}
