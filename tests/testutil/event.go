package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared"
)

// EventRecorder is a bus subscriber that keeps every event it is handed.
// Handle fails with the error set by FailWith, after recording.
type EventRecorder struct {
	types []string

	mu     sync.Mutex
	events []shared.DomainEvent
	fail   error
}

// NewEventRecorder subscribes to the given event types
func NewEventRecorder(eventTypes ...string) *EventRecorder {
	return &EventRecorder{types: eventTypes}
}

func (r *EventRecorder) EventTypes() []string {
	return r.types
}

func (r *EventRecorder) Handle(_ context.Context, event shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.fail
}

// FailWith makes later deliveries return err
func (r *EventRecorder) FailWith(err error) {
	r.mu.Lock()
	r.fail = err
	r.mu.Unlock()
}

// Events returns what was recorded so far, oldest first
func (r *EventRecorder) Events() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shared.DomainEvent(nil), r.events...)
}

// Recalculations returns the recorded CommissionRecalculated events
func (r *EventRecorder) Recalculations() []*commission.CommissionRecalculatedEvent {
	var out []*commission.CommissionRecalculatedEvent
	for _, e := range r.Events() {
		if rc, ok := e.(*commission.CommissionRecalculatedEvent); ok {
			out = append(out, rc)
		}
	}
	return out
}

// Clear forgets recorded events and any injected failure
func (r *EventRecorder) Clear() {
	r.mu.Lock()
	r.events = nil
	r.fail = nil
	r.mu.Unlock()
}

// WaitFor reports whether at least n events arrive within timeout
func (r *EventRecorder) WaitFor(t *testing.T, n int, timeout time.Duration) bool {
	t.Helper()
	return poll(func() bool { return len(r.Events()) >= n }, timeout, 10*time.Millisecond)
}

var _ shared.EventHandler = (*EventRecorder)(nil)
