package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared"
	"github.com/ticketbook/backend/internal/domain/shared/valueobject"
)

func newPaymentEvent(t *testing.T) *commission.PaymentRecordedEvent {
	t.Helper()
	d, err := valueobject.ParseISODate("2025-12-10")
	require.NoError(t, err)
	p, err := commission.NewPaymentCollection(uuid.New(), decimal.NewFromInt(250), d, "CASH")
	require.NoError(t, err)
	return commission.NewPaymentRecordedEvent(p)
}

func newRecalculatedEvent() *commission.CommissionRecalculatedEvent {
	return commission.NewCommissionRecalculatedEvent(uuid.New(), 3, 2, 0, decimal.NewFromInt(230), time.Now())
}

// recordingHandler collects the events it receives
type recordingHandler struct {
	eventTypes []string
	err        error
	panicWith  any

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func newRecordingHandler(eventTypes ...string) *recordingHandler {
	return &recordingHandler{eventTypes: eventTypes}
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}
