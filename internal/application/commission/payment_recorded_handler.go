package commission

import (
	"context"
	"fmt"

	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PaymentRecordedHandler handles PaymentRecordedEvent
// and recomputes the commission of the paid book
type PaymentRecordedHandler struct {
	recalculator BookRecalculator
	logger       *zap.Logger
}

// NewPaymentRecordedHandler creates a new handler for payment recorded events
func NewPaymentRecordedHandler(recalculator BookRecalculator, logger *zap.Logger) *PaymentRecordedHandler {
	return &PaymentRecordedHandler{
		recalculator: recalculator,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *PaymentRecordedHandler) EventTypes() []string {
	return []string{commission.EventTypePaymentRecorded}
}

// Handle recomputes the book that owns the paid distribution
func (h *PaymentRecordedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	paymentEvent, ok := event.(*commission.PaymentRecordedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", commission.EventTypePaymentRecorded),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			commission.EventTypePaymentRecorded, event.EventType())
	}

	h.logger.Info("processing payment recorded event for commission",
		zap.String("payment_id", paymentEvent.PaymentID.String()),
		zap.String("distribution_id", paymentEvent.DistributionID.String()),
		zap.String("amount_paid", paymentEvent.AmountPaid.String()),
	)

	outcome, err := h.recalculator.OnPayment(ctx, paymentEvent.DistributionID)
	if err != nil {
		h.logger.Error("failed to recalculate commission for payment",
			zap.String("payment_id", paymentEvent.PaymentID.String()),
			zap.String("distribution_id", paymentEvent.DistributionID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to recalculate commission: %w", err)
	}

	h.logger.Info("commission recalculated for payment",
		zap.String("payment_id", paymentEvent.PaymentID.String()),
		zap.String("book_id", outcome.BookID.String()),
		zap.String("status", string(outcome.Status)),
		zap.Int("records", len(outcome.Records)),
	)
	return nil
}

var _ shared.EventHandler = (*PaymentRecordedHandler)(nil)
