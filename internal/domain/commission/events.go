package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticketbook/backend/internal/domain/shared"
	"github.com/ticketbook/backend/internal/domain/shared/valueobject"
)

// Event type names
const (
	EventTypePaymentRecorded        = "PaymentRecorded"
	EventTypeCommissionRecalculated = "CommissionRecalculated"
)

// Aggregate type names
const (
	AggregateTypePayment = "PaymentCollection"
	AggregateTypeEvent   = "Event"
)

// PaymentRecordedEvent is raised after a payment has been durably stored
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID      uuid.UUID        `json:"payment_id"`
	DistributionID uuid.UUID        `json:"distribution_id"`
	AmountPaid     decimal.Decimal  `json:"amount_paid"`
	PaymentDate    valueobject.Date `json:"payment_date"`
	Method         string           `json:"method"`
}

// EventType returns the event type name
func (e *PaymentRecordedEvent) EventType() string {
	return EventTypePaymentRecorded
}

// NewPaymentRecordedEvent creates the event for a stored payment. It occurs
// when the payment row was created.
func NewPaymentRecordedEvent(p *PaymentCollection) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID, p.CreatedAt),
		PaymentID:       p.ID,
		DistributionID:  p.DistributionID,
		AmountPaid:      p.AmountPaid,
		PaymentDate:     p.PaymentDate,
		Method:          p.Method,
	}
}

// CommissionRecalculatedEvent is raised after a batch recalculation of an event
type CommissionRecalculatedEvent struct {
	shared.BaseDomainEvent
	BooksProcessed      int             `json:"books_processed"`
	BooksWithCommission int             `json:"books_with_commission"`
	BooksFailed         int             `json:"books_failed"`
	TotalCommission     decimal.Decimal `json:"total_commission"`
}

// EventType returns the event type name
func (e *CommissionRecalculatedEvent) EventType() string {
	return EventTypeCommissionRecalculated
}

// NewCommissionRecalculatedEvent creates the event for a recalculation of
// eventID that completed at completedAt
func NewCommissionRecalculatedEvent(eventID uuid.UUID, processed, withCommission, failed int, total decimal.Decimal, completedAt time.Time) *CommissionRecalculatedEvent {
	return &CommissionRecalculatedEvent{
		BaseDomainEvent:     shared.NewBaseDomainEvent(EventTypeCommissionRecalculated, AggregateTypeEvent, eventID, completedAt),
		BooksProcessed:      processed,
		BooksWithCommission: withCommission,
		BooksFailed:         failed,
		TotalCommission:     total,
	}
}
