package commission

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticketbook/backend/internal/domain/shared"
	"github.com/ticketbook/backend/internal/domain/shared/valueobject"
)

// PaymentCollection is an append-only payment event against a distribution.
// Payments are never mutated or deleted; corrections are new events.
type PaymentCollection struct {
	ID             uuid.UUID        `json:"payment_id"`
	DistributionID uuid.UUID        `json:"distribution_id"`
	AmountPaid     decimal.Decimal  `json:"amount_paid"`
	PaymentDate    valueobject.Date `json:"payment_date"`
	Method         string           `json:"method"`
	CreatedAt      time.Time        `json:"created_at"`
}

// NewPaymentCollection creates a new payment event
func NewPaymentCollection(distributionID uuid.UUID, amountPaid decimal.Decimal, paymentDate valueobject.Date, method string) (*PaymentCollection, error) {
	if distributionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DISTRIBUTION", "Distribution ID cannot be empty")
	}
	if !amountPaid.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount paid must be positive")
	}
	if paymentDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date is required")
	}
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is required")
	}
	if len(method) > 50 {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method cannot exceed 50 characters")
	}

	return &PaymentCollection{
		ID:             uuid.New(),
		DistributionID: distributionID,
		AmountPaid:     amountPaid,
		PaymentDate:    paymentDate,
		Method:         method,
		CreatedAt:      time.Now(),
	}, nil
}
