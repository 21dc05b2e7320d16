package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticketbook/backend/internal/domain/shared/valueobject"
)

// PaymentStatus is the payment state of a book derived from its payments
type PaymentStatus string

const (
	PaymentStatusFullyPaid PaymentStatus = "FULLY_PAID"
	PaymentStatusPartial   PaymentStatus = "PARTIAL"
	PaymentStatusUnpaid    PaymentStatus = "UNPAID"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusFullyPaid, PaymentStatusPartial, PaymentStatusUnpaid:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// AggregateResult is the folded payment state of one book
type AggregateResult struct {
	BookID          uuid.UUID         `json:"book_id"`
	ExpectedAmount  decimal.Decimal   `json:"expected_amount"`
	TotalPaid       decimal.Decimal   `json:"total_paid"`
	Status          PaymentStatus     `json:"status"`
	LastPaymentDate *valueobject.Date `json:"last_payment_date"`
	PaymentCount    int               `json:"payment_count"`
	LastRecordedAt  time.Time         `json:"last_recorded_at"`
}

// IsFullyPaid reports whether the book reached FULLY_PAID
func (r AggregateResult) IsFullyPaid() bool {
	return r.Status == PaymentStatusFullyPaid
}

// HasPayments reports whether at least one payment was folded
func (r AggregateResult) HasPayments() bool {
	return r.PaymentCount > 0
}

// Outstanding returns the unpaid remainder, never negative
func (r AggregateResult) Outstanding() decimal.Decimal {
	remaining := r.ExpectedAmount.Sub(r.TotalPaid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// Aggregate folds the payments of a book into its paid total and status.
// Every payment counts regardless of its date. Overpayment is FULLY_PAID.
func Aggregate(book *Book, payments []PaymentCollection) AggregateResult {
	result := AggregateResult{
		BookID:         book.ID,
		ExpectedAmount: book.ExpectedAmount(),
		TotalPaid:      decimal.Zero,
		PaymentCount:   len(payments),
	}

	var last valueobject.Date
	for _, p := range payments {
		result.TotalPaid = result.TotalPaid.Add(p.AmountPaid)
		if last.IsZero() || p.PaymentDate.After(last) {
			last = p.PaymentDate
		}
		if p.CreatedAt.After(result.LastRecordedAt) {
			result.LastRecordedAt = p.CreatedAt
		}
	}
	if !last.IsZero() {
		result.LastPaymentDate = &last
	}

	switch {
	case result.TotalPaid.GreaterThanOrEqual(result.ExpectedAmount):
		result.Status = PaymentStatusFullyPaid
	case result.TotalPaid.IsPositive():
		result.Status = PaymentStatusPartial
	default:
		result.Status = PaymentStatusUnpaid
	}

	return result
}
