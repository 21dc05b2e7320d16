package commission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared"
)

// BookStatus is the per-book outcome of a recomputation
type BookStatus string

const (
	BookStatusSuccess BookStatus = "success"
	BookStatusSkipped BookStatus = "skipped"
	BookStatusFailed  BookStatus = "failed"
)

// Trigger names what started a recomputation
type Trigger string

const (
	TriggerPayment Trigger = "payment"
	TriggerBook    Trigger = "book"
	TriggerEvent   Trigger = "event"
	TriggerSweep   Trigger = "sweep"
)

// String returns the trigger name
func (t Trigger) String() string {
	return string(t)
}

// CommissionRecordResponse represents a commission record in API responses
type CommissionRecordResponse struct {
	ID                uuid.UUID       `json:"commission_id"`
	EventID           uuid.UUID       `json:"event_id"`
	BookID            uuid.UUID       `json:"book_id"`
	DistributionID    uuid.UUID       `json:"distribution_id"`
	Level1Value       string          `json:"level_1_value"`
	CommissionType    string          `json:"commission_type"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	PaymentAmount     decimal.Decimal `json:"payment_amount"`
	CommissionAmount  decimal.Decimal `json:"commission_amount"`
	PaymentDate       string          `json:"payment_date"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ToCommissionRecordResponse converts a domain CommissionRecord to its response
func ToCommissionRecordResponse(r *commission.CommissionRecord) CommissionRecordResponse {
	return CommissionRecordResponse{
		ID:                r.ID,
		EventID:           r.EventID,
		BookID:            r.BookID,
		DistributionID:    r.DistributionID,
		Level1Value:       r.Level1Value,
		CommissionType:    string(r.CommissionType),
		CommissionPercent: r.CommissionPercent,
		PaymentAmount:     r.PaymentAmount,
		CommissionAmount:  r.CommissionAmount,
		PaymentDate:       r.PaymentDate.String(),
		CreatedAt:         r.CreatedAt,
	}
}

// ToCommissionRecordResponses converts a slice of records
func ToCommissionRecordResponses(records []commission.CommissionRecord) []CommissionRecordResponse {
	responses := make([]CommissionRecordResponse, len(records))
	for i := range records {
		responses[i] = ToCommissionRecordResponse(&records[i])
	}
	return responses
}

// DiagnosticResponse represents a configuration or data-quality diagnostic
type DiagnosticResponse struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Tier    string `json:"tier,omitempty"`
}

// ToDiagnosticResponses converts domain diagnostics
func ToDiagnosticResponses(diags []commission.Diagnostic) []DiagnosticResponse {
	responses := make([]DiagnosticResponse, len(diags))
	for i, d := range diags {
		responses[i] = DiagnosticResponse{
			Kind:    string(d.Kind),
			Code:    d.Code,
			Message: d.Message,
		}
		if d.Tier != nil {
			responses[i].Tier = string(*d.Tier)
		}
	}
	return responses
}

// BookOutcome is the result of recomputing one book
type BookOutcome struct {
	BookID         uuid.UUID                  `json:"book_id"`
	BookNumber     string                     `json:"book_number,omitempty"`
	EventID        uuid.UUID                  `json:"event_id"`
	Status         BookStatus                 `json:"status"`
	Reason         string                     `json:"reason,omitempty"`
	PaymentStatus  string                     `json:"payment_status,omitempty"`
	ExpectedAmount decimal.Decimal            `json:"expected_amount"`
	TotalPaid      decimal.Decimal            `json:"total_paid"`
	Records        []CommissionRecordResponse `json:"records"`
	Diagnostics    []DiagnosticResponse       `json:"diagnostics,omitempty"`
	Attempts       int                        `json:"attempts"`

	err error
}

// Err returns the failure of a failed outcome
func (o *BookOutcome) Err() error {
	return o.err
}

func (o *BookOutcome) errorCode() string {
	var pe *commission.PersistenceError
	switch {
	case o.err == nil:
		return ""
	case errors.As(o.err, &pe):
		return pe.Code()
	case errors.Is(o.err, context.DeadlineExceeded):
		return "BOOK_TIMEOUT"
	case errors.Is(o.err, context.Canceled):
		return "CANCELED"
	}
	if code := shared.ErrorCode(o.err); code != "" {
		return code
	}
	return "RECALCULATION_FAILED"
}

// CommissionTotal sums the commission of the outcome's records
func (o *BookOutcome) CommissionTotal() decimal.Decimal {
	total := decimal.Zero
	for _, r := range o.Records {
		total = total.Add(r.CommissionAmount)
	}
	return total
}

// RecalculationError reports a book that failed during a batch
type RecalculationError struct {
	BookID     uuid.UUID `json:"book_id"`
	BookNumber string    `json:"book_number,omitempty"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
}

// RecalculationReport is the operator-facing result of recalculating an event.
// Every book of the event appears in Books exactly once.
type RecalculationReport struct {
	EventID             uuid.UUID            `json:"event_id"`
	BooksProcessed      int                  `json:"books_processed"`
	BooksWithCommission int                  `json:"books_with_commission"`
	BooksSkipped        int                  `json:"books_skipped"`
	BooksFailed         int                  `json:"books_failed"`
	TotalCommission     decimal.Decimal      `json:"total_commission"`
	Errors              []RecalculationError `json:"errors"`
	SettingsDiagnostics []DiagnosticResponse `json:"settings_diagnostics,omitempty"`
	Books               []BookOutcome        `json:"books"`
	StartedAt           time.Time            `json:"started_at"`
	CompletedAt         time.Time            `json:"completed_at"`
}

// CommissionTotalResponse is the sum of commission over an event
type CommissionTotalResponse struct {
	EventID uuid.UUID       `json:"event_id"`
	Total   decimal.Decimal `json:"total"`
}

// Level1Summary totals commission for one attribution key
type Level1Summary struct {
	Level1Value string                     `json:"level_1_value"`
	Books       int                        `json:"books"`
	Total       decimal.Decimal            `json:"total"`
	ByType      map[string]decimal.Decimal `json:"by_type"`
}

// EventSummaryResponse groups an event's commission by level 1 value
type EventSummaryResponse struct {
	EventID uuid.UUID       `json:"event_id"`
	Total   decimal.Decimal `json:"total"`
	Levels  []Level1Summary `json:"levels"`
}

// ListRecordsFilter narrows a commission record listing
type ListRecordsFilter struct {
	CommissionType string `form:"type" binding:"omitempty,oneof=early standard extra_books"`
	Level1Value    string `form:"level_1_value" binding:"max=500"`
}

// RecordPaymentRequest represents a payment handed over by the payment subsystem
type RecordPaymentRequest struct {
	DistributionID uuid.UUID       `json:"distribution_id" binding:"required"`
	AmountPaid     decimal.Decimal `json:"amount_paid" binding:"required"`
	PaymentDate    string          `json:"payment_date" binding:"required,datetime=2006-01-02"`
	Method         string          `json:"method" binding:"required,min=1,max=50"`
}

// ImportPaymentsRequest represents a bulk payment import
type ImportPaymentsRequest struct {
	Payments []RecordPaymentRequest `json:"payments" binding:"required,min=1,max=1000,dive"`
}

// PaymentResponse represents a stored payment
type PaymentResponse struct {
	ID             uuid.UUID       `json:"payment_id"`
	DistributionID uuid.UUID       `json:"distribution_id"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	PaymentDate    string          `json:"payment_date"`
	Method         string          `json:"method"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToPaymentResponse converts a domain payment to its response
func ToPaymentResponse(p *commission.PaymentCollection) PaymentResponse {
	return PaymentResponse{
		ID:             p.ID,
		DistributionID: p.DistributionID,
		AmountPaid:     p.AmountPaid,
		PaymentDate:    p.PaymentDate.String(),
		Method:         p.Method,
		CreatedAt:      p.CreatedAt,
	}
}

// RecordPaymentResponse carries the stored payment and the commission
// outcome of its book. CommissionError is set when commission could not be
// updated; the payment itself is stored regardless.
type RecordPaymentResponse struct {
	Payment         PaymentResponse `json:"payment"`
	Commission      *BookOutcome    `json:"commission,omitempty"`
	CommissionError string          `json:"commission_error,omitempty"`
}

// ImportPaymentsResponse reports a bulk payment import
type ImportPaymentsResponse struct {
	Imported int               `json:"imported"`
	Payments []PaymentResponse `json:"payments"`
}

// BookDiagnosis is a read-only evaluation of one book against current data
type BookDiagnosis struct {
	BookID          uuid.UUID                  `json:"book_id"`
	BookNumber      string                     `json:"book_number"`
	IsExtraBook     bool                       `json:"is_extra_book"`
	Level1Value     string                     `json:"level_1_value"`
	PaymentStatus   string                     `json:"payment_status"`
	ExpectedAmount  decimal.Decimal            `json:"expected_amount"`
	TotalPaid       decimal.Decimal            `json:"total_paid"`
	PaymentCount    int                        `json:"payment_count"`
	LastPaymentDate string                     `json:"last_payment_date,omitempty"`
	SkipReason      string                     `json:"skip_reason,omitempty"`
	Expected        []CommissionRecordResponse `json:"expected"`
	Persisted       []CommissionRecordResponse `json:"persisted"`
	InSync          bool                       `json:"in_sync"`
	Diagnostics     []DiagnosticResponse       `json:"diagnostics,omitempty"`
}

// EventDiagnosticsResponse is the diagnostics report of an event
type EventDiagnosticsResponse struct {
	EventID             uuid.UUID            `json:"event_id"`
	SettingsState       string               `json:"settings_state"`
	SettingsDiagnostics []DiagnosticResponse `json:"settings_diagnostics"`
	Books               []BookDiagnosis      `json:"books"`
	BooksOutOfSync      int                  `json:"books_out_of_sync"`
	AsOf                time.Time            `json:"as_of"`
}
