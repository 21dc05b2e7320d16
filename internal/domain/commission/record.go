package commission

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticketbook/backend/internal/domain/shared"
	"github.com/ticketbook/backend/internal/domain/shared/valueobject"
)

// recordNamespace seeds name-based commission record IDs
var recordNamespace = uuid.MustParse("6f1c3b2a-8d4e-5f60-9a7b-0c1d2e3f4a5b")

// CommissionRecord is a derived commission fact. Records are only ever
// created or replaced by recalculation and are unique per (book, type).
type CommissionRecord struct {
	ID                uuid.UUID        `json:"commission_id"`
	EventID           uuid.UUID        `json:"event_id"`
	BookID            uuid.UUID        `json:"book_id"`
	DistributionID    uuid.UUID        `json:"distribution_id"`
	Level1Value       string           `json:"level_1_value"`
	CommissionType    CommissionType   `json:"commission_type"`
	CommissionPercent decimal.Decimal  `json:"commission_percent"`
	PaymentAmount     decimal.Decimal  `json:"payment_amount"`
	CommissionAmount  decimal.Decimal  `json:"commission_amount"`
	PaymentDate       valueobject.Date `json:"payment_date"`
	CreatedAt         time.Time        `json:"created_at"`
}

// RecordID returns the deterministic ID of the record of type t for a book
func RecordID(bookID uuid.UUID, t CommissionType) uuid.UUID {
	return uuid.NewSHA1(recordNamespace, []byte(bookID.String()+":"+string(t)))
}

// InputsChangedAt is the latest change among the rows a book's records are
// derived from: its payments and the event's settings. Records are stamped
// with it, so re-deriving unchanged inputs reproduces them exactly.
func InputsChangedAt(aggregate AggregateResult, settings SettingsResolution) time.Time {
	at := aggregate.LastRecordedAt
	if settings.UpdatedAt.After(at) {
		at = settings.UpdatedAt
	}
	return at.UTC()
}

// NewCommissionRecord materializes one eligibility as a record stamped at asOf
func NewCommissionRecord(book *Book, dist *Distribution, e Eligibility, asOf time.Time) (*CommissionRecord, error) {
	if !e.Type.IsValid() {
		return nil, shared.NewDomainError("INVALID_COMMISSION_TYPE", fmt.Sprintf("Unknown commission type %q", e.Type))
	}
	if dist == nil || dist.BookID != book.ID {
		return nil, shared.NewDomainError("INVALID_DISTRIBUTION", "Distribution does not belong to the book")
	}
	level1 := dist.Level1Value()
	if level1 == "" {
		return nil, shared.NewDomainError(CodeEmptyAttribution, "Cannot create a commission record without a level 1 value")
	}
	if e.QualifyingDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_DATE", "Qualifying payment date is required")
	}

	return &CommissionRecord{
		ID:                RecordID(book.ID, e.Type),
		EventID:           book.EventID,
		BookID:            book.ID,
		DistributionID:    dist.ID,
		Level1Value:       level1,
		CommissionType:    e.Type,
		CommissionPercent: e.Percent.Value(),
		PaymentAmount:     e.BasisAmount,
		CommissionAmount:  e.CommissionAmount(),
		PaymentDate:       e.QualifyingDate,
		CreatedAt:         asOf.UTC(),
	}, nil
}

// BuildRecords materializes every eligibility of an evaluation.
// A skipped evaluation yields an empty, non-nil slice.
func BuildRecords(book *Book, dist *Distribution, ev Evaluation, asOf time.Time) ([]CommissionRecord, error) {
	records := make([]CommissionRecord, 0, len(ev.Eligible))
	if ev.SkipReason != SkipReasonNone {
		return records, nil
	}
	seen := make(map[CommissionType]bool, len(ev.Eligible))
	timeBased := 0
	for _, e := range ev.Eligible {
		if seen[e.Type] {
			return nil, shared.NewDomainError("DUPLICATE_COMMISSION_TYPE", fmt.Sprintf("Commission type %s appears twice", e.Type))
		}
		seen[e.Type] = true
		if e.Type.IsTimeBased() {
			timeBased++
		}
		rec, err := NewCommissionRecord(book, dist, e, asOf)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if timeBased > 1 {
		return nil, shared.NewDomainError("EXCLUSIVE_TIERS", "A book cannot earn both early and standard commission")
	}
	return records, nil
}

// SumCommission totals the commission amount of records
func SumCommission(records []CommissionRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.CommissionAmount)
	}
	return total
}
