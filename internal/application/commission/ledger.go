package commission

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CommissionLedger replaces a book's slice of commission records.
// It must be called inside the caller's transaction.
type CommissionLedger struct {
	logger *zap.Logger
}

// NewCommissionLedger creates a new CommissionLedger
func NewCommissionLedger(logger *zap.Logger) *CommissionLedger {
	return &CommissionLedger{logger: logger}
}

// Apply deletes every record of the book and inserts exactly records.
// An empty set clears the book. Applying the same set twice leaves the same state.
func (l *CommissionLedger) Apply(
	ctx context.Context,
	repos TransactionalRepositories,
	bookID, eventID uuid.UUID,
	records []commission.CommissionRecord,
) error {
	seen := make(map[commission.CommissionType]bool, len(records))
	for _, r := range records {
		if r.BookID != bookID || r.EventID != eventID {
			return shared.NewDomainError("INVALID_RECORD", fmt.Sprintf("Record %s does not belong to book %s", r.ID, bookID))
		}
		if seen[r.CommissionType] {
			return shared.NewDomainError("DUPLICATE_COMMISSION_TYPE", fmt.Sprintf("Commission type %s appears twice for book %s", r.CommissionType, bookID))
		}
		seen[r.CommissionType] = true
	}
	if seen[commission.CommissionTypeEarly] && seen[commission.CommissionTypeStandard] {
		return shared.NewDomainError("EXCLUSIVE_TIERS", "A book cannot hold both early and standard commission")
	}

	removed, err := repos.RecordRepo().DeleteByBook(ctx, bookID)
	if err != nil {
		return commission.NewPersistenceError("delete_records", bookID, err)
	}

	if len(records) > 0 {
		if err := repos.RecordRepo().CreateBatch(ctx, records); err != nil {
			return commission.NewPersistenceError("insert_records", bookID, err)
		}
	}

	l.logger.Debug("commission ledger applied",
		zap.String("book_id", bookID.String()),
		zap.String("event_id", eventID.String()),
		zap.Int64("removed", removed),
		zap.Int("inserted", len(records)),
	)
	return nil
}
