package commission

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared"
	"go.uber.org/zap"
)

func ledgerRecords(t *testing.T, types ...commission.CommissionType) (*commission.Book, []commission.CommissionRecord) {
	t.Helper()
	book := newTestBook(t, uuid.New(), "B-100", true)
	dist := newTestDistribution(t, book, "Zone1 > Agent1")
	records := make([]commission.CommissionRecord, 0, len(types))
	for _, ct := range types {
		rec, err := commission.NewCommissionRecord(book, dist, commission.Eligibility{
			Type:           ct,
			BasisAmount:    dec("1000"),
			QualifyingDate: newTestPayment(t, dist, "1", "2025-12-10").PaymentDate,
		}, testAsOf)
		require.NoError(t, err)
		records = append(records, *rec)
	}
	return book, records
}

func TestCommissionLedger_Apply_ReplacesSlice(t *testing.T) {
	ctx := context.Background()
	book, records := ledgerRecords(t, commission.CommissionTypeExtraBooks, commission.CommissionTypeEarly)

	recordRepo := new(MockCommissionRecordRepository)
	var order []string
	recordRepo.On("DeleteByBook", ctx, book.ID).Return(int64(1), nil).Run(func(mock.Arguments) {
		order = append(order, "delete")
	})
	recordRepo.On("CreateBatch", ctx, records).Return(nil).Run(func(mock.Arguments) {
		order = append(order, "insert")
	})
	scope := NewNoOpTransactionScope(nil, nil, nil, recordRepo)

	err := NewCommissionLedger(zap.NewNop()).Apply(ctx, scope, book.ID, book.EventID, records)
	require.NoError(t, err)
	assert.Equal(t, []string{"delete", "insert"}, order)
	recordRepo.AssertExpectations(t)
}

func TestCommissionLedger_Apply_EmptySetClearsBook(t *testing.T) {
	ctx := context.Background()
	bookID, eventID := uuid.New(), uuid.New()

	recordRepo := new(MockCommissionRecordRepository)
	recordRepo.On("DeleteByBook", ctx, bookID).Return(int64(2), nil)
	scope := NewNoOpTransactionScope(nil, nil, nil, recordRepo)

	err := NewCommissionLedger(zap.NewNop()).Apply(ctx, scope, bookID, eventID, []commission.CommissionRecord{})
	require.NoError(t, err)
	recordRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestCommissionLedger_Apply_PersistenceFailures(t *testing.T) {
	ctx := context.Background()
	book, records := ledgerRecords(t, commission.CommissionTypeEarly)

	t.Run("delete failure", func(t *testing.T) {
		recordRepo := new(MockCommissionRecordRepository)
		recordRepo.On("DeleteByBook", ctx, book.ID).Return(int64(0), errors.New("connection reset"))
		scope := NewNoOpTransactionScope(nil, nil, nil, recordRepo)

		err := NewCommissionLedger(zap.NewNop()).Apply(ctx, scope, book.ID, book.EventID, records)
		var pe *commission.PersistenceError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "delete_records", pe.Op)
		recordRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})

	t.Run("insert conflict keeps its sentinel", func(t *testing.T) {
		recordRepo := new(MockCommissionRecordRepository)
		recordRepo.On("DeleteByBook", ctx, book.ID).Return(int64(0), nil)
		recordRepo.On("CreateBatch", ctx, records).Return(shared.ErrConcurrencyConflict)
		scope := NewNoOpTransactionScope(nil, nil, nil, recordRepo)

		err := NewCommissionLedger(zap.NewNop()).Apply(ctx, scope, book.ID, book.EventID, records)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestCommissionLedger_Apply_RejectsInvalidSets(t *testing.T) {
	ctx := context.Background()
	recordRepo := new(MockCommissionRecordRepository)
	scope := NewNoOpTransactionScope(nil, nil, nil, recordRepo)
	ledger := NewCommissionLedger(zap.NewNop())

	t.Run("record of another book", func(t *testing.T) {
		book, records := ledgerRecords(t, commission.CommissionTypeEarly)
		err := ledger.Apply(ctx, scope, uuid.New(), book.EventID, records)
		assert.Equal(t, "INVALID_RECORD", shared.ErrorCode(err))
	})

	t.Run("early and standard together", func(t *testing.T) {
		book, records := ledgerRecords(t, commission.CommissionTypeEarly, commission.CommissionTypeStandard)
		err := ledger.Apply(ctx, scope, book.ID, book.EventID, records)
		assert.Equal(t, "EXCLUSIVE_TIERS", shared.ErrorCode(err))
	})

	t.Run("duplicate type", func(t *testing.T) {
		book, records := ledgerRecords(t, commission.CommissionTypeEarly, commission.CommissionTypeEarly)
		err := ledger.Apply(ctx, scope, book.ID, book.EventID, records)
		assert.Equal(t, "DUPLICATE_COMMISSION_TYPE", shared.ErrorCode(err))
	})

	recordRepo.AssertNotCalled(t, "DeleteByBook", mock.Anything, mock.Anything)
}
