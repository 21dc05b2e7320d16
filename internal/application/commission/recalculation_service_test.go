package commission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared"
)

func recordsOfTypes(types ...commission.CommissionType) interface{} {
	return mock.MatchedBy(func(records []commission.CommissionRecord) bool {
		if len(records) != len(types) {
			return false
		}
		for i, r := range records {
			if r.CommissionType != types[i] {
				return false
			}
		}
		return true
	})
}

func TestRecalculateBook_EarlyPayment(t *testing.T) {
	f := newRecalcFixture(fastConfig())
	eventID := uuid.New()
	book := newTestBook(t, eventID, "A-1", false)
	dist := newTestDistribution(t, book, "Zone1 > Agent1")
	payments := []commission.PaymentCollection{
		newTestPayment(t, dist, "600", "2025-12-01"),
		newTestPayment(t, dist, "400", "2025-12-10"),
	}
	payments[0].CreatedAt = testAsOf.Add(-48 * time.Hour)
	payments[1].CreatedAt = testAsOf.Add(-time.Hour)
	settings := testSettings(eventID)
	settings.UpdatedAt = testAsOf.Add(-72 * time.Hour)

	f.expectBook(book, dist, payments)
	f.settings.On("FindByEventID", mock.Anything, eventID).Return(settings, nil)
	f.records.On("DeleteByBook", mock.Anything, book.ID).Return(int64(0), nil)
	f.records.On("CreateBatch", mock.Anything, recordsOfTypes(commission.CommissionTypeEarly)).Return(nil)

	outcome, err := f.service.RecalculateBook(context.Background(), book.ID)
	require.NoError(t, err)

	assert.Equal(t, BookStatusSuccess, outcome.Status)
	assert.Equal(t, eventID, outcome.EventID)
	assert.Equal(t, "FULLY_PAID", outcome.PaymentStatus)
	assert.Equal(t, 1, outcome.Attempts)
	require.Len(t, outcome.Records, 1)
	rec := outcome.Records[0]
	assert.Equal(t, "early", rec.CommissionType)
	assert.True(t, rec.CommissionPercent.Equal(dec("10")))
	assert.True(t, rec.PaymentAmount.Equal(dec("1000")))
	assert.True(t, rec.CommissionAmount.Equal(dec("100")))
	assert.Equal(t, "2025-12-10", rec.PaymentDate)
	assert.Equal(t, "Zone1", rec.Level1Value)
	assert.Equal(t, testAsOf.Add(-time.Hour), rec.CreatedAt, "stamped with the latest payment, not the clock")
	assert.Equal(t, commission.RecordID(book.ID, commission.CommissionTypeEarly), rec.ID)
	f.assertExpectations(t)
}

func TestRecalculateBook_PartialPaymentClearsRecords(t *testing.T) {
	f := newRecalcFixture(fastConfig())
	eventID := uuid.New()
	book := newTestBook(t, eventID, "A-2", true)
	dist := newTestDistribution(t, book, "Zone1 > Agent1")

	f.expectBook(book, dist, []commission.PaymentCollection{newTestPayment(t, dist, "999.99", "2025-12-01")})
	f.settings.On("FindByEventID", mock.Anything, eventID).Return(testSettings(eventID), nil)
	f.records.On("DeleteByBook", mock.Anything, book.ID).Return(int64(2), nil)

	outcome, err := f.service.RecalculateBook(context.Background(), book.ID)
	require.NoError(t, err)

	assert.Equal(t, BookStatusSkipped, outcome.Status)
	assert.Equal(t, string(commission.SkipReasonNotFullyPaid), outcome.Reason)
	assert.Equal(t, "PARTIAL", outcome.PaymentStatus)
	assert.Empty(t, outcome.Records)
	f.records.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestRecalculateBook_MissingDistributionFailsClosed(t *testing.T) {
	f := newRecalcFixture(fastConfig())
	eventID := uuid.New()
	book := newTestBook(t, eventID, "A-3", false)
	dist := newTestDistribution(t, book, " > Agent1")

	f.expectBook(book, dist, []commission.PaymentCollection{newTestPayment(t, dist, "1000", "2025-12-01")})
	f.settings.On("FindByEventID", mock.Anything, eventID).Return(testSettings(eventID), nil)
	f.records.On("DeleteByBook", mock.Anything, book.ID).Return(int64(1), nil)

	outcome, err := f.service.RecalculateBook(context.Background(), book.ID)
	require.NoError(t, err)

	assert.Equal(t, BookStatusSkipped, outcome.Status)
	assert.Equal(t, string(commission.SkipReasonMissingAttribution), outcome.Reason)
	require.Len(t, outcome.Diagnostics, 1)
	assert.Equal(t, string(commission.ErrorKindDataQuality), outcome.Diagnostics[0].Kind)
	assert.Equal(t, commission.CodeEmptyAttribution, outcome.Diagnostics[0].Code)
	f.records.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestRecalculateBook_NotConfiguredReportsDiagnostic(t *testing.T) {
	f := newRecalcFixture(fastConfig())
	eventID := uuid.New()
	book := newTestBook(t, eventID, "A-4", false)
	dist := newTestDistribution(t, book, "Zone1")

	f.expectBook(book, dist, []commission.PaymentCollection{newTestPayment(t, dist, "1000", "2025-12-01")})
	f.settings.On("FindByEventID", mock.Anything, eventID).Return(nil, shared.ErrNotFound)
	f.records.On("DeleteByBook", mock.Anything, book.ID).Return(int64(0), nil)

	outcome, err := f.service.RecalculateBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, BookStatusSkipped, outcome.Status)
	assert.Equal(t, string(commission.SkipReasonSettingsNotConfigured), outcome.Reason)
	require.Len(t, outcome.Diagnostics, 1)
	assert.Equal(t, commission.CodeSettingsNotConfigured, outcome.Diagnostics[0].Code)
}

func TestRecalculateBook_BookNotFound(t *testing.T) {
	f := newRecalcFixture(fastConfig())
	bookID := uuid.New()
	f.books.On("FindByIDForUpdate", mock.Anything, bookID).Return(nil, shared.ErrNotFound)

	outcome, err := f.service.RecalculateBook(context.Background(), bookID)
	require.Error(t, err)
	assert.Equal(t, "BOOK_NOT_FOUND", shared.ErrorCode(err))
	assert.Equal(t, BookStatusFailed, outcome.Status)
	assert.Equal(t, 1, outcome.Attempts)
}

func TestRecalculateBook_RetriesOnConflict(t *testing.T) {
	f := newRecalcFixture(fastConfig())
	eventID := uuid.New()
	book := newTestBook(t, eventID, "A-5", false)
	dist := newTestDistribution(t, book, "Zone1 > Agent1")

	f.expectBook(book, dist, []commission.PaymentCollection{newTestPayment(t, dist, "1000", "2025-12-20")})
	f.settings.On("FindByEventID", mock.Anything, eventID).Return(testSettings(eventID), nil)
	f.records.On("DeleteByBook", mock.Anything, book.ID).Return(int64(0), nil)
	f.records.On("CreateBatch", mock.Anything, mock.Anything).Return(shared.ErrConcurrencyConflict).Once()
	f.records.On("CreateBatch", mock.Anything, recordsOfTypes(commission.CommissionTypeStandard)).Return(nil).Once()

	outcome, err := f.service.RecalculateBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, BookStatusSuccess, outcome.Status)
	assert.Equal(t, 2, outcome.Attempts)
	require.Len(t, outcome.Records, 1)
	assert.True(t, outcome.Records[0].CommissionAmount.Equal(dec("50")))
	f.books.AssertNumberOfCalls(t, "FindByIDForUpdate", 2)
	f.payments.AssertNumberOfCalls(t, "FindByBookID", 2)
}

func TestRecalculateBook_GivesUpAfterMaxRetries(t *testing.T) {
	f := newRecalcFixture(fastConfig())
	eventID := uuid.New()
	book := newTestBook(t, eventID, "A-6", false)
	dist := newTestDistribution(t, book, "Zone1 > Agent1")

	f.expectBook(book, dist, []commission.PaymentCollection{newTestPayment(t, dist, "1000", "2025-12-20")})
	f.settings.On("FindByEventID", mock.Anything, eventID).Return(testSettings(eventID), nil)
	f.records.On("DeleteByBook", mock.Anything, book.ID).Return(int64(0), shared.ErrConcurrencyConflict)

	outcome, err := f.service.RecalculateBook(context.Background(), book.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, BookStatusFailed, outcome.Status)
	assert.Equal(t, 3, outcome.Attempts)
}

func TestRecalculateBook_IsIdempotent(t *testing.T) {
	f := newRecalcFixture(fastConfig())
	f.service.SetClock(SystemClock)
	eventID := uuid.New()
	book := newTestBook(t, eventID, "D-1", true)
	dist := newTestDistribution(t, book, "Zone2 > Agent9")

	f.expectBook(book, dist, []commission.PaymentCollection{newTestPayment(t, dist, "1000", "2025-12-30")})
	f.settings.On("FindByEventID", mock.Anything, eventID).Return(testSettings(eventID), nil)
	f.records.On("DeleteByBook", mock.Anything, book.ID).Return(int64(1), nil)

	var written [][]commission.CommissionRecord
	f.records.On("CreateBatch", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		written = append(written, args.Get(1).([]commission.CommissionRecord))
	})

	_, err := f.service.RecalculateBook(context.Background(), book.ID)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = f.service.RecalculateBook(context.Background(), book.ID)
	require.NoError(t, err)

	require.Len(t, written, 2)
	assert.Equal(t, written[0], written[1])
	require.Len(t, written[0], 1)
	assert.Equal(t, commission.CommissionTypeExtraBooks, written[0][0].CommissionType)
	assert.True(t, written[0][0].CommissionAmount.Equal(dec("80")))
}

func TestOnPayment_ResolvesOwningBook(t *testing.T) {
	f := newRecalcFixture(fastConfig())
	eventID := uuid.New()
	book := newTestBook(t, eventID, "A-7", false)
	dist := newTestDistribution(t, book, "Zone1 > Agent1")

	f.dists.On("FindByID", mock.Anything, dist.ID).Return(dist, nil)
	f.expectBook(book, dist, []commission.PaymentCollection{newTestPayment(t, dist, "1000", "2025-12-14")})
	f.settings.On("FindByEventID", mock.Anything, eventID).Return(testSettings(eventID), nil)
	f.records.On("DeleteByBook", mock.Anything, book.ID).Return(int64(0), nil)
	f.records.On("CreateBatch", mock.Anything, recordsOfTypes(commission.CommissionTypeEarly)).Return(nil)

	outcome, err := f.service.OnPayment(context.Background(), dist.ID)
	require.NoError(t, err)
	assert.Equal(t, book.ID, outcome.BookID)
	assert.Equal(t, BookStatusSuccess, outcome.Status)
	f.assertExpectations(t)
}

func TestOnPayment_UnknownDistribution(t *testing.T) {
	f := newRecalcFixture(fastConfig())
	distID := uuid.New()
	f.dists.On("FindByID", mock.Anything, distID).Return(nil, shared.ErrNotFound)

	outcome, err := f.service.OnPayment(context.Background(), distID)
	assert.Nil(t, outcome)
	assert.Equal(t, "DISTRIBUTION_NOT_FOUND", shared.ErrorCode(err))
}

func TestRecalculateEvent_ScenarioWithFailure(t *testing.T) {
	f := newRecalcFixture(RecalculationConfig{Workers: 2, MaxRetries: 1})
	f.service.SetEventPublisher(f.publisher)
	eventID := uuid.New()

	bookA := newTestBook(t, eventID, "A", false)
	distA := newTestDistribution(t, bookA, "Zone1 > Agent1")
	bookB := newTestBook(t, eventID, "B", false)
	distB := newTestDistribution(t, bookB, "Zone1 > Agent2")
	bookC := newTestBook(t, eventID, "C", false)
	distC := newTestDistribution(t, bookC, "Zone2 > Agent3")
	bookD := newTestBook(t, eventID, "D", true)
	distD := newTestDistribution(t, bookD, "Zone2 > Agent4")
	bookE := newTestBook(t, eventID, "E", false)

	f.settings.On("FindByEventID", mock.Anything, eventID).Return(testSettings(eventID), nil).Once()
	f.books.On("FindByEvent", mock.Anything, eventID).
		Return([]commission.Book{*bookA, *bookB, *bookC, *bookD, *bookE}, nil)

	f.expectBook(bookA, distA, []commission.PaymentCollection{newTestPayment(t, distA, "1000", "2025-12-10")})
	f.expectBook(bookB, distB, []commission.PaymentCollection{newTestPayment(t, distB, "1000", "2025-12-20")})
	f.expectBook(bookC, distC, []commission.PaymentCollection{newTestPayment(t, distC, "1000", "2025-12-30")})
	f.expectBook(bookD, distD, []commission.PaymentCollection{newTestPayment(t, distD, "1000", "2025-12-30")})
	f.books.On("FindByIDForUpdate", mock.Anything, bookE.ID).Return(nil, errors.New("connection reset by peer"))

	for _, b := range []*commission.Book{bookA, bookB, bookC, bookD} {
		f.records.On("DeleteByBook", mock.Anything, b.ID).Return(int64(0), nil)
	}
	f.records.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		if len(events) != 1 {
			return false
		}
		e, ok := events[0].(*commission.CommissionRecalculatedEvent)
		return ok && e.AggregateID() == eventID && e.BooksFailed == 1 && e.BooksWithCommission == 3
	})).Return(nil)

	report, err := f.service.RecalculateEvent(context.Background(), eventID)
	require.NoError(t, err)

	assert.Equal(t, eventID, report.EventID)
	assert.Equal(t, 5, report.BooksProcessed)
	assert.Equal(t, 3, report.BooksWithCommission)
	assert.Equal(t, 1, report.BooksSkipped)
	assert.Equal(t, 1, report.BooksFailed)
	assert.True(t, report.TotalCommission.Equal(dec("230")), report.TotalCommission.String())

	require.Len(t, report.Books, 5)
	assert.Equal(t, "A", report.Books[0].BookNumber)
	assert.Equal(t, "early", report.Books[0].Records[0].CommissionType)
	assert.Equal(t, "standard", report.Books[1].Records[0].CommissionType)
	assert.Equal(t, BookStatusSkipped, report.Books[2].Status)
	assert.Equal(t, string(commission.SkipReasonNoTierMatched), report.Books[2].Reason)
	require.Len(t, report.Books[3].Records, 1)
	assert.Equal(t, "extra_books", report.Books[3].Records[0].CommissionType)
	assert.Equal(t, BookStatusFailed, report.Books[4].Status)
	assert.Equal(t, "E", report.Books[4].BookNumber)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, bookE.ID, report.Errors[0].BookID)
	assert.Equal(t, commission.CodePersistenceFailure, report.Errors[0].Code)
	f.assertExpectations(t)
}

func TestRecalculateEvent_SettingsReadFailure(t *testing.T) {
	f := newRecalcFixture(fastConfig())
	eventID := uuid.New()
	f.settings.On("FindByEventID", mock.Anything, eventID).Return(nil, errors.New("timeout"))

	report, err := f.service.RecalculateEvent(context.Background(), eventID)
	assert.Nil(t, report)
	require.Error(t, err)
	f.books.AssertNotCalled(t, "FindByEvent", mock.Anything, mock.Anything)
}

func TestRecalculateEvent_NoBooks(t *testing.T) {
	f := newRecalcFixture(fastConfig())
	eventID := uuid.New()
	f.settings.On("FindByEventID", mock.Anything, eventID).Return(nil, shared.ErrNotFound)
	f.books.On("FindByEvent", mock.Anything, eventID).Return([]commission.Book{}, nil)

	report, err := f.service.RecalculateEvent(context.Background(), eventID)
	require.NoError(t, err)
	assert.Zero(t, report.BooksProcessed)
	assert.Empty(t, report.Errors)
	require.Len(t, report.SettingsDiagnostics, 1)
	assert.Equal(t, commission.CodeSettingsNotConfigured, report.SettingsDiagnostics[0].Code)
	assert.Equal(t, testAsOf, report.StartedAt)
}

func TestRecalculateBook_SettingsChangeRestampsRecords(t *testing.T) {
	f := newRecalcFixture(fastConfig())
	eventID := uuid.New()
	book := newTestBook(t, eventID, "D-2", true)
	dist := newTestDistribution(t, book, "Zone2 > Agent9")
	paid := newTestPayment(t, dist, "1000", "2025-12-30")
	paid.CreatedAt = testAsOf.Add(-time.Hour)
	settings := testSettings(eventID)
	settings.UpdatedAt = testAsOf

	f.expectBook(book, dist, []commission.PaymentCollection{paid})
	f.settings.On("FindByEventID", mock.Anything, eventID).Return(settings, nil)
	f.records.On("DeleteByBook", mock.Anything, book.ID).Return(int64(1), nil)
	f.records.On("CreateBatch", mock.Anything, recordsOfTypes(commission.CommissionTypeExtraBooks)).Return(nil)

	outcome, err := f.service.RecalculateBook(context.Background(), book.ID)
	require.NoError(t, err)
	require.Len(t, outcome.Records, 1)
	assert.Equal(t, testAsOf, outcome.Records[0].CreatedAt)
}
