package commission

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

var testAsOf = time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}

func newTestBook(t *testing.T, eventID uuid.UUID, number string, isExtra bool) *commission.Book {
	t.Helper()
	book, err := commission.NewBook(eventID, number, isExtra, 10, dec("100"))
	require.NoError(t, err)
	return book
}

func newTestDistribution(t *testing.T, book *commission.Book, path string) *commission.Distribution {
	t.Helper()
	dist, err := commission.NewDistribution(book.ID, path)
	require.NoError(t, err)
	return dist
}

func newTestPayment(t *testing.T, dist *commission.Distribution, amount, paidOn string) commission.PaymentCollection {
	t.Helper()
	d, err := valueobject.ParseISODate(paidOn)
	require.NoError(t, err)
	p, err := commission.NewPaymentCollection(dist.ID, dec(amount), d, "CASH")
	require.NoError(t, err)
	return *p
}

func testSettings(eventID uuid.UUID) *commission.CommissionSettings {
	return &commission.CommissionSettings{
		EventID:           eventID,
		CommissionEnabled: true,
		Early:             commission.TierConfig{Enabled: true, Percent: dec("10"), Deadline: strPtr("2025-12-14")},
		Standard:          commission.TierConfig{Enabled: true, Percent: dec("5"), Deadline: strPtr("2025-12-25")},
		ExtraBooks:        commission.TierConfig{Enabled: true, Percent: dec("8")},
	}
}

// recalcFixture wires a RecalculationService over mocks
type recalcFixture struct {
	books     *MockBookRepository
	dists     *MockDistributionRepository
	payments  *MockPaymentRepository
	settings  *MockSettingsRepository
	records   *MockCommissionRecordRepository
	publisher *MockEventPublisher
	service   *RecalculationService
}

func newRecalcFixture(config RecalculationConfig) *recalcFixture {
	f := &recalcFixture{
		books:     new(MockBookRepository),
		dists:     new(MockDistributionRepository),
		payments:  new(MockPaymentRepository),
		settings:  new(MockSettingsRepository),
		records:   new(MockCommissionRecordRepository),
		publisher: new(MockEventPublisher),
	}
	logger := zap.NewNop()
	scope := NewNoOpTransactionScope(f.books, f.dists, f.payments, f.records)
	f.service = NewRecalculationService(
		scope,
		f.books,
		f.dists,
		NewSettingsResolver(f.settings, logger),
		NewCommissionLedger(logger),
		config,
		logger,
	)
	f.service.SetClock(FixedClock(testAsOf))
	return f
}

// expectBook stubs the reads of one book's pipeline
func (f *recalcFixture) expectBook(book *commission.Book, dist *commission.Distribution, payments []commission.PaymentCollection) {
	f.books.On("FindByIDForUpdate", mock.Anything, book.ID).Return(book, nil)
	if dist != nil {
		f.dists.On("FindByBookID", mock.Anything, book.ID).Return(dist, nil)
	}
	f.payments.On("FindByBookID", mock.Anything, book.ID).Return(payments, nil)
}

func (f *recalcFixture) assertExpectations(t *testing.T) {
	f.books.AssertExpectations(t)
	f.dists.AssertExpectations(t)
	f.payments.AssertExpectations(t)
	f.settings.AssertExpectations(t)
	f.records.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func fastConfig() RecalculationConfig {
	return RecalculationConfig{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond}
}
