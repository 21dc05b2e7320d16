package commission

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/ticketbook/backend/internal/domain/shared/valueobject"
)

// Test helpers

func date(s string) valueobject.Date {
	d, err := valueobject.ParseISODate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func strPtr(s string) *string {
	return &s
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createTestBook(t *testing.T, isExtra bool) *Book {
	t.Helper()
	book, err := NewBook(uuid.New(), "B-001", isExtra, 10, dec("100"))
	require.NoError(t, err)
	return book
}

func createTestDistribution(t *testing.T, book *Book, path string) *Distribution {
	t.Helper()
	dist, err := NewDistribution(book.ID, path)
	require.NoError(t, err)
	return dist
}

func payment(distID uuid.UUID, amount, paidOn string) PaymentCollection {
	return PaymentCollection{
		ID:             uuid.New(),
		DistributionID: distID,
		AmountPaid:     dec(amount),
		PaymentDate:    date(paidOn),
		Method:         "CASH",
		CreatedAt:      time.Now(),
	}
}

// scenarioSettings mirrors a typical event: early 10% until 2025-12-14,
// standard 5% until 2025-12-25, extra books 8%.
func scenarioSettings(eventID uuid.UUID) *CommissionSettings {
	return &CommissionSettings{
		EventID:           eventID,
		CommissionEnabled: true,
		Early:             TierConfig{Enabled: true, Percent: dec("10"), Deadline: strPtr("2025-12-14")},
		Standard:          TierConfig{Enabled: true, Percent: dec("5"), Deadline: strPtr("2025-12-25")},
		ExtraBooks:        TierConfig{Enabled: true, Percent: dec("8")},
	}
}
