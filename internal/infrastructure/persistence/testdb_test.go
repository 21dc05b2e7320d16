package persistence

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared/valueobject"
	"github.com/ticketbook/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens a file-backed SQLite database so that every pooled
// connection sees the same schema and rows.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "commission.db"))

	database, err := OpenDialector(sqlite.Open(dsn), nil)
	require.NoError(t, err)
	require.NoError(t, database.DB.AutoMigrate(models.AllModels()...))

	t.Cleanup(func() { _ = database.Close() })
	return database.DB
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}

func date(t *testing.T, s string) valueobject.Date {
	t.Helper()
	d, err := valueobject.ParseISODate(s)
	require.NoError(t, err)
	return d
}

// seedBook stores a book of 10 tickets at 100 with its distribution
func seedBook(t *testing.T, db *gorm.DB, eventID uuid.UUID, number string, isExtra bool, path string) (*commission.Book, *commission.Distribution) {
	t.Helper()
	ctx := context.Background()

	book, err := commission.NewBook(eventID, number, isExtra, 10, dec("100"))
	require.NoError(t, err)
	require.NoError(t, NewGormBookRepository(db).Save(ctx, book))

	dist, err := commission.NewDistribution(book.ID, path)
	require.NoError(t, err)
	require.NoError(t, NewGormDistributionRepository(db).Save(ctx, dist))
	return book, dist
}

// seedPayment appends a payment against a distribution
func seedPayment(t *testing.T, db *gorm.DB, dist *commission.Distribution, amount, paidOn string) *commission.PaymentCollection {
	t.Helper()
	p, err := commission.NewPaymentCollection(dist.ID, dec(amount), date(t, paidOn), "CASH")
	require.NoError(t, err)
	require.NoError(t, NewGormPaymentRepository(db).Create(context.Background(), p))
	return p
}

// seedSettings stores active settings: early 10% until 2025-12-14,
// standard 5% until 2025-12-25 and extra books 8%
func seedSettings(t *testing.T, db *gorm.DB, eventID uuid.UUID) *commission.CommissionSettings {
	t.Helper()
	settings := &commission.CommissionSettings{
		EventID:           eventID,
		CommissionEnabled: true,
		Early:             commission.TierConfig{Enabled: true, Percent: dec("10"), Deadline: strPtr("2025-12-14")},
		Standard:          commission.TierConfig{Enabled: true, Percent: dec("5"), Deadline: strPtr("2025-12-25")},
		ExtraBooks:        commission.TierConfig{Enabled: true, Percent: dec("8")},
		UpdatedAt:         time.Now().UTC(),
	}
	require.NoError(t, NewGormSettingsRepository(db).Save(context.Background(), settings))
	return settings
}

// seedRecord builds and stores the record a fully paid book earns for one tier
func seedRecord(t *testing.T, db *gorm.DB, book *commission.Book, dist *commission.Distribution, typ commission.CommissionType, percent, paidOn string) commission.CommissionRecord {
	t.Helper()
	rec := seedableRecord(t, book, dist, typ, percent, paidOn)
	require.NoError(t, NewGormCommissionRecordRepository(db).CreateBatch(context.Background(), []commission.CommissionRecord{rec}))
	return rec
}

// seedableRecord builds the record a fully paid book earns for one tier
func seedableRecord(t *testing.T, book *commission.Book, dist *commission.Distribution, typ commission.CommissionType, percent, paidOn string) commission.CommissionRecord {
	t.Helper()
	p, err := valueobject.NewPercentage(dec(percent))
	require.NoError(t, err)
	rec, err := commission.NewCommissionRecord(book, dist, commission.Eligibility{
		Type:           typ,
		Percent:        p,
		BasisAmount:    book.ExpectedAmount(),
		QualifyingDate: date(t, paidOn),
	}, time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	return *rec
}
