package commission

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookRepository reads books from the sales catalog
type BookRepository interface {
	// FindByID finds a book by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Book, error)

	// FindByIDForUpdate finds a book and locks its row for the current transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Book, error)

	// FindByEvent finds all books of an event ordered by book number
	FindByEvent(ctx context.Context, eventID uuid.UUID) ([]Book, error)

	// Save creates or updates a book
	Save(ctx context.Context, book *Book) error
}

// DistributionRepository reads book placements in the sales hierarchy
type DistributionRepository interface {
	// FindByID finds a distribution by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Distribution, error)

	// FindByBookID finds the distribution of a book
	FindByBookID(ctx context.Context, bookID uuid.UUID) (*Distribution, error)

	// Save creates or updates a distribution
	Save(ctx context.Context, dist *Distribution) error
}

// PaymentRepository stores append-only payment events
type PaymentRepository interface {
	// FindByBookID finds all payments linked to a book through its distribution
	FindByBookID(ctx context.Context, bookID uuid.UUID) ([]PaymentCollection, error)

	// FindByDistributionID finds all payments of a distribution
	FindByDistributionID(ctx context.Context, distributionID uuid.UUID) ([]PaymentCollection, error)

	// Create appends a payment
	Create(ctx context.Context, payment *PaymentCollection) error

	// CreateBatch appends several payments
	CreateBatch(ctx context.Context, payments []PaymentCollection) error
}

// SettingsRepository reads per-event commission settings
type SettingsRepository interface {
	// FindByEventID finds the settings of an event, or ErrNotFound
	FindByEventID(ctx context.Context, eventID uuid.UUID) (*CommissionSettings, error)

	// ListEventIDs lists every event that has a settings row
	ListEventIDs(ctx context.Context) ([]uuid.UUID, error)

	// Save creates or replaces the settings of an event
	Save(ctx context.Context, settings *CommissionSettings) error
}

// CommissionRecordFilter narrows commission record queries
type CommissionRecordFilter struct {
	CommissionType *CommissionType
	Level1Value    *string
}

// CommissionRecordRepository persists the commission ledger
type CommissionRecordRepository interface {
	// FindByEvent lists the records of an event
	FindByEvent(ctx context.Context, eventID uuid.UUID, filter CommissionRecordFilter) ([]CommissionRecord, error)

	// FindByBook lists the records of a book
	FindByBook(ctx context.Context, bookID uuid.UUID) ([]CommissionRecord, error)

	// SumByEvent totals commission_amount over an event
	SumByEvent(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error)

	// ListEventIDs lists every event that currently has records
	ListEventIDs(ctx context.Context) ([]uuid.UUID, error)

	// DeleteByBook removes every record of a book
	DeleteByBook(ctx context.Context, bookID uuid.UUID) (int64, error)

	// CreateBatch inserts records
	CreateBatch(ctx context.Context, records []CommissionRecord) error
}
