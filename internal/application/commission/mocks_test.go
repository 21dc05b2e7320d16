package commission

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared"
)

// MockBookRepository is a mock implementation of BookRepository
type MockBookRepository struct {
	mock.Mock
}

func (m *MockBookRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Book), args.Error(1)
}

func (m *MockBookRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*commission.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Book), args.Error(1)
}

func (m *MockBookRepository) FindByEvent(ctx context.Context, eventID uuid.UUID) ([]commission.Book, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commission.Book), args.Error(1)
}

func (m *MockBookRepository) Save(ctx context.Context, book *commission.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

// MockDistributionRepository is a mock implementation of DistributionRepository
type MockDistributionRepository struct {
	mock.Mock
}

func (m *MockDistributionRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Distribution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Distribution), args.Error(1)
}

func (m *MockDistributionRepository) FindByBookID(ctx context.Context, bookID uuid.UUID) (*commission.Distribution, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Distribution), args.Error(1)
}

func (m *MockDistributionRepository) Save(ctx context.Context, dist *commission.Distribution) error {
	args := m.Called(ctx, dist)
	return args.Error(0)
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByBookID(ctx context.Context, bookID uuid.UUID) ([]commission.PaymentCollection, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commission.PaymentCollection), args.Error(1)
}

func (m *MockPaymentRepository) FindByDistributionID(ctx context.Context, distributionID uuid.UUID) ([]commission.PaymentCollection, error) {
	args := m.Called(ctx, distributionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commission.PaymentCollection), args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *commission.PaymentCollection) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) CreateBatch(ctx context.Context, payments []commission.PaymentCollection) error {
	args := m.Called(ctx, payments)
	return args.Error(0)
}

// MockSettingsRepository is a mock implementation of SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) (*commission.CommissionSettings, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.CommissionSettings), args.Error(1)
}

func (m *MockSettingsRepository) ListEventIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockSettingsRepository) Save(ctx context.Context, settings *commission.CommissionSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockCommissionRecordRepository is a mock implementation of CommissionRecordRepository
type MockCommissionRecordRepository struct {
	mock.Mock
}

func (m *MockCommissionRecordRepository) FindByEvent(ctx context.Context, eventID uuid.UUID, filter commission.CommissionRecordFilter) ([]commission.CommissionRecord, error) {
	args := m.Called(ctx, eventID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commission.CommissionRecord), args.Error(1)
}

func (m *MockCommissionRecordRepository) FindByBook(ctx context.Context, bookID uuid.UUID) ([]commission.CommissionRecord, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commission.CommissionRecord), args.Error(1)
}

func (m *MockCommissionRecordRepository) SumByEvent(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockCommissionRecordRepository) ListEventIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockCommissionRecordRepository) DeleteByBook(ctx context.Context, bookID uuid.UUID) (int64, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCommissionRecordRepository) CreateBatch(ctx context.Context, records []commission.CommissionRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockBookRecalculator is a mock implementation of BookRecalculator
type MockBookRecalculator struct {
	mock.Mock
}

func (m *MockBookRecalculator) OnPayment(ctx context.Context, distributionID uuid.UUID) (*BookOutcome, error) {
	args := m.Called(ctx, distributionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BookOutcome), args.Error(1)
}

// MockEventRecalculator is a mock implementation of EventRecalculator
type MockEventRecalculator struct {
	mock.Mock
}

func (m *MockEventRecalculator) RecalculateEvent(ctx context.Context, eventID uuid.UUID) (*RecalculationReport, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RecalculationReport), args.Error(1)
}

func (m *MockEventRecalculator) SweepEvent(ctx context.Context, eventID uuid.UUID) (*RecalculationReport, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RecalculationReport), args.Error(1)
}
