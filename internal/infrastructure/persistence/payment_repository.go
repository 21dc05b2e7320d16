package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// paymentBatchSize bounds the rows of one multi-value INSERT
const paymentBatchSize = 500

// GormPaymentRepository implements commission.PaymentRepository using GORM.
// Payments are append-only; there is no update or delete.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByBookID finds all payments of a book through its distribution, oldest first
func (r *GormPaymentRepository) FindByBookID(ctx context.Context, bookID uuid.UUID) ([]commission.PaymentCollection, error) {
	var rows []models.PaymentCollectionModel
	if err := r.db.WithContext(ctx).
		Select("payment_collections.*").
		Joins("JOIN distributions ON distributions.id = payment_collections.distribution_id").
		Where("distributions.book_id = ?", bookID).
		Order("payment_collections.payment_date ASC, payment_collections.created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toDomainPayments(rows), nil
}

// FindByDistributionID finds all payments of a distribution, oldest first
func (r *GormPaymentRepository) FindByDistributionID(ctx context.Context, distributionID uuid.UUID) ([]commission.PaymentCollection, error) {
	var rows []models.PaymentCollectionModel
	if err := r.db.WithContext(ctx).
		Where("distribution_id = ?", distributionID).
		Order("payment_date ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toDomainPayments(rows), nil
}

// Create appends a payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *commission.PaymentCollection) error {
	return translateError(r.db.WithContext(ctx).Create(models.PaymentCollectionModelFromDomain(payment)).Error)
}

// CreateBatch appends several payments in one statement per batch
func (r *GormPaymentRepository) CreateBatch(ctx context.Context, payments []commission.PaymentCollection) error {
	if len(payments) == 0 {
		return nil
	}
	rows := make([]models.PaymentCollectionModel, len(payments))
	for i := range payments {
		rows[i].FromDomain(&payments[i])
	}
	return translateError(r.db.WithContext(ctx).CreateInBatches(rows, paymentBatchSize).Error)
}

func toDomainPayments(rows []models.PaymentCollectionModel) []commission.PaymentCollection {
	payments := make([]commission.PaymentCollection, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments
}

var _ commission.PaymentRepository = (*GormPaymentRepository)(nil)
