package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCommissionRecordRepository implements commission.CommissionRecordRepository using GORM
type GormCommissionRecordRepository struct {
	db *gorm.DB
}

// NewGormCommissionRecordRepository creates a new GormCommissionRecordRepository
func NewGormCommissionRecordRepository(db *gorm.DB) *GormCommissionRecordRepository {
	return &GormCommissionRecordRepository{db: db}
}

// FindByEvent lists the records of an event ordered by attribution key, book and type
func (r *GormCommissionRecordRepository) FindByEvent(ctx context.Context, eventID uuid.UUID, filter commission.CommissionRecordFilter) ([]commission.CommissionRecord, error) {
	query := r.db.WithContext(ctx).Where("event_id = ?", eventID)
	if filter.CommissionType != nil {
		query = query.Where("commission_type = ?", string(*filter.CommissionType))
	}
	if filter.Level1Value != nil {
		query = query.Where("level_1_value = ?", *filter.Level1Value)
	}

	var rows []models.CommissionRecordModel
	if err := query.
		Order("level_1_value ASC, book_id ASC, commission_type ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toDomainRecords(rows), nil
}

// FindByBook lists the records of a book
func (r *GormCommissionRecordRepository) FindByBook(ctx context.Context, bookID uuid.UUID) ([]commission.CommissionRecord, error) {
	var rows []models.CommissionRecordModel
	if err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("commission_type ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toDomainRecords(rows), nil
}

// SumByEvent totals commission_amount over an event; an event without records sums to zero
func (r *GormCommissionRecordRepository) SumByEvent(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&models.CommissionRecordModel{}).
		Select("SUM(commission_amount)").
		Where("event_id = ?", eventID).
		Row().Scan(&total); err != nil {
		return decimal.Zero, translateError(err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal.Round(2), nil
}

// ListEventIDs lists every event that currently has records
func (r *GormCommissionRecordRepository) ListEventIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.CommissionRecordModel{}).
		Distinct("event_id").
		Order("event_id ASC").
		Pluck("event_id", &ids).Error; err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

// DeleteByBook removes every record of a book and reports how many rows went away
func (r *GormCommissionRecordRepository) DeleteByBook(ctx context.Context, bookID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Delete(&models.CommissionRecordModel{})
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}

// CreateBatch inserts records. A second row for the same (book, type) violates
// the unique index and surfaces as shared.ErrConcurrencyConflict.
func (r *GormCommissionRecordRepository) CreateBatch(ctx context.Context, records []commission.CommissionRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]models.CommissionRecordModel, len(records))
	for i := range records {
		rows[i].FromDomain(&records[i])
	}
	return translateError(r.db.WithContext(ctx).Create(&rows).Error)
}

func toDomainRecords(rows []models.CommissionRecordModel) []commission.CommissionRecord {
	records := make([]commission.CommissionRecord, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records
}

var _ commission.CommissionRecordRepository = (*GormCommissionRecordRepository)(nil)
