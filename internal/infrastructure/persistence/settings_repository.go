package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSettingsRepository implements commission.SettingsRepository using GORM
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// FindByEventID finds the settings of an event
func (r *GormSettingsRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) (*commission.CommissionSettings, error) {
	var model models.CommissionSettingsModel
	if err := r.db.WithContext(ctx).First(&model, "event_id = ?", eventID).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ListEventIDs lists every event that has a settings row
func (r *GormSettingsRepository) ListEventIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.CommissionSettingsModel{}).
		Order("event_id ASC").
		Pluck("event_id", &ids).Error; err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

// Save creates or replaces the settings of an event
func (r *GormSettingsRepository) Save(ctx context.Context, settings *commission.CommissionSettings) error {
	return translateError(r.db.WithContext(ctx).Save(models.CommissionSettingsModelFromDomain(settings)).Error)
}

var _ commission.SettingsRepository = (*GormSettingsRepository)(nil)
