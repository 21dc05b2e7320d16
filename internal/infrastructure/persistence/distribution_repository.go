package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDistributionRepository implements commission.DistributionRepository using GORM
type GormDistributionRepository struct {
	db *gorm.DB
}

// NewGormDistributionRepository creates a new GormDistributionRepository
func NewGormDistributionRepository(db *gorm.DB) *GormDistributionRepository {
	return &GormDistributionRepository{db: db}
}

// FindByID finds a distribution by its ID
func (r *GormDistributionRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Distribution, error) {
	var model models.DistributionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByBookID finds the distribution of a book
func (r *GormDistributionRepository) FindByBookID(ctx context.Context, bookID uuid.UUID) (*commission.Distribution, error) {
	var model models.DistributionModel
	if err := r.db.WithContext(ctx).First(&model, "book_id = ?", bookID).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a distribution
func (r *GormDistributionRepository) Save(ctx context.Context, dist *commission.Distribution) error {
	return translateError(r.db.WithContext(ctx).Save(models.DistributionModelFromDomain(dist)).Error)
}

var _ commission.DistributionRepository = (*GormDistributionRepository)(nil)
