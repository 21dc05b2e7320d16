package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBookRepository implements commission.BookRepository using GORM
type GormBookRepository struct {
	db *gorm.DB
}

// NewGormBookRepository creates a new GormBookRepository
func NewGormBookRepository(db *gorm.DB) *GormBookRepository {
	return &GormBookRepository{db: db}
}

// FindByID finds a book by its ID
func (r *GormBookRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Book, error) {
	var model models.BookModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a book and takes a row lock held until the surrounding
// transaction ends (SELECT ... FOR UPDATE). Outside a transaction the lock is
// released immediately.
func (r *GormBookRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*commission.Book, error) {
	var model models.BookModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByEvent finds all books of an event ordered by book number
func (r *GormBookRepository) FindByEvent(ctx context.Context, eventID uuid.UUID) ([]commission.Book, error) {
	var rows []models.BookModel
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("book_number ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	books := make([]commission.Book, len(rows))
	for i := range rows {
		books[i] = *rows[i].ToDomain()
	}
	return books, nil
}

// Save creates or updates a book
func (r *GormBookRepository) Save(ctx context.Context, book *commission.Book) error {
	return translateError(r.db.WithContext(ctx).Save(models.BookModelFromDomain(book)).Error)
}

var _ commission.BookRepository = (*GormBookRepository)(nil)
