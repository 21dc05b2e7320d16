package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/ticketbook/backend/internal/domain/shared"
)

// CatalogModel carries identity and timestamps of catalog rows. Books and
// distributions are written by the import and only read by the engine.
type CatalogModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func catalogModelOf(e shared.BaseEntity) CatalogModel {
	return CatalogModel{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

func (m CatalogModel) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()}
}
