package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared/valueobject"
)

// BookModel is the persistence model for the Book entity.
type BookModel struct {
	CatalogModel
	EventID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_books_event_number,priority:1"`
	BookNumber     string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_books_event_number,priority:2"`
	IsExtraBook    bool            `gorm:"not null;default:false"`
	TicketsPerBook int             `gorm:"not null;default:0"`
	PricePerTicket decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (BookModel) TableName() string {
	return "books"
}

// ToDomain converts the persistence model to a domain Book entity.
func (m *BookModel) ToDomain() *commission.Book {
	return &commission.Book{
		BaseEntity:     m.CatalogModel.entity(),
		EventID:        m.EventID,
		BookNumber:     m.BookNumber,
		IsExtraBook:    m.IsExtraBook,
		TicketsPerBook: m.TicketsPerBook,
		PricePerTicket: m.PricePerTicket,
	}
}

// FromDomain populates the persistence model from a domain Book entity.
func (m *BookModel) FromDomain(b *commission.Book) {
	m.CatalogModel = catalogModelOf(b.BaseEntity)
	m.EventID = b.EventID
	m.BookNumber = b.BookNumber
	m.IsExtraBook = b.IsExtraBook
	m.TicketsPerBook = b.TicketsPerBook
	m.PricePerTicket = b.PricePerTicket
}

// BookModelFromDomain creates a new persistence model from a domain Book entity.
func BookModelFromDomain(b *commission.Book) *BookModel {
	m := &BookModel{}
	m.FromDomain(b)
	return m
}

// DistributionModel is the persistence model for the Distribution entity.
type DistributionModel struct {
	CatalogModel
	BookID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	DistributionPath string    `gorm:"type:varchar(500);not null;default:''"`
}

// TableName returns the table name for GORM
func (DistributionModel) TableName() string {
	return "distributions"
}

// ToDomain converts the persistence model to a domain Distribution entity.
func (m *DistributionModel) ToDomain() *commission.Distribution {
	return &commission.Distribution{
		BaseEntity:       m.CatalogModel.entity(),
		BookID:           m.BookID,
		DistributionPath: m.DistributionPath,
	}
}

// FromDomain populates the persistence model from a domain Distribution entity.
func (m *DistributionModel) FromDomain(d *commission.Distribution) {
	m.CatalogModel = catalogModelOf(d.BaseEntity)
	m.BookID = d.BookID
	m.DistributionPath = d.DistributionPath
}

// DistributionModelFromDomain creates a new persistence model from a domain Distribution entity.
func DistributionModelFromDomain(d *commission.Distribution) *DistributionModel {
	m := &DistributionModel{}
	m.FromDomain(d)
	return m
}

// PaymentCollectionModel is the persistence model for payment events.
type PaymentCollectionModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	DistributionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaymentDate    time.Time       `gorm:"type:date;not null"`
	Method         string          `gorm:"type:varchar(50);not null"`
	CreatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentCollectionModel) TableName() string {
	return "payment_collections"
}

// ToDomain converts the persistence model to a domain PaymentCollection.
func (m *PaymentCollectionModel) ToDomain() *commission.PaymentCollection {
	return &commission.PaymentCollection{
		ID:             m.ID,
		DistributionID: m.DistributionID,
		AmountPaid:     m.AmountPaid,
		PaymentDate:    valueobject.DateOf(m.PaymentDate.UTC()),
		Method:         m.Method,
		CreatedAt:      m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain PaymentCollection.
func (m *PaymentCollectionModel) FromDomain(p *commission.PaymentCollection) {
	m.ID = p.ID
	m.DistributionID = p.DistributionID
	m.AmountPaid = p.AmountPaid
	m.PaymentDate = p.PaymentDate.Time()
	m.Method = p.Method
	m.CreatedAt = p.CreatedAt
}

// PaymentCollectionModelFromDomain creates a new persistence model from a domain PaymentCollection.
func PaymentCollectionModelFromDomain(p *commission.PaymentCollection) *PaymentCollectionModel {
	m := &PaymentCollectionModel{}
	m.FromDomain(p)
	return m
}

// CommissionSettingsModel is the persistence model for per-event commission settings.
// Deadlines are stored as entered and parsed during resolution.
type CommissionSettingsModel struct {
	EventID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	CommissionEnabled  bool            `gorm:"not null;default:false"`
	EarlyEnabled       bool            `gorm:"not null;default:false"`
	EarlyPercent       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	EarlyDeadline      *string         `gorm:"type:varchar(32)"`
	StandardEnabled    bool            `gorm:"not null;default:false"`
	StandardPercent    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	StandardDeadline   *string         `gorm:"type:varchar(32)"`
	ExtraBooksEnabled  bool            `gorm:"not null;default:false"`
	ExtraBooksPercent  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	UpdatedAt          time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CommissionSettingsModel) TableName() string {
	return "commission_settings"
}

// ToDomain converts the persistence model to domain CommissionSettings.
func (m *CommissionSettingsModel) ToDomain() *commission.CommissionSettings {
	return &commission.CommissionSettings{
		EventID:           m.EventID,
		CommissionEnabled: m.CommissionEnabled,
		Early: commission.TierConfig{
			Enabled:  m.EarlyEnabled,
			Percent:  m.EarlyPercent,
			Deadline: m.EarlyDeadline,
		},
		Standard: commission.TierConfig{
			Enabled:  m.StandardEnabled,
			Percent:  m.StandardPercent,
			Deadline: m.StandardDeadline,
		},
		ExtraBooks: commission.TierConfig{
			Enabled: m.ExtraBooksEnabled,
			Percent: m.ExtraBooksPercent,
		},
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from domain CommissionSettings.
func (m *CommissionSettingsModel) FromDomain(s *commission.CommissionSettings) {
	m.EventID = s.EventID
	m.CommissionEnabled = s.CommissionEnabled
	m.EarlyEnabled = s.Early.Enabled
	m.EarlyPercent = s.Early.Percent
	m.EarlyDeadline = s.Early.Deadline
	m.StandardEnabled = s.Standard.Enabled
	m.StandardPercent = s.Standard.Percent
	m.StandardDeadline = s.Standard.Deadline
	m.ExtraBooksEnabled = s.ExtraBooks.Enabled
	m.ExtraBooksPercent = s.ExtraBooks.Percent
	m.UpdatedAt = s.UpdatedAt
}

// CommissionSettingsModelFromDomain creates a new persistence model from domain CommissionSettings.
func CommissionSettingsModelFromDomain(s *commission.CommissionSettings) *CommissionSettingsModel {
	m := &CommissionSettingsModel{}
	m.FromDomain(s)
	return m
}

// CommissionRecordModel is the persistence model for the commission ledger.
// At most one row exists per (book, commission type).
type CommissionRecordModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	EventID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	BookID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_commission_records_book_type,priority:1"`
	DistributionID    uuid.UUID       `gorm:"type:uuid;not null"`
	Level1Value       string          `gorm:"column:level_1_value;type:varchar(255);not null;index"`
	CommissionType    string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_commission_records_book_type,priority:2"`
	CommissionPercent decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	PaymentAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CommissionAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaymentDate       time.Time       `gorm:"type:date;not null"`
	CreatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CommissionRecordModel) TableName() string {
	return "commission_records"
}

// ToDomain converts the persistence model to a domain CommissionRecord.
func (m *CommissionRecordModel) ToDomain() *commission.CommissionRecord {
	return &commission.CommissionRecord{
		ID:                m.ID,
		EventID:           m.EventID,
		BookID:            m.BookID,
		DistributionID:    m.DistributionID,
		Level1Value:       m.Level1Value,
		CommissionType:    commission.CommissionType(m.CommissionType),
		CommissionPercent: m.CommissionPercent,
		PaymentAmount:     m.PaymentAmount,
		CommissionAmount:  m.CommissionAmount,
		PaymentDate:       valueobject.DateOf(m.PaymentDate.UTC()),
		CreatedAt:         m.CreatedAt.UTC(),
	}
}

// FromDomain populates the persistence model from a domain CommissionRecord.
func (m *CommissionRecordModel) FromDomain(r *commission.CommissionRecord) {
	m.ID = r.ID
	m.EventID = r.EventID
	m.BookID = r.BookID
	m.DistributionID = r.DistributionID
	m.Level1Value = r.Level1Value
	m.CommissionType = string(r.CommissionType)
	m.CommissionPercent = r.CommissionPercent
	m.PaymentAmount = r.PaymentAmount
	m.CommissionAmount = r.CommissionAmount
	m.PaymentDate = r.PaymentDate.Time()
	m.CreatedAt = r.CreatedAt
}

// CommissionRecordModelFromDomain creates a new persistence model from a domain CommissionRecord.
func CommissionRecordModelFromDomain(r *commission.CommissionRecord) *CommissionRecordModel {
	m := &CommissionRecordModel{}
	m.FromDomain(r)
	return m
}

// AllModels lists every commission model, in dependency order, for AutoMigrate
func AllModels() []any {
	return []any{
		&BookModel{},
		&DistributionModel{},
		&PaymentCollectionModel{},
		&CommissionSettingsModel{},
		&CommissionRecordModel{},
	}
}
