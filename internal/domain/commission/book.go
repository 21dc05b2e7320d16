package commission

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticketbook/backend/internal/domain/shared"
)

// Book is a fixed-price bundle of tickets sold as one unit.
// Books are owned by the sales catalog and never change after creation.
type Book struct {
	shared.BaseEntity
	EventID        uuid.UUID       `json:"event_id"`
	BookNumber     string          `json:"book_number"`
	IsExtraBook    bool            `json:"is_extra_book"`
	TicketsPerBook int             `json:"tickets_per_book"`
	PricePerTicket decimal.Decimal `json:"price_per_ticket"`
}

// NewBook creates a new book
func NewBook(eventID uuid.UUID, bookNumber string, isExtraBook bool, ticketsPerBook int, pricePerTicket decimal.Decimal) (*Book, error) {
	if eventID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_EVENT", "Event ID cannot be empty")
	}
	bookNumber = strings.TrimSpace(bookNumber)
	if bookNumber == "" {
		return nil, shared.NewDomainError("INVALID_BOOK_NUMBER", "Book number cannot be empty")
	}
	if len(bookNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_BOOK_NUMBER", "Book number cannot exceed 50 characters")
	}
	if ticketsPerBook < 0 {
		return nil, shared.NewDomainError("INVALID_TICKETS", "Tickets per book cannot be negative")
	}
	if pricePerTicket.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price per ticket cannot be negative")
	}

	return &Book{
		BaseEntity:     shared.NewBaseEntity(),
		EventID:        eventID,
		BookNumber:     bookNumber,
		IsExtraBook:    isExtraBook,
		TicketsPerBook: ticketsPerBook,
		PricePerTicket: pricePerTicket,
	}, nil
}

// ExpectedAmount returns tickets_per_book * price_per_ticket
func (b *Book) ExpectedAmount() decimal.Decimal {
	return decimal.NewFromInt(int64(b.TicketsPerBook)).Mul(b.PricePerTicket)
}

// HasZeroExpectedAmount reports the degenerate case where any payment fully pays the book
func (b *Book) HasZeroExpectedAmount() bool {
	return b.ExpectedAmount().IsZero()
}
