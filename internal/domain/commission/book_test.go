package commission

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticketbook/backend/internal/domain/shared"
)

func TestNewBook(t *testing.T) {
	t.Run("creates book with expected amount", func(t *testing.T) {
		book, err := NewBook(uuid.New(), " B-042 ", true, 10, dec("12.50"))
		require.NoError(t, err)
		assert.Equal(t, "B-042", book.BookNumber)
		assert.True(t, book.IsExtraBook)
		assert.True(t, dec("125").Equal(book.ExpectedAmount()))
		assert.NotEqual(t, uuid.Nil, book.ID)
	})

	t.Run("allows zero tickets", func(t *testing.T) {
		book, err := NewBook(uuid.New(), "B-1", false, 0, dec("100"))
		require.NoError(t, err)
		assert.True(t, book.HasZeroExpectedAmount())
	})

	errorCases := []struct {
		name    string
		eventID uuid.UUID
		number  string
		tickets int
		price   decimal.Decimal
		code    string
	}{
		{"nil event", uuid.Nil, "B-1", 10, dec("1"), "INVALID_EVENT"},
		{"empty number", uuid.New(), "  ", 10, dec("1"), "INVALID_BOOK_NUMBER"},
		{"negative tickets", uuid.New(), "B-1", -1, dec("1"), "INVALID_TICKETS"},
		{"negative price", uuid.New(), "B-1", 10, dec("-1"), "INVALID_PRICE"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBook(tc.eventID, tc.number, false, tc.tickets, tc.price)
			require.Error(t, err)
			assert.Equal(t, tc.code, shared.ErrorCode(err))
		})
	}
}
