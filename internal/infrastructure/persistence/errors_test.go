package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/ticketbook/backend/internal/domain/shared"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"record not found", gorm.ErrRecordNotFound, shared.ErrNotFound},
		{"wrapped record not found", fmt.Errorf("query: %w", gorm.ErrRecordNotFound), shared.ErrNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, shared.ErrConcurrencyConflict},
		{"serialization failure", &pgconn.PgError{Code: "40001", Message: "could not serialize access"}, shared.ErrConcurrencyConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}, shared.ErrConcurrencyConflict},
		{"lock not available", &pgconn.PgError{Code: "55P03", Message: "could not obtain lock"}, shared.ErrConcurrencyConflict},
		{"unique violation", &pgconn.PgError{Code: "23505", Message: "duplicate key value"}, shared.ErrConcurrencyConflict},
		{"other driver error", plain, plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tt.err), tt.target)
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, translateError(nil))
	})

	t.Run("foreign key violation is not a conflict", func(t *testing.T) {
		err := translateError(&pgconn.PgError{Code: "23503", Message: "violates foreign key"})
		assert.False(t, errors.Is(err, shared.ErrConcurrencyConflict))
	})
}
