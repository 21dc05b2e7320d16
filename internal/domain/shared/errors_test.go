package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	err := NewDomainError("SOME_CODE", "something happened")
	assert.Equal(t, "something happened", err.Error())
	assert.Equal(t, "SOME_CODE", err.Code)
}

func TestErrorCode(t *testing.T) {
	t.Run("direct domain error", func(t *testing.T) {
		assert.Equal(t, "NOT_FOUND", ErrorCode(ErrNotFound))
	})

	t.Run("wrapped domain error", func(t *testing.T) {
		wrapped := fmt.Errorf("loading book: %w", ErrConcurrencyConflict)
		assert.Equal(t, "CONCURRENCY_CONFLICT", ErrorCode(wrapped))
		assert.True(t, errors.Is(wrapped, ErrConcurrencyConflict))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.Empty(t, ErrorCode(errors.New("boom")))
	})

	t.Run("nil error", func(t *testing.T) {
		assert.Empty(t, ErrorCode(nil))
	})
}
