package commission

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticketbook/backend/internal/domain/shared"
	"github.com/ticketbook/backend/internal/domain/shared/valueobject"
)

func TestNewPaymentCollection(t *testing.T) {
	distID := uuid.New()

	t.Run("valid payment", func(t *testing.T) {
		p, err := NewPaymentCollection(distID, dec("250.00"), date("2025-12-01"), " CASH ")
		require.NoError(t, err)
		assert.Equal(t, distID, p.DistributionID)
		assert.Equal(t, "CASH", p.Method)
		assert.Equal(t, "2025-12-01", p.PaymentDate.String())
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		_, err := NewPaymentCollection(distID, dec("0"), date("2025-12-01"), "CASH")
		require.Error(t, err)
		assert.Equal(t, "INVALID_AMOUNT", shared.ErrorCode(err))
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := NewPaymentCollection(distID, dec("-5"), date("2025-12-01"), "CASH")
		assert.Error(t, err)
	})

	t.Run("rejects missing date", func(t *testing.T) {
		_, err := NewPaymentCollection(distID, dec("5"), valueobject.Date{}, "CASH")
		require.Error(t, err)
		assert.Equal(t, "INVALID_PAYMENT_DATE", shared.ErrorCode(err))
	})

	t.Run("rejects missing distribution", func(t *testing.T) {
		_, err := NewPaymentCollection(uuid.Nil, dec("5"), date("2025-12-01"), "CASH")
		assert.Error(t, err)
	})

	t.Run("rejects missing method", func(t *testing.T) {
		_, err := NewPaymentCollection(distID, dec("5"), date("2025-12-01"), "")
		assert.Error(t, err)
	})
}
