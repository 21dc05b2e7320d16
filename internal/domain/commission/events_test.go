package commission

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaymentRecordedEvent(t *testing.T) {
	p, err := NewPaymentCollection(uuid.New(), dec("400"), date("2025-12-10"), "cash")
	require.NoError(t, err)

	e := NewPaymentRecordedEvent(p)

	assert.Equal(t, EventTypePaymentRecorded, e.EventType())
	assert.Equal(t, AggregateTypePayment, e.AggregateType())
	assert.Equal(t, p.ID, e.AggregateID())
	assert.Equal(t, p.DistributionID, e.DistributionID)
	assert.True(t, p.CreatedAt.Equal(e.OccurredAt()))
	assert.NotEqual(t, uuid.Nil, e.EventID())
}

func TestNewCommissionRecalculatedEvent(t *testing.T) {
	eventID := uuid.New()
	completed := time.Date(2025, 12, 26, 3, 0, 0, 0, time.UTC)

	first := NewCommissionRecalculatedEvent(eventID, 3, 2, 1, dec("230"), completed)
	second := NewCommissionRecalculatedEvent(eventID, 3, 2, 1, dec("230"), completed)

	assert.Equal(t, EventTypeCommissionRecalculated, first.EventType())
	assert.Equal(t, eventID, first.AggregateID())
	assert.Equal(t, completed, first.OccurredAt())
	assert.True(t, dec("230").Equal(first.TotalCommission))
	assert.NotEqual(t, first.EventID(), second.EventID(), "each occurrence gets its own id")
}
