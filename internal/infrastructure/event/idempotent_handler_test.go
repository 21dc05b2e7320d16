package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared"
	"github.com/ticketbook/backend/internal/infrastructure/cache"
	"go.uber.org/zap"
)

// MockEventHandler is a mock implementation of shared.EventHandler
type MockEventHandler struct {
	mock.Mock
}

func (m *MockEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventHandler) EventTypes() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestIdempotentHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("first delivery is processed", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		inner := new(MockEventHandler)
		event := newPaymentEvent(t)
		inner.On("Handle", mock.Anything, event).Return(nil).Once()

		counts := &DeliveryCounts{}
		handler := NewIdempotentHandler(inner, store, zap.NewNop(), WithDeliveryObserver(counts))
		require.NoError(t, handler.Handle(ctx, event))

		inner.AssertExpectations(t)
		assert.Equal(t, int64(1), counts.Count(DeliveryProcessed))
	})

	t.Run("redeliveries are skipped", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		inner := new(MockEventHandler)
		event := newPaymentEvent(t)
		inner.On("Handle", mock.Anything, event).Return(nil).Once()

		counts := &DeliveryCounts{}
		handler := NewIdempotentHandler(inner, store, zap.NewNop(), WithDeliveryObserver(counts))
		for i := 0; i < 3; i++ {
			require.NoError(t, handler.Handle(ctx, event))
		}

		inner.AssertExpectations(t)
		assert.Equal(t, int64(1), counts.Count(DeliveryProcessed))
		assert.Equal(t, int64(2), counts.Count(DeliveryDuplicate))
	})

	t.Run("failed delivery is released for retry", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		inner := new(MockEventHandler)
		event := newPaymentEvent(t)
		inner.On("Handle", mock.Anything, event).Return(errors.New("lock timeout")).Once()
		inner.On("Handle", mock.Anything, event).Return(nil).Once()

		counts := &DeliveryCounts{}
		handler := NewIdempotentHandler(inner, store, zap.NewNop(), WithDeliveryObserver(counts))
		require.Error(t, handler.Handle(ctx, event))
		require.NoError(t, handler.Handle(ctx, event))

		inner.AssertExpectations(t)
		assert.Equal(t, int64(1), counts.Count(DeliveryProcessed))
		assert.Equal(t, int64(1), counts.Count(DeliveryFailed))
	})

	t.Run("failed delivery stays claimed when release is off", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		inner := new(MockEventHandler)
		event := newPaymentEvent(t)
		inner.On("Handle", mock.Anything, event).Return(errors.New("lock timeout")).Once()

		cfg := shared.DefaultIdempotencyConfig()
		cfg.ReleaseOnFailure = false
		counts := &DeliveryCounts{}
		handler := NewIdempotentHandler(inner, store, zap.NewNop(), WithIdempotencyConfig(cfg), WithDeliveryObserver(counts))
		require.Error(t, handler.Handle(ctx, event))
		require.NoError(t, handler.Handle(ctx, event))

		inner.AssertExpectations(t)
		assert.Equal(t, int64(1), counts.Count(DeliveryDuplicate))
	})

	t.Run("store failure still processes the event", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		inner := new(MockEventHandler)
		event := newPaymentEvent(t)
		store.On("MarkProcessed", mock.Anything, DeliveryKey(event), 24*time.Hour).Return(false, errors.New("redis down"))
		inner.On("Handle", mock.Anything, event).Return(nil).Once()

		handler := NewIdempotentHandler(inner, store, zap.NewNop())
		require.NoError(t, handler.Handle(ctx, event))

		store.AssertExpectations(t)
		inner.AssertExpectations(t)
	})

	t.Run("unclaimed failure is not released", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		inner := new(MockEventHandler)
		event := newPaymentEvent(t)
		store.On("MarkProcessed", mock.Anything, DeliveryKey(event), 24*time.Hour).Return(false, errors.New("redis down"))
		inner.On("Handle", mock.Anything, event).Return(errors.New("lock timeout")).Once()

		handler := NewIdempotentHandler(inner, store, zap.NewNop())
		require.Error(t, handler.Handle(ctx, event))

		store.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	})

	t.Run("disabled idempotency bypasses the store", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		inner := new(MockEventHandler)
		event := newPaymentEvent(t)
		inner.On("Handle", mock.Anything, event).Return(nil).Twice()

		handler := NewIdempotentHandler(inner, store, zap.NewNop(),
			WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}))
		require.NoError(t, handler.Handle(ctx, event))
		require.NoError(t, handler.Handle(ctx, event))

		inner.AssertExpectations(t)
		store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("handlers sharing a store see each other's deliveries", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		counts := &DeliveryCounts{}
		inner := new(MockEventHandler)
		inner.On("Handle", mock.Anything, mock.Anything).Return(nil)

		a := NewIdempotentHandler(inner, store, zap.NewNop(), WithDeliveryObserver(counts))
		b := NewIdempotentHandler(inner, store, zap.NewNop(), WithDeliveryObserver(counts))
		event := newPaymentEvent(t)
		require.NoError(t, a.Handle(ctx, event))
		require.NoError(t, b.Handle(ctx, event))

		assert.Equal(t, int64(1), counts.Count(DeliveryProcessed))
		assert.Equal(t, int64(1), counts.Count(DeliveryDuplicate))
	})
}

func TestIdempotentHandler_EventTypes(t *testing.T) {
	inner := new(MockEventHandler)
	inner.On("EventTypes").Return([]string{commission.EventTypePaymentRecorded})

	handler := NewIdempotentHandler(inner, cache.NewInMemoryIdempotencyStore(), zap.NewNop())
	assert.Equal(t, []string{commission.EventTypePaymentRecorded}, handler.EventTypes())
}

func TestDeliveryKey(t *testing.T) {
	event := newPaymentEvent(t)
	assert.Equal(t, commission.EventTypePaymentRecorded+":"+event.EventID().String(), DeliveryKey(event))
}
