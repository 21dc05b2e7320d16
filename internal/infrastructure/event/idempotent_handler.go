package event

import (
	"context"
	"sync"

	"github.com/ticketbook/backend/internal/domain/shared"
	"github.com/ticketbook/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Delivery outcomes reported to a DeliveryObserver
const (
	DeliveryProcessed = "processed"
	DeliveryDuplicate = "duplicate"
	DeliveryFailed    = "failed"
)

// DeliveryObserver is told how each delivery through an IdempotentHandler ended
type DeliveryObserver interface {
	ObserveDelivery(ctx context.Context, eventType, outcome string)
}

// DeliveryCounts tallies outcomes in memory. It is safe to share between
// handlers.
type DeliveryCounts struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (c *DeliveryCounts) ObserveDelivery(_ context.Context, _ string, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int64)
	}
	c.counts[outcome]++
}

// Count returns how many deliveries ended with outcome
func (c *DeliveryCounts) Count(outcome string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[outcome]
}

// IdempotentHandler skips redeliveries of an event it already handled.
// Deliveries are keyed by event type and event ID.
type IdempotentHandler struct {
	next      shared.EventHandler
	store     shared.IdempotencyStore
	config    shared.IdempotencyConfig
	observers []DeliveryObserver
	log       *zap.Logger
}

// IdempotentHandlerOption configures an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig replaces shared.DefaultIdempotencyConfig
func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.config = config
	}
}

// WithDeliveryObserver adds an observer of delivery outcomes
func WithDeliveryObserver(o DeliveryObserver) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.observers = append(h.observers, o)
	}
}

// NewIdempotentHandler wraps next with duplicate detection backed by store
func NewIdempotentHandler(next shared.EventHandler, store shared.IdempotencyStore, log *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{
		next:   next,
		store:  store,
		config: shared.DefaultIdempotencyConfig(),
		log:    log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *IdempotentHandler) EventTypes() []string {
	return h.next.EventTypes()
}

// Handle runs the wrapped handler unless this delivery was already handled.
// When the store cannot be reached the event is processed anyway: handlers
// behind this wrapper recompute from scratch, so a second run is harmless.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.next.Handle(ctx, event)
	}

	key := DeliveryKey(event)
	log := logger.L(logger.WithContext(ctx, h.log)).With(zap.String("delivery_key", key))

	claimed, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	if err != nil {
		log.Warn("idempotency store unavailable, processing delivery", zap.Error(err))
	} else if !claimed {
		log.Debug("duplicate delivery skipped")
		h.observe(ctx, event, DeliveryDuplicate)
		return nil
	}

	if err := h.next.Handle(ctx, event); err != nil {
		h.observe(ctx, event, DeliveryFailed)
		if claimed && h.config.ReleaseOnFailure {
			if relErr := h.store.Release(ctx, key); relErr != nil {
				log.Warn("failed to release delivery key", zap.Error(relErr))
			}
		}
		return err
	}
	h.observe(ctx, event, DeliveryProcessed)
	return nil
}

func (h *IdempotentHandler) observe(ctx context.Context, event shared.DomainEvent, outcome string) {
	for _, o := range h.observers {
		o.ObserveDelivery(ctx, event.EventType(), outcome)
	}
}

// DeliveryKey identifies one delivery of an event in the idempotency store
func DeliveryKey(event shared.DomainEvent) string {
	return event.EventType() + ":" + event.EventID().String()
}

var (
	_ shared.EventHandler = (*IdempotentHandler)(nil)
	_ DeliveryObserver    = (*DeliveryCounts)(nil)
)
