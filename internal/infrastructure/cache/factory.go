package cache

import (
	"context"
	"fmt"

	"github.com/ticketbook/backend/internal/domain/shared"
	"github.com/ticketbook/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// OpenIdempotencyStore returns the store that remembers handled payment
// deliveries. Redis is used when enabled; if it cannot be reached the
// process-local store takes over unless cfg.Required is set.
func OpenIdempotencyStore(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (shared.IdempotencyStore, error) {
	if !cfg.Enabled {
		log.Info("Idempotency store: in-memory")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(ctx, cfg)
	switch {
	case err == nil:
		log.Info("Idempotency store: redis", zap.String("addr", cfg.Addr()))
		return store, nil
	case cfg.Required:
		return nil, fmt.Errorf("redis idempotency store unavailable: %w", err)
	}

	// Deliveries are only deduplicated within this process from here on.
	log.Warn("Redis unreachable, idempotency store falling back to memory",
		zap.String("addr", cfg.Addr()),
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}
