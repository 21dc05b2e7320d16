package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which event deliveries were already handled
type IdempotencyStore interface {
	// MarkProcessed atomically claims a delivery key for ttl.
	// Returns true if the key was newly claimed, false if it was already held.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether a key is currently held
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release drops a key so the delivery can be handled again
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a handled delivery is remembered
	TTL time.Duration

	// Enabled turns duplicate detection on
	Enabled bool

	// ReleaseOnFailure frees the key when the handler fails so a redelivery
	// is processed instead of being dropped as a duplicate
	ReleaseOnFailure bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:              24 * time.Hour,
		Enabled:          true,
		ReleaseOnFailure: true,
	}
}
