package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticketbook/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// unreachableRedis points at a port nothing listens on
var unreachableRedis = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

func TestOpenIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled redis uses the in-memory store", func(t *testing.T) {
		store, err := OpenIdempotencyStore(ctx, config.RedisConfig{}, zap.NewNop())
		require.NoError(t, err)
		defer store.Close()

		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("unreachable redis falls back to memory", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		store, err := OpenIdempotencyStore(ctx, unreachableRedis, zap.New(core))
		require.NoError(t, err)
		defer store.Close()

		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "127.0.0.1:1", logs.All()[0].ContextMap()["addr"])
	})

	t.Run("required redis fails when unreachable", func(t *testing.T) {
		cfg := unreachableRedis
		cfg.Required = true

		store, err := OpenIdempotencyStore(ctx, cfg, zap.NewNop())
		require.Error(t, err)
		assert.Nil(t, store)
		assert.Contains(t, err.Error(), "redis idempotency store unavailable")
	})
}
