package telemetry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticketbook/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{ServerAddress: "http://localhost:4040"}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_InvalidConfig(t *testing.T) {
	tests := map[string]telemetry.ProfilerConfig{
		"no address":   {Enabled: true, ApplicationName: "commission-engine"},
		"no app name":  {Enabled: true, ServerAddress: "http://localhost:4040"},
		"unknown kind": {Enabled: true, ApplicationName: "commission-engine", ServerAddress: "http://localhost:4040", Profiles: []string{"cpu", "heap"}},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			p, err := telemetry.NewProfiler(cfg, zap.NewNop())
			assert.Error(t, err)
			assert.Nil(t, p)
		})
	}
}
