package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogsConfig configures OTLP log export
type LogsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ServiceName       string
	Insecure          bool
}

// LogExport ships zap entries to the OTLP collector in addition to the
// regular log output. A disabled export is a no-op.
type LogExport struct {
	provider    *sdklog.LoggerProvider
	serviceName string
}

// NewLogExport creates the export and installs its provider globally
func NewLogExport(ctx context.Context, cfg LogsConfig, logger *zap.Logger) (*LogExport, error) {
	if !cfg.Enabled {
		logger.Info("OTLP log export disabled")
		return &LogExport{}, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP logs exporter: %w", err)
	}
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(provider)

	logger.Info("OTLP log export enabled", zap.String("collector_endpoint", cfg.CollectorEndpoint))
	return &LogExport{provider: provider, serviceName: cfg.ServiceName}, nil
}

// IsEnabled reports whether entries are exported
func (e *LogExport) IsEnabled() bool {
	return e != nil && e.provider != nil
}

// Attach returns log teed into the export for entries at or above level.
// Without an active export log is returned unchanged.
func (e *LogExport) Attach(log *zap.Logger, level zapcore.Level) *zap.Logger {
	if !e.IsEnabled() {
		return log
	}
	exported := otelzap.NewCore(e.serviceName, otelzap.WithLoggerProvider(e.provider))
	return teeAbove(log, exported, level)
}

// Shutdown flushes buffered records and stops the provider
func (e *LogExport) Shutdown(ctx context.Context) error {
	if !e.IsEnabled() {
		return nil
	}
	if err := e.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown log export: %w", err)
	}
	return nil
}

func teeAbove(log *zap.Logger, extra zapcore.Core, level zapcore.Level) *zap.Logger {
	filtered := &minLevelCore{Core: extra, min: level}
	return log.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, filtered)
	}))
}

// minLevelCore drops entries below min before they reach Core
type minLevelCore struct {
	zapcore.Core
	min zapcore.Level
}

func (c *minLevelCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && c.Core.Enabled(lvl)
}

func (c *minLevelCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *minLevelCore) With(fields []zapcore.Field) zapcore.Core {
	return &minLevelCore{Core: c.Core.With(fields), min: c.min}
}
