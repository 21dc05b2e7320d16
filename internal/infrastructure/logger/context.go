package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	scopeKey
)

// Scope names the unit of commission work a log line belongs to. Empty
// fields are left out of the log entry.
type Scope struct {
	RequestID string
	EventID   string
	BookID    string
}

// Merge returns s with the non-empty fields of other laid over it
func (s Scope) Merge(other Scope) Scope {
	if other.RequestID != "" {
		s.RequestID = other.RequestID
	}
	if other.EventID != "" {
		s.EventID = other.EventID
	}
	if other.BookID != "" {
		s.BookID = other.BookID
	}
	return s
}

// Fields renders the scope as zap fields
func (s Scope) Fields() []zap.Field {
	fields := make([]zap.Field, 0, 3)
	if s.RequestID != "" {
		fields = append(fields, zap.String("request_id", s.RequestID))
	}
	if s.EventID != "" {
		fields = append(fields, zap.String("event_id", s.EventID))
	}
	if s.BookID != "" {
		fields = append(fields, zap.String("book_id", s.BookID))
	}
	return fields
}

// WithContext attaches a logger to ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger attached to ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}

// WithScope narrows the commission scope of ctx. Identifiers already in
// ctx are kept unless s replaces them.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey, ScopeFrom(ctx).Merge(s))
}

// ScopeFrom returns the commission scope stored in ctx
func ScopeFrom(ctx context.Context) Scope {
	s, _ := ctx.Value(scopeKey).(Scope)
	return s
}

// TraceFields returns trace_id and span_id of the active span, if any
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// L returns the logger of ctx annotated with its commission scope and trace.
//
//	logger.L(ctx).Warn("ledger write retried", zap.Int("attempt", n))
func L(ctx context.Context) *zap.Logger {
	fields := append(ScopeFrom(ctx).Fields(), TraceFields(ctx)...)
	if len(fields) == 0 {
		return FromContext(ctx)
	}
	return FromContext(ctx).With(fields...)
}
