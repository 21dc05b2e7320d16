package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of commission spans
const TracerName = "ticketbook-commission"

// Span attribute keys
const (
	SpanAttrEventID        = "commission.event_id"
	SpanAttrBookID         = "commission.book_id"
	SpanAttrDistributionID = "commission.distribution_id"
	SpanAttrTrigger        = "commission.trigger"
	SpanAttrPaymentStatus  = "commission.payment_status"
	SpanAttrSkipReason     = "commission.skip_reason"
	SpanAttrRecords        = "commission.records"
	SpanAttrAttempt        = "commission.attempt"
	SpanAttrBooks          = "commission.books"
	SpanAttrFailed         = "commission.failed"
)

// SpanOption adds a start attribute to a span
type SpanOption func([]attribute.KeyValue) []attribute.KeyValue

// WithAttribute sets key on the span when it starts
func WithAttribute(key string, value any) SpanOption {
	return func(attrs []attribute.KeyValue) []attribute.KeyValue {
		return append(attrs, toAttribute(key, value))
	}
}

// StartSpan starts an internal span on the global tracer provider. The
// caller ends it.
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, trace.Span) {
	var attrs []attribute.KeyValue
	for _, opt := range opts {
		attrs = opt(attrs)
	}
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// StartServiceSpan starts a span named service.method, e.g. recalculation.book
func StartServiceSpan(ctx context.Context, service, method string, opts ...SpanOption) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+method, opts...)
}

// SetAttributes sets alternating key/value pairs on span. Pairs whose key is
// not a string are dropped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	span.SetAttributes(pairsToAttributes(keyValues)...)
}

// AddEvent records a named event with alternating key/value pairs
func AddEvent(span trace.Span, name string, keyValues ...any) {
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(pairsToAttributes(keyValues)...))
}

// RecordError records err on span and sets its status to Error
func RecordError(span trace.Span, err error, opts ...trace.EventOption) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err, opts...)
	span.SetStatus(codes.Error, err.Error())
}

func SetOK(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

func pairsToAttributes(keyValues []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 1; i < len(keyValues); i += 2 {
		if key, ok := keyValues[i-1].(string); ok {
			attrs = append(attrs, toAttribute(key, keyValues[i]))
		}
	}
	return attrs
}

func toAttribute(key string, value any) attribute.KeyValue {
	k := attribute.Key(key)
	switch v := value.(type) {
	case string:
		return k.String(v)
	case bool:
		return k.Bool(v)
	case int:
		return k.Int(v)
	case int64:
		return k.Int64(v)
	case float64:
		return k.Float64(v)
	case []string:
		return k.StringSlice(v)
	case fmt.Stringer:
		return k.String(v.String())
	}
	return k.String(fmt.Sprint(value))
}
