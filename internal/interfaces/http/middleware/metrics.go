package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ticketbook/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// unmatchedRoute labels requests no route matched, so raw paths never become
// attribute values
const unmatchedRoute = "unknown"

type requestInstruments struct {
	total    *telemetry.Counter
	duration *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

// RequestMetrics counts requests by route and status, records their latency
// and tracks how many are in flight. A nil meter disables it.
func RequestMetrics(meter metric.Meter) (gin.HandlerFunc, error) {
	if meter == nil {
		return passThrough, nil
	}

	var (
		ins requestInstruments
		err error
	)
	if ins.total, err = telemetry.NewCounter(meter, "http_server_request_total",
		"HTTP requests by route and status", "{request}"); err != nil {
		return nil, err
	}
	if ins.duration, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if ins.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests currently being served"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}

	return ins.handle, nil
}

func (ins *requestInstruments) handle(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()

	ins.inFlight.Add(ctx, 1)
	defer ins.inFlight.Add(ctx, -1)
	c.Next()

	route := c.FullPath()
	if route == "" {
		route = unmatchedRoute
	}
	attrs := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(c.Request.Method),
		telemetry.AttrHTTPRoute.String(route),
	}
	ins.duration.RecordDuration(ctx, time.Since(start), attrs...)
	ins.total.Inc(ctx, append(attrs, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))...)
}

func passThrough(c *gin.Context) {
	c.Next()
}
