package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// CommissionMetrics records commission engine activity.
// A nil *CommissionMetrics is valid and records nothing.
type CommissionMetrics struct {
	logger *zap.Logger

	recalculationsTotal *Counter
	recalcDuration      *Histogram
	booksTotal          *Counter
	bookDuration        *Histogram
	recordsWritten      *Counter
	commissionAmount    *FloatCounter
	conflictRetries     *Counter
	diagnosticsTotal    *Counter
	deliveriesTotal     *Counter
}

// CommissionMetricsConfig holds configuration for commission metrics.
type CommissionMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewCommissionMetrics creates the commission instruments on the given meter.
func NewCommissionMetrics(cfg CommissionMetricsConfig) (*CommissionMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &CommissionMetrics{logger: logger}
	var err error

	if m.recalculationsTotal, err = NewCounter(cfg.Meter, "commission_recalculations_total",
		"Recalculation runs by trigger and outcome", "{run}"); err != nil {
		return nil, err
	}
	if m.recalcDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "commission_recalculation_duration_seconds",
		Description: "Duration of recalculation runs",
		Unit:        "s",
		Boundaries:  BatchDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.booksTotal, err = NewCounter(cfg.Meter, "commission_books_total",
		"Books recomputed by outcome", "{book}"); err != nil {
		return nil, err
	}
	if m.bookDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "commission_book_duration_seconds",
		Description: "Duration of one book's recomputation transaction",
		Unit:        "s",
		Boundaries:  BookDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.recordsWritten, err = NewCounter(cfg.Meter, "commission_records_written_total",
		"Commission records written by type", "{record}"); err != nil {
		return nil, err
	}
	if m.commissionAmount, err = NewFloatCounter(cfg.Meter, "commission_amount_written_total",
		"Sum of commission amounts written by type", "1"); err != nil {
		return nil, err
	}
	if m.conflictRetries, err = NewCounter(cfg.Meter, "commission_conflict_retries_total",
		"Book recomputations retried after a transaction conflict", "{retry}"); err != nil {
		return nil, err
	}
	if m.diagnosticsTotal, err = NewCounter(cfg.Meter, "commission_diagnostics_total",
		"Configuration and data-quality diagnostics raised", "{diagnostic}"); err != nil {
		return nil, err
	}
	if m.deliveriesTotal, err = NewCounter(cfg.Meter, "commission_event_deliveries_total",
		"Domain event deliveries by type and idempotency outcome", "{delivery}"); err != nil {
		return nil, err
	}

	logger.Info("Commission metrics initialized")
	return m, nil
}

// RecordRecalculation records one finished run.
func (m *CommissionMetrics) RecordRecalculation(ctx context.Context, trigger string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.recalculationsTotal.Inc(ctx, AttrTrigger.String(trigger), AttrOutcome.String(outcome))
	m.recalcDuration.RecordDuration(ctx, d, AttrTrigger.String(trigger))
}

// RecordBook records the outcome of one book's recomputation.
func (m *CommissionMetrics) RecordBook(ctx context.Context, trigger, status, skipReason string, d time.Duration) {
	if m == nil {
		return
	}
	m.booksTotal.Inc(ctx,
		AttrTrigger.String(trigger),
		AttrBookStatus.String(status),
		AttrSkipReason.String(skipReason),
	)
	m.bookDuration.RecordDuration(ctx, d, AttrTrigger.String(trigger), AttrBookStatus.String(status))
}

// RecordWrite records one written commission record.
func (m *CommissionMetrics) RecordWrite(ctx context.Context, commissionType string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.recordsWritten.Inc(ctx, AttrCommissionType.String(commissionType))
	m.commissionAmount.Add(ctx, amount.InexactFloat64(), AttrCommissionType.String(commissionType))
}

// RecordConflictRetry records a retried book transaction.
func (m *CommissionMetrics) RecordConflictRetry(ctx context.Context, trigger string) {
	if m == nil {
		return
	}
	m.conflictRetries.Inc(ctx, AttrTrigger.String(trigger))
}

// RecordDiagnostic records a raised diagnostic by kind.
func (m *CommissionMetrics) RecordDiagnostic(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.diagnosticsTotal.Inc(ctx, AttrErrorKind.String(kind))
}

// ObserveDelivery records how one domain event delivery ended.
func (m *CommissionMetrics) ObserveDelivery(ctx context.Context, eventType, outcome string) {
	if m == nil {
		return
	}
	m.deliveriesTotal.Inc(ctx, AttrEventType.String(eventType), AttrOutcome.String(outcome))
}
