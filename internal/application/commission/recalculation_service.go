package commission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared"
	"github.com/ticketbook/backend/internal/infrastructure/logger"
	"github.com/ticketbook/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RecalculationConfig tunes the recalculation pipeline
type RecalculationConfig struct {
	// Workers bounds how many books of one event are recomputed in parallel
	Workers int
	// MaxRetries is how often a book is retried after a transaction conflict
	MaxRetries int
	// RetryBackoff is multiplied by the attempt number between retries
	RetryBackoff time.Duration
	// BookTimeout bounds one book's transaction; zero means no timeout
	BookTimeout time.Duration
}

// DefaultRecalculationConfig returns the default pipeline configuration
func DefaultRecalculationConfig() RecalculationConfig {
	return RecalculationConfig{
		Workers:      1,
		MaxRetries:   3,
		RetryBackoff: 50 * time.Millisecond,
		BookTimeout:  30 * time.Second,
	}
}

// RecalculationService drives the per-book commission pipeline for both the
// incremental (payment) path and the batch (event) path.
type RecalculationService struct {
	txScope          TransactionScope
	bookRepo         commission.BookRepository
	distributionRepo commission.DistributionRepository
	resolver         *SettingsResolver
	ledger           *CommissionLedger
	config           RecalculationConfig
	clock            Clock
	eventPublisher   shared.EventPublisher
	metrics          *telemetry.CommissionMetrics
	logger           *zap.Logger
}

// NewRecalculationService creates a new RecalculationService
func NewRecalculationService(
	txScope TransactionScope,
	bookRepo commission.BookRepository,
	distributionRepo commission.DistributionRepository,
	resolver *SettingsResolver,
	ledger *CommissionLedger,
	config RecalculationConfig,
	logger *zap.Logger,
) *RecalculationService {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	return &RecalculationService{
		txScope:          txScope,
		bookRepo:         bookRepo,
		distributionRepo: distributionRepo,
		resolver:         resolver,
		ledger:           ledger,
		config:           config,
		clock:            SystemClock,
		logger:           logger,
	}
}

// SetClock sets the clock that stamps recalculation reports
func (s *RecalculationService) SetClock(clock Clock) {
	if clock != nil {
		s.clock = clock
	}
}

// SetEventPublisher sets the publisher for CommissionRecalculated events
func (s *RecalculationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetCommissionMetrics sets the commission metrics collector
func (s *RecalculationService) SetCommissionMetrics(m *telemetry.CommissionMetrics) {
	s.metrics = m
}

// OnPayment recomputes the book that owns a distribution after a payment.
// The outcome is returned even when the book failed.
func (s *RecalculationService) OnPayment(ctx context.Context, distributionID uuid.UUID) (*BookOutcome, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "recalculation", "on_payment",
		telemetry.WithAttribute(telemetry.SpanAttrDistributionID, distributionID.String()),
	)
	defer span.End()

	dist, err := s.distributionRepo.FindByID(ctx, distributionID)
	if err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("DISTRIBUTION_NOT_FOUND", fmt.Sprintf("Distribution %s not found", distributionID))
		}
		return nil, fmt.Errorf("failed to load distribution: %w", err)
	}

	var outcome *BookOutcome
	telemetry.WithProfilingLabels(ctx, telemetry.RecalculationLabels("recalculate_book", TriggerPayment.String()), func(c context.Context) {
		outcome, err = s.runBook(c, TriggerPayment, dist.BookID, nil)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return outcome, err
	}
	return outcome, nil
}

// RecalculateBook recomputes a single book
func (s *RecalculationService) RecalculateBook(ctx context.Context, bookID uuid.UUID) (*BookOutcome, error) {
	var outcome *BookOutcome
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.RecalculationLabels("recalculate_book", TriggerBook.String()), func(c context.Context) {
		outcome, err = s.runBook(c, TriggerBook, bookID, nil)
	})
	return outcome, err
}

// RecalculateEvent recomputes every book of an event. Each book runs in its
// own transaction; a failed book is reported and never aborts the batch.
func (s *RecalculationService) RecalculateEvent(ctx context.Context, eventID uuid.UUID) (*RecalculationReport, error) {
	return s.recalculateEvent(ctx, eventID, TriggerEvent)
}

// SweepEvent is RecalculateEvent started by the periodic sweep
func (s *RecalculationService) SweepEvent(ctx context.Context, eventID uuid.UUID) (*RecalculationReport, error) {
	return s.recalculateEvent(ctx, eventID, TriggerSweep)
}

func (s *RecalculationService) recalculateEvent(ctx context.Context, eventID uuid.UUID, trigger Trigger) (*RecalculationReport, error) {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "recalculation", "event",
		telemetry.WithAttribute(telemetry.SpanAttrEventID, eventID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrTrigger, trigger.String()),
	)
	defer span.End()

	var report *RecalculationReport
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.RecalculationLabels("recalculate_event", trigger.String()), func(c context.Context) {
		report, err = s.runEvent(c, eventID, trigger)
	})
	s.metrics.RecordRecalculation(ctx, trigger.String(), time.Since(start), err)

	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("commission recalculation failed",
			zap.String("event_id", eventID.String()),
			zap.String("trigger", trigger.String()),
			zap.Error(err),
		)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrBooks, report.BooksProcessed,
		telemetry.SpanAttrFailed, report.BooksFailed,
	)
	s.logger.Info("commission recalculation completed",
		zap.String("event_id", eventID.String()),
		zap.String("trigger", trigger.String()),
		zap.Int("books_processed", report.BooksProcessed),
		zap.Int("books_with_commission", report.BooksWithCommission),
		zap.Int("books_failed", report.BooksFailed),
		zap.String("total_commission", report.TotalCommission.StringFixed(2)),
		zap.Duration("duration", time.Since(start)),
	)

	s.publishRecalculated(ctx, report)
	return report, nil
}

func (s *RecalculationService) runEvent(ctx context.Context, eventID uuid.UUID, trigger Trigger) (*RecalculationReport, error) {
	ctx = logger.WithScope(ctx, logger.Scope{EventID: eventID.String()})
	resolution, err := s.resolver.Resolve(ctx, eventID)
	if err != nil {
		return nil, err
	}
	for _, d := range resolution.Diagnostics {
		s.metrics.RecordDiagnostic(ctx, string(d.Kind))
	}

	books, err := s.bookRepo.FindByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	report := &RecalculationReport{
		EventID:             eventID,
		TotalCommission:     decimal.Zero,
		Errors:              []RecalculationError{},
		SettingsDiagnostics: ToDiagnosticResponses(resolution.Diagnostics),
		Books:               make([]BookOutcome, len(books)),
		StartedAt:           s.clock.Now(),
	}

	var g errgroup.Group
	g.SetLimit(s.config.Workers)
	for i := range books {
		book := books[i]
		g.Go(func() error {
			outcome, _ := s.runBook(ctx, trigger, book.ID, &resolution)
			outcome.BookNumber = book.BookNumber
			report.Books[i] = *outcome
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range report.Books {
		report.BooksProcessed++
		switch o.Status {
		case BookStatusSuccess:
			report.BooksWithCommission++
			report.TotalCommission = report.TotalCommission.Add(o.CommissionTotal())
		case BookStatusSkipped:
			report.BooksSkipped++
		case BookStatusFailed:
			report.BooksFailed++
			report.Errors = append(report.Errors, RecalculationError{
				BookID:     o.BookID,
				BookNumber: o.BookNumber,
				Code:       o.errorCode(),
				Message:    o.Reason,
			})
		}
	}
	report.CompletedAt = s.clock.Now()
	return report, nil
}

// bookComputation is what one committed book transaction produced
type bookComputation struct {
	book        *commission.Book
	aggregate   commission.AggregateResult
	evaluation  commission.Evaluation
	records     []commission.CommissionRecord
	diagnostics []commission.Diagnostic
}

// runBook runs the per-book pipeline with conflict retries. When resolution
// is nil, settings are resolved from the locked book's event and their
// diagnostics are reported on the outcome.
func (s *RecalculationService) runBook(ctx context.Context, trigger Trigger, bookID uuid.UUID, resolution *commission.SettingsResolution) (*BookOutcome, error) {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "recalculation", "book",
		telemetry.WithAttribute(telemetry.SpanAttrBookID, bookID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrTrigger, trigger.String()),
	)
	defer span.End()
	ctx = logger.WithScope(ctx, logger.Scope{BookID: bookID.String()})

	if s.config.BookTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.BookTimeout)
		defer cancel()
	}

	outcome := &BookOutcome{
		BookID:         bookID,
		ExpectedAmount: decimal.Zero,
		TotalPaid:      decimal.Zero,
		Records:        []CommissionRecordResponse{},
	}

	var result *bookComputation
	var err error
	for attempt := 1; ; attempt++ {
		outcome.Attempts = attempt
		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			var txErr error
			result, txErr = s.computeBook(ctx, repos, bookID, resolution)
			return txErr
		})
		if err == nil || !errors.Is(err, shared.ErrConcurrencyConflict) || attempt > s.config.MaxRetries {
			break
		}

		s.metrics.RecordConflictRetry(ctx, trigger.String())
		s.logger.Warn("commission transaction conflict, retrying book",
			zap.String("book_id", bookID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if waitErr := sleepContext(ctx, s.config.RetryBackoff*time.Duration(attempt)); waitErr != nil {
			err = waitErr
			break
		}
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrAttempt, outcome.Attempts)

	if err != nil {
		outcome.Status = BookStatusFailed
		outcome.Reason = err.Error()
		outcome.err = err
		telemetry.RecordError(span, err)
		s.metrics.RecordBook(ctx, trigger.String(), string(BookStatusFailed), "", time.Since(start))
		s.logger.Error("commission recomputation failed for book",
			zap.String("book_id", bookID.String()),
			zap.String("trigger", trigger.String()),
			zap.Int("attempts", outcome.Attempts),
			zap.Error(err),
		)
		return outcome, err
	}

	outcome.EventID = result.book.EventID
	outcome.BookNumber = result.book.BookNumber
	outcome.PaymentStatus = result.aggregate.Status.String()
	outcome.ExpectedAmount = result.aggregate.ExpectedAmount
	outcome.TotalPaid = result.aggregate.TotalPaid
	outcome.Records = ToCommissionRecordResponses(result.records)
	outcome.Diagnostics = ToDiagnosticResponses(result.diagnostics)
	if len(result.records) > 0 {
		outcome.Status = BookStatusSuccess
	} else {
		outcome.Status = BookStatusSkipped
		outcome.Reason = string(result.evaluation.SkipReason)
	}

	for _, r := range result.records {
		s.metrics.RecordWrite(ctx, string(r.CommissionType), r.CommissionAmount)
	}
	for _, d := range result.diagnostics {
		s.metrics.RecordDiagnostic(ctx, string(d.Kind))
	}
	s.metrics.RecordBook(ctx, trigger.String(), string(outcome.Status), outcome.Reason, time.Since(start))

	telemetry.SetAttributes(span,
		telemetry.SpanAttrEventID, outcome.EventID.String(),
		telemetry.SpanAttrPaymentStatus, outcome.PaymentStatus,
		telemetry.SpanAttrSkipReason, outcome.Reason,
		telemetry.SpanAttrRecords, len(result.records),
	)
	telemetry.SetOK(span)

	s.logger.Debug("commission recomputed for book",
		zap.String("book_id", bookID.String()),
		zap.String("event_id", outcome.EventID.String()),
		zap.String("status", string(outcome.Status)),
		zap.String("reason", outcome.Reason),
		zap.Int("records", len(result.records)),
	)
	return outcome, nil
}

// computeBook is the body of one book transaction:
// lock book, load distribution and payments, aggregate, evaluate, replace ledger slice.
func (s *RecalculationService) computeBook(
	ctx context.Context,
	repos TransactionalRepositories,
	bookID uuid.UUID,
	resolution *commission.SettingsResolution,
) (*bookComputation, error) {
	book, err := repos.BookRepo().FindByIDForUpdate(ctx, bookID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("BOOK_NOT_FOUND", fmt.Sprintf("Book %s not found", bookID))
		}
		return nil, commission.NewPersistenceError("lock_book", bookID, err)
	}

	var diagnostics []commission.Diagnostic
	settings := resolution
	if settings == nil || settings.EventID != book.EventID {
		resolved, err := s.resolver.Resolve(ctx, book.EventID)
		if err != nil {
			return nil, commission.NewPersistenceError("load_settings", bookID, err)
		}
		settings = &resolved
		diagnostics = append(diagnostics, resolved.Diagnostics...)
	}

	dist, err := repos.DistributionRepo().FindByBookID(ctx, bookID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, commission.NewPersistenceError("load_distribution", bookID, err)
		}
		dist = nil
	}

	payments, err := repos.PaymentRepo().FindByBookID(ctx, bookID)
	if err != nil {
		return nil, commission.NewPersistenceError("load_payments", bookID, err)
	}

	aggregate := commission.Aggregate(book, payments)
	evaluation := commission.Evaluate(commission.EvaluationInput{
		Book:         book,
		Distribution: dist,
		Aggregate:    aggregate,
		Settings:     *settings,
	})
	diagnostics = append(diagnostics, evaluation.Diagnostics...)
	if book.HasZeroExpectedAmount() {
		diagnostics = append(diagnostics, commission.NewDataQualityError(commission.CodeZeroExpectedAmount,
			fmt.Sprintf("Book %s has a zero expected amount", book.BookNumber)))
	}

	records, err := commission.BuildRecords(book, dist, evaluation, commission.InputsChangedAt(aggregate, *settings))
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Apply(ctx, repos, book.ID, book.EventID, records); err != nil {
		return nil, err
	}

	return &bookComputation{
		book:        book,
		aggregate:   aggregate,
		evaluation:  evaluation,
		records:     records,
		diagnostics: diagnostics,
	}, nil
}

func (s *RecalculationService) publishRecalculated(ctx context.Context, report *RecalculationReport) {
	if s.eventPublisher == nil {
		return
	}
	event := commission.NewCommissionRecalculatedEvent(
		report.EventID,
		report.BooksProcessed,
		report.BooksWithCommission,
		report.BooksFailed,
		report.TotalCommission,
		report.CompletedAt,
	)
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish commission recalculated event",
			zap.String("event_id", report.EventID.String()),
			zap.Error(err),
		)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
