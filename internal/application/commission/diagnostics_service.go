package commission

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared"
	"github.com/ticketbook/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DiagnosticsService explains, per book, what the engine would write now and
// how that differs from the persisted ledger. It is read-only and uses the
// same evaluation as recalculation.
type DiagnosticsService struct {
	bookRepo         commission.BookRepository
	distributionRepo commission.DistributionRepository
	paymentRepo      commission.PaymentRepository
	recordRepo       commission.CommissionRecordRepository
	resolver         *SettingsResolver
	clock            Clock
	logger           *zap.Logger
}

// NewDiagnosticsService creates a new DiagnosticsService
func NewDiagnosticsService(
	bookRepo commission.BookRepository,
	distributionRepo commission.DistributionRepository,
	paymentRepo commission.PaymentRepository,
	recordRepo commission.CommissionRecordRepository,
	resolver *SettingsResolver,
	logger *zap.Logger,
) *DiagnosticsService {
	return &DiagnosticsService{
		bookRepo:         bookRepo,
		distributionRepo: distributionRepo,
		paymentRepo:      paymentRepo,
		recordRepo:       recordRepo,
		resolver:         resolver,
		clock:            SystemClock,
		logger:           logger,
	}
}

// SetClock sets the clock that stamps diagnostics reports
func (s *DiagnosticsService) SetClock(clock Clock) {
	if clock != nil {
		s.clock = clock
	}
}

// Diagnose builds the diagnostics report of an event
func (s *DiagnosticsService) Diagnose(ctx context.Context, eventID uuid.UUID) (*EventDiagnosticsResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "diagnostics", "event",
		telemetry.WithAttribute(telemetry.SpanAttrEventID, eventID.String()),
	)
	defer span.End()

	resolution, err := s.resolver.Resolve(ctx, eventID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	books, err := s.bookRepo.FindByEvent(ctx, eventID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	asOf := s.clock.Now()
	report := &EventDiagnosticsResponse{
		EventID:             eventID,
		SettingsState:       string(resolution.State),
		SettingsDiagnostics: ToDiagnosticResponses(resolution.Diagnostics),
		Books:               make([]BookDiagnosis, 0, len(books)),
		AsOf:                asOf,
	}

	for i := range books {
		diagnosis, err := s.diagnoseBook(ctx, &books[i], resolution)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if !diagnosis.InSync {
			report.BooksOutOfSync++
		}
		report.Books = append(report.Books, *diagnosis)
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrBooks, len(books),
		"commission.out_of_sync", report.BooksOutOfSync,
	)
	return report, nil
}

func (s *DiagnosticsService) diagnoseBook(ctx context.Context, book *commission.Book, resolution commission.SettingsResolution) (*BookDiagnosis, error) {
	dist, err := s.distributionRepo.FindByBookID(ctx, book.ID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("failed to load distribution of book %s: %w", book.BookNumber, err)
		}
		dist = nil
	}
	payments, err := s.paymentRepo.FindByBookID(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments of book %s: %w", book.BookNumber, err)
	}
	persisted, err := s.recordRepo.FindByBook(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load records of book %s: %w", book.BookNumber, err)
	}

	aggregate := commission.Aggregate(book, payments)
	evaluation := commission.Evaluate(commission.EvaluationInput{
		Book:         book,
		Distribution: dist,
		Aggregate:    aggregate,
		Settings:     resolution,
	})
	expected, err := commission.BuildRecords(book, dist, evaluation, commission.InputsChangedAt(aggregate, resolution))
	if err != nil {
		return nil, err
	}

	diagnostics := evaluation.Diagnostics
	if book.HasZeroExpectedAmount() {
		diagnostics = append(diagnostics, commission.NewDataQualityError(commission.CodeZeroExpectedAmount,
			fmt.Sprintf("Book %s has a zero expected amount", book.BookNumber)))
	}

	diagnosis := &BookDiagnosis{
		BookID:         book.ID,
		BookNumber:     book.BookNumber,
		IsExtraBook:    book.IsExtraBook,
		PaymentStatus:  aggregate.Status.String(),
		ExpectedAmount: aggregate.ExpectedAmount,
		TotalPaid:      aggregate.TotalPaid,
		PaymentCount:   aggregate.PaymentCount,
		SkipReason:     string(evaluation.SkipReason),
		Expected:       ToCommissionRecordResponses(expected),
		Persisted:      ToCommissionRecordResponses(persisted),
		InSync:         sameRecords(expected, persisted),
		Diagnostics:    ToDiagnosticResponses(diagnostics),
	}
	if dist != nil {
		diagnosis.Level1Value = dist.Level1Value()
	}
	if aggregate.LastPaymentDate != nil {
		diagnosis.LastPaymentDate = aggregate.LastPaymentDate.String()
	}
	return diagnosis, nil
}

// sameRecords compares the derived content of two record sets, ignoring
// creation time.
func sameRecords(expected, persisted []commission.CommissionRecord) bool {
	if len(expected) != len(persisted) {
		return false
	}
	byType := make(map[commission.CommissionType]commission.CommissionRecord, len(persisted))
	for _, r := range persisted {
		byType[r.CommissionType] = r
	}
	for _, e := range expected {
		p, ok := byType[e.CommissionType]
		if !ok {
			return false
		}
		if p.ID != e.ID ||
			p.DistributionID != e.DistributionID ||
			p.Level1Value != e.Level1Value ||
			!p.CommissionPercent.Equal(e.CommissionPercent) ||
			!p.PaymentAmount.Equal(e.PaymentAmount) ||
			!p.CommissionAmount.Equal(e.CommissionAmount) ||
			!p.PaymentDate.Equal(e.PaymentDate) {
			return false
		}
	}
	return true
}
