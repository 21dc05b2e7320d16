package commission

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared"
	"github.com/ticketbook/backend/internal/domain/shared/valueobject"
	"github.com/ticketbook/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// BookRecalculator recomputes the book that owns a distribution
type BookRecalculator interface {
	OnPayment(ctx context.Context, distributionID uuid.UUID) (*BookOutcome, error)
}

// PaymentService accepts payments from the payment subsystem and triggers
// the incremental commission path. Payments are durable before commission runs.
type PaymentService struct {
	paymentRepo      commission.PaymentRepository
	distributionRepo commission.DistributionRepository
	recalculator     BookRecalculator
	eventPublisher   shared.EventPublisher
	logger           *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo commission.PaymentRepository,
	distributionRepo commission.DistributionRepository,
	recalculator BookRecalculator,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo:      paymentRepo,
		distributionRepo: distributionRepo,
		recalculator:     recalculator,
		eventPublisher:   eventPublisher,
		logger:           logger,
	}
}

// RecordPayment stores a payment and recomputes its book.
// A commission failure is reported in the response and never undoes the payment.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*RecordPaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record",
		telemetry.WithAttribute(telemetry.SpanAttrDistributionID, req.DistributionID.String()),
	)
	defer span.End()

	payment, err := s.newPayment(req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.ensureDistributions(ctx, []uuid.UUID{req.DistributionID}); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	s.logger.Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("distribution_id", payment.DistributionID.String()),
		zap.String("amount_paid", payment.AmountPaid.String()),
		zap.String("payment_date", payment.PaymentDate.String()),
	)

	response := &RecordPaymentResponse{Payment: ToPaymentResponse(payment)}
	outcome, err := s.recalculator.OnPayment(ctx, payment.DistributionID)
	response.Commission = outcome
	if err != nil {
		response.CommissionError = err.Error()
		telemetry.AddEvent(span, "commission_failed", "error", err.Error())
		s.logger.Warn("commission update failed after payment",
			zap.String("payment_id", payment.ID.String()),
			zap.String("distribution_id", payment.DistributionID.String()),
			zap.Error(err),
		)
	}
	return response, nil
}

// ImportPayments stores a batch of payments and publishes one
// PaymentRecorded event per payment; commission follows asynchronously.
func (s *PaymentService) ImportPayments(ctx context.Context, req ImportPaymentsRequest) (*ImportPaymentsResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "import")
	defer span.End()

	payments := make([]commission.PaymentCollection, 0, len(req.Payments))
	for i, item := range req.Payments {
		payment, err := s.newPayment(item)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, shared.NewDomainError("INVALID_PAYMENT", fmt.Sprintf("Payment %d: %v", i+1, err))
		}
		payments = append(payments, *payment)
	}

	distributionIDs := lo.Uniq(lo.Map(payments, func(p commission.PaymentCollection, _ int) uuid.UUID {
		return p.DistributionID
	}))
	if err := s.ensureDistributions(ctx, distributionIDs); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.paymentRepo.CreateBatch(ctx, payments); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save payments: %w", err)
	}
	telemetry.SetAttributes(span, "payment.count", len(payments))

	if s.eventPublisher != nil {
		events := lo.Map(payments, func(p commission.PaymentCollection, _ int) shared.DomainEvent {
			return commission.NewPaymentRecordedEvent(&p)
		})
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Error("failed to publish payment recorded events",
				zap.Int("payments", len(payments)),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("payments imported",
		zap.Int("payments", len(payments)),
		zap.Int("distributions", len(distributionIDs)),
	)

	return &ImportPaymentsResponse{
		Imported: len(payments),
		Payments: lo.Map(payments, func(p commission.PaymentCollection, _ int) PaymentResponse {
			return ToPaymentResponse(&p)
		}),
	}, nil
}

func (s *PaymentService) newPayment(req RecordPaymentRequest) (*commission.PaymentCollection, error) {
	date, err := valueobject.ParseISODate(req.PaymentDate)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_PAYMENT_DATE", fmt.Sprintf("Payment date %q is not a YYYY-MM-DD date", req.PaymentDate))
	}
	return commission.NewPaymentCollection(req.DistributionID, req.AmountPaid, date, req.Method)
}

func (s *PaymentService) ensureDistributions(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		if _, err := s.distributionRepo.FindByID(ctx, id); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("DISTRIBUTION_NOT_FOUND", fmt.Sprintf("Distribution %s not found", id))
			}
			return fmt.Errorf("failed to load distribution: %w", err)
		}
	}
	return nil
}
