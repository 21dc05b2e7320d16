package commission

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ticketbook/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// EventRecalculator recomputes every book of an event
type EventRecalculator interface {
	RecalculateEvent(ctx context.Context, eventID uuid.UUID) (*RecalculationReport, error)
	SweepEvent(ctx context.Context, eventID uuid.UUID) (*RecalculationReport, error)
}

// RecalculationJobExecutor runs scheduled recalculation jobs
type RecalculationJobExecutor struct {
	recalculator EventRecalculator
	logger       *zap.Logger
}

// NewRecalculationJobExecutor creates a new RecalculationJobExecutor
func NewRecalculationJobExecutor(recalculator EventRecalculator, logger *zap.Logger) *RecalculationJobExecutor {
	return &RecalculationJobExecutor{
		recalculator: recalculator,
		logger:       logger,
	}
}

// Execute recalculates the job's event. A job with failed books returns an
// error so the scheduler retries it.
func (e *RecalculationJobExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	var report *RecalculationReport
	var err error
	switch job.Trigger {
	case scheduler.TriggerSweep:
		report, err = e.recalculator.SweepEvent(ctx, job.EventID)
	default:
		report, err = e.recalculator.RecalculateEvent(ctx, job.EventID)
	}
	if err != nil {
		return fmt.Errorf("failed to recalculate event %s: %w", job.EventID, err)
	}

	if report.BooksFailed > 0 {
		e.logger.Warn("recalculation job finished with failed books",
			zap.String("job_id", job.ID.String()),
			zap.String("event_id", job.EventID.String()),
			zap.Int("books_failed", report.BooksFailed),
		)
		return fmt.Errorf("%w: %d of %d books failed", scheduler.ErrRecalculationIncomplete,
			report.BooksFailed, report.BooksProcessed)
	}
	return nil
}

var _ scheduler.JobExecutor = (*RecalculationJobExecutor)(nil)
