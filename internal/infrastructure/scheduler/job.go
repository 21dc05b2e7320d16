package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a recalculation job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobTrigger records what asked for a recalculation. Manual jobs recompute
// an event; sweep jobs also settle ledger rows of books that have gone away.
type JobTrigger string

const (
	TriggerManual JobTrigger = "MANUAL"
	TriggerSweep  JobTrigger = "SWEEP"
)

// IsValid reports whether t is a known trigger
func (t JobTrigger) IsValid() bool {
	return t == TriggerManual || t == TriggerSweep
}

// Job is a queued or finished recalculation of one event
type Job struct {
	ID          uuid.UUID
	EventID     uuid.UUID
	Trigger     JobTrigger
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
}

// NewJob creates a pending job
func NewJob(eventID uuid.UUID, trigger JobTrigger, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		EventID:    eventID,
		Trigger:    trigger,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

func (j *Job) begin(at time.Time) {
	j.Status = JobStatusRunning
	j.StartedAt = &at
	j.CompletedAt = nil
	j.Error = ""
}

func (j *Job) finish(at time.Time, err error) {
	j.CompletedAt = &at
	if err != nil {
		j.Status = JobStatusFailed
		j.Error = err.Error()
		return
	}
	j.Status = JobStatusSuccess
}

// retry moves a failed job back to pending if it has attempts left
func (j *Job) retry() bool {
	if j.Status != JobStatusFailed || j.RetryCount >= j.MaxRetries {
		return false
	}
	j.RetryCount++
	j.Status = JobStatusPending
	return true
}

// JobExecutor runs one recalculation job
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// JobRecorder keeps a history of job runs
type JobRecorder interface {
	RecordJobStart(ctx context.Context, job *Job) error
	RecordJobComplete(ctx context.Context, job *Job) error
}
