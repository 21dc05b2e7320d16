package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobRecord is one persisted run of a recalculation job
type JobRecord struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	EventID     uuid.UUID  `gorm:"column:event_id;type:uuid;not null;index"`
	Trigger     string     `gorm:"column:job_trigger;size:20;not null"`
	Status      string     `gorm:"column:status;size:20;not null"`
	Error       string     `gorm:"column:last_error;type:text"`
	RetryCount  int        `gorm:"column:retry_count;not null;default:0"`
	StartedAt   *time.Time `gorm:"column:started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

// TableName returns the table name for GORM
func (JobRecord) TableName() string {
	return "recalculation_jobs"
}

// GormJobRecorder persists job history with GORM
type GormJobRecorder struct {
	db *gorm.DB
}

// NewGormJobRecorder creates a new GormJobRecorder
func NewGormJobRecorder(db *gorm.DB) *GormJobRecorder {
	return &GormJobRecorder{db: db}
}

// RecordJobStart upserts the job row as running. Retries of a job reuse its row.
func (r *GormJobRecorder) RecordJobStart(ctx context.Context, job *Job) error {
	now := time.Now()
	record := JobRecord{
		ID:         job.ID,
		EventID:    job.EventID,
		Trigger:    string(job.Trigger),
		Status:     string(JobStatusRunning),
		RetryCount: job.RetryCount,
		StartedAt:  job.StartedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return r.db.WithContext(ctx).Save(&record).Error
}

// RecordJobComplete stores the final status of a job run
func (r *GormJobRecorder) RecordJobComplete(ctx context.Context, job *Job) error {
	result := r.db.WithContext(ctx).
		Model(&JobRecord{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"status":       string(job.Status),
			"last_error":   job.Error,
			"retry_count":  job.RetryCount,
			"completed_at": job.CompletedAt,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// LastJob returns the most recent job run of an event
func (r *GormJobRecorder) LastJob(ctx context.Context, eventID uuid.UUID) (*JobRecord, error) {
	var record JobRecord
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("started_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &record, nil
}
