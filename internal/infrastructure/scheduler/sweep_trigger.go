package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventProvider lists the events a sweep recalculates
type EventProvider interface {
	RecalculableEventIDs(ctx context.Context) ([]uuid.UUID, error)
}

// SweepTriggerConfig holds configuration for the periodic sweep
type SweepTriggerConfig struct {
	Enabled bool
	// Schedule is a "minute hour * * *" expression for the daily sweep
	Schedule string
	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultSweepTriggerConfig returns default sweep configuration, off by default
func DefaultSweepTriggerConfig() SweepTriggerConfig {
	return SweepTriggerConfig{
		Enabled:       false,
		Schedule:      "0 3 * * *",
		CheckInterval: time.Minute,
	}
}

// ParseCronSchedule parses a cron expression "minute hour * * *" to extract hour and minute.
// Returns defaults (3:00) if the expression is empty.
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	hour, minute = 3, 0

	parts := strings.Fields(cronExpr)
	if len(parts) < 2 {
		return hour, minute, nil
	}

	if parts[0] != "*" {
		if minute, err = parseField(parts[0]); err != nil {
			return 3, 0, err
		}
	}
	if parts[1] != "*" {
		if hour, err = parseField(parts[1]); err != nil {
			return 3, 0, err
		}
	}

	if minute < 0 || minute > 59 {
		return 3, 0, fmt.Errorf("minute must be 0-59, got %d", minute)
	}
	if hour < 0 || hour > 23 {
		return 3, 0, fmt.Errorf("hour must be 0-23, got %d", hour)
	}
	return hour, minute, nil
}

func parseField(s string) (int, error) {
	var val int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: cron field %q", ErrInvalidConfig, s)
		}
		val = val*10 + int(c-'0')
	}
	return val, nil
}

// SweepTrigger periodically enqueues a recalculation of every known event
type SweepTrigger struct {
	config    SweepTriggerConfig
	hour      int
	minute    int
	scheduler *Scheduler
	events    EventProvider
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	sweeping    bool
	lastRunDate string
	lastRunAt   *time.Time
}

// NewSweepTrigger creates a new sweep trigger
func NewSweepTrigger(
	config SweepTriggerConfig,
	scheduler *Scheduler,
	events EventProvider,
	logger *zap.Logger,
) (*SweepTrigger, error) {
	hour, minute, err := ParseCronSchedule(config.Schedule)
	if err != nil {
		return nil, err
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &SweepTrigger{
		config:    config,
		hour:      hour,
		minute:    minute,
		scheduler: scheduler,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Start starts the sweep loop. It is a no-op when the sweep is disabled.
func (t *SweepTrigger) Start(ctx context.Context) error {
	if !t.config.Enabled {
		t.logger.Info("Commission sweep disabled")
		return nil
	}

	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Commission sweep trigger started",
		zap.Int("hour", t.hour),
		zap.Int("minute", t.minute),
		zap.Duration("check_interval", t.config.CheckInterval),
	)
	return nil
}

// Stop stops the sweep loop
func (t *SweepTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Commission sweep trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *SweepTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger sweeps at most once per day, at the configured minute
func (t *SweepTrigger) checkAndTrigger(ctx context.Context) {
	now := t.now()
	if !t.shouldRun(now) {
		return
	}

	t.mu.Lock()
	today := now.Format("2006-01-02")
	if t.lastRunDate == today {
		t.mu.Unlock()
		return
	}
	t.lastRunDate = today
	t.mu.Unlock()

	if _, err := t.Sweep(ctx); err != nil {
		t.logger.Error("Commission sweep failed", zap.Error(err))
	}
}

func (t *SweepTrigger) shouldRun(now time.Time) bool {
	return now.Hour() == t.hour && now.Minute() == t.minute
}

// Sweep enqueues one sweep job per recalculable event and returns the jobs
func (t *SweepTrigger) Sweep(ctx context.Context) ([]*Job, error) {
	t.mu.Lock()
	if t.sweeping {
		t.mu.Unlock()
		return nil, ErrSweepAlreadyInProgress
	}
	t.sweeping = true
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.sweeping = false
		t.mu.Unlock()
	}()

	eventIDs, err := t.events.RecalculableEventIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for sweep: %w", err)
	}

	jobs := make([]*Job, 0, len(eventIDs))
	for _, eventID := range eventIDs {
		job, err := t.scheduler.ScheduleRecalculation(eventID, TriggerSweep)
		if err != nil {
			t.logger.Error("Failed to schedule sweep job",
				zap.String("event_id", eventID.String()),
				zap.Error(err),
			)
			continue
		}
		jobs = append(jobs, job)
	}

	now := t.now()
	t.mu.Lock()
	t.lastRunAt = &now
	t.mu.Unlock()

	t.logger.Info("Commission sweep scheduled",
		zap.Int("events", len(eventIDs)),
		zap.Int("jobs", len(jobs)),
	)
	return jobs, nil
}

// GetStatus returns the current status of the sweep trigger
func (t *SweepTrigger) GetStatus() map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()

	return map[string]any{
		"enabled":     t.config.Enabled,
		"is_running":  t.isRunning,
		"hour":        t.hour,
		"minute":      t.minute,
		"last_run_at": t.lastRunAt,
	}
}
