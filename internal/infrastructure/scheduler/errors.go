package scheduler

import "errors"

var (
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
	ErrJobQueueFull        = errors.New("job queue is full")
	ErrInvalidTrigger      = errors.New("invalid job trigger")
	ErrJobNotFound         = errors.New("job not found")
	ErrInvalidConfig       = errors.New("invalid scheduler configuration")

	// ErrRecalculationIncomplete marks a run that left failed books behind.
	// Executors return it so the job is retried.
	ErrRecalculationIncomplete = errors.New("recalculation incomplete")

	// ErrSweepAlreadyInProgress is returned when a sweep is requested while one is running
	ErrSweepAlreadyInProgress = errors.New("sweep already in progress")
)
