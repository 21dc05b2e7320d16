package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Enabled           bool
	MaxConcurrentJobs int
	QueueSize         int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 2,
		QueueSize:         100,
		JobTimeout:        30 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        time.Minute,
	}
}

// Validate checks the configuration
func (c SchedulerConfig) Validate() error {
	if c.MaxConcurrentJobs < 1 || c.QueueSize < 1 || c.JobTimeout <= 0 || c.RetryAttempts < 0 || c.RetryDelay < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Scheduler runs event recalculations on a fixed pool of workers. Requests
// for an event whose job is still waiting in the queue are folded into that
// job, so a sweep and a burst of manual requests cost one recalculation.
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	recorder JobRecorder
	logger   *zap.Logger
	now      func() time.Time

	queue chan *Job

	mu      sync.Mutex
	running bool
	waiting map[uuid.UUID]*Job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a stopped scheduler
func NewScheduler(config SchedulerConfig, executor JobExecutor, logger *zap.Logger) *Scheduler {
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if config.MaxConcurrentJobs <= 0 {
		config.MaxConcurrentJobs = 1
	}
	return &Scheduler{
		config:   config,
		executor: executor,
		logger:   logger,
		now:      time.Now,
		queue:    make(chan *Job, config.QueueSize),
		waiting:  make(map[uuid.UUID]*Job),
	}
}

// SetJobRecorder sets the recorder that keeps job history
func (s *Scheduler) SetJobRecorder(recorder JobRecorder) {
	s.recorder = recorder
}

// Start launches the workers. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(s.config.MaxConcurrentJobs)
	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		go s.work(ctx)
	}

	s.logger.Debug("Recalculation workers started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers, bounded by ctx.
// Jobs still queued are dropped.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("Recalculation scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Recalculation scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler accepts jobs
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ScheduleRecalculation queues a recalculation of eventID. If a job for the
// event is already waiting, that job is returned instead; a manual request
// upgrades a waiting sweep job.
func (s *Scheduler) ScheduleRecalculation(eventID uuid.UUID, trigger JobTrigger) (*Job, error) {
	if !trigger.IsValid() {
		return nil, ErrInvalidTrigger
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil, ErrSchedulerNotRunning
	}

	if job, ok := s.waiting[eventID]; ok {
		if trigger == TriggerManual {
			job.Trigger = TriggerManual
		}
		s.logger.Debug("Recalculation already queued",
			zap.String("job_id", job.ID.String()),
			zap.String("event_id", eventID.String()),
		)
		return job, nil
	}

	job := NewJob(eventID, trigger, s.config.RetryAttempts)
	if err := s.enqueueLocked(job); err != nil {
		return nil, err
	}
	return job, nil
}

// Pending returns how many jobs wait for a worker
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiting)
}

func (s *Scheduler) enqueueLocked(job *Job) error {
	select {
	case s.queue <- job:
		s.waiting[job.EventID] = job
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (s *Scheduler) work(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			s.mu.Lock()
			if s.waiting[job.EventID] == job {
				delete(s.waiting, job.EventID)
			}
			s.mu.Unlock()
			s.run(ctx, job)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, job *Job) {
	log := s.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("event_id", job.EventID.String()),
		zap.String("trigger", string(job.Trigger)),
	)

	job.begin(s.now())
	s.record(ctx, job, s.recorderStart)
	log.Info("Recalculation job started", zap.Int("retry", job.RetryCount))

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	err := s.executor.Execute(jobCtx, job)
	cancel()

	job.finish(s.now(), err)
	s.record(ctx, job, s.recorderComplete)
	if err == nil {
		log.Info("Recalculation job succeeded")
		return
	}
	log.Error("Recalculation job failed", zap.Error(err))

	if ctx.Err() != nil || !job.retry() {
		return
	}
	log.Info("Recalculation job will be retried",
		zap.Int("retry", job.RetryCount),
		zap.Duration("delay", s.config.RetryDelay),
	)
	time.AfterFunc(s.config.RetryDelay, func() { s.requeue(job) })
}

// requeue puts a job back after its retry delay, unless a newer job for the
// same event is already waiting
func (s *Scheduler) requeue(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	if _, ok := s.waiting[job.EventID]; ok {
		return
	}
	if err := s.enqueueLocked(job); err != nil {
		s.logger.Warn("Dropped recalculation retry",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Scheduler) recorderStart(ctx context.Context, job *Job) error {
	return s.recorder.RecordJobStart(ctx, job)
}

func (s *Scheduler) recorderComplete(ctx context.Context, job *Job) error {
	return s.recorder.RecordJobComplete(ctx, job)
}

func (s *Scheduler) record(ctx context.Context, job *Job, write func(context.Context, *Job) error) {
	if s.recorder == nil {
		return
	}
	if err := write(ctx, job); err != nil {
		s.logger.Warn("Failed to record job history",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
}
