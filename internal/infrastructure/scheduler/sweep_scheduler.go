package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Sweep Job Types
// ---------------------------------------------------------------------------

// SweepJobStatus represents the status of a sweep job
type SweepJobStatus string

const (
	SweepJobStatusPending SweepJobStatus = "PENDING"
	SweepJobStatusRunning SweepJobStatus = "RUNNING"
	SweepJobStatusSuccess SweepJobStatus = "SUCCESS"
	SweepJobStatusSkipped SweepJobStatus = "SKIPPED"
	SweepJobStatusFailed  SweepJobStatus = "FAILED"
)

// SweepJob represents one scheduled sweep of a seller's credentials. The
// detailed per-credential outcome lives in the persisted sync run; the job
// only tracks queue bookkeeping.
type SweepJob struct {
	ID          uuid.UUID
	SellerID    uuid.UUID
	Status      SweepJobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// NewSweepJob creates a new sweep job
func NewSweepJob(sellerID uuid.UUID) *SweepJob {
	return &SweepJob{
		ID:       uuid.New(),
		SellerID: sellerID,
		Status:   SweepJobStatusPending,
	}
}

// Start marks the job as running
func (j *SweepJob) Start() {
	now := time.Now()
	j.Status = SweepJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *SweepJob) Complete() {
	now := time.Now()
	j.Status = SweepJobStatusSuccess
	j.CompletedAt = &now
}

// Skip marks the job as skipped, e.g. when another sweep held the seller lock
func (j *SweepJob) Skip(reason string) {
	now := time.Now()
	j.Status = SweepJobStatusSkipped
	j.CompletedAt = &now
	j.Error = reason
}

// Fail marks the job as failed
func (j *SweepJob) Fail(err string) {
	now := time.Now()
	j.Status = SweepJobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ---------------------------------------------------------------------------
// SweepExecutor Interface
// ---------------------------------------------------------------------------

// SweepExecutor executes sweep jobs
type SweepExecutor interface {
	Execute(ctx context.Context, job *SweepJob) error
}

// ---------------------------------------------------------------------------
// SweepSchedulerConfig
// ---------------------------------------------------------------------------

// SweepSchedulerConfig holds configuration for the sweep scheduler
type SweepSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// MaxConcurrentJobs is the maximum number of sellers swept concurrently
	MaxConcurrentJobs int
	// JobTimeout is the maximum time one seller sweep can run
	JobTimeout time.Duration
}

// DefaultSweepSchedulerConfig returns default configuration
func DefaultSweepSchedulerConfig() SweepSchedulerConfig {
	return SweepSchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 5,
		JobTimeout:        15 * time.Minute,
	}
}

// Validate validates the configuration
func (c *SweepSchedulerConfig) Validate() error {
	if c.MaxConcurrentJobs <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// SweepScheduler
// ---------------------------------------------------------------------------

// SweepScheduler runs a worker pool over queued sweep jobs. Concurrency
// control between instances is the orchestrator's seller lock; the pool only
// bounds how many sellers this instance sweeps at once.
type SweepScheduler struct {
	config   SweepSchedulerConfig
	executor SweepExecutor
	logger   *zap.Logger

	jobs      chan *SweepJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Job history for monitoring (in-memory, limited size)
	historyMu  sync.RWMutex
	history    []*SweepJob
	maxHistory int
}

// NewSweepScheduler creates a new sweep scheduler
func NewSweepScheduler(config SweepSchedulerConfig, executor SweepExecutor, logger *zap.Logger) (*SweepScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &SweepScheduler{
		config:     config,
		executor:   executor,
		logger:     logger,
		jobs:       make(chan *SweepJob, 100),
		history:    make([]*SweepJob, 0, 100),
		maxHistory: 100,
	}, nil
}

// Start starts the scheduler
func (s *SweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Sweep scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *SweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	close(s.jobs)

	// Wait for workers to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sweep scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// SubmitJob submits a job for execution
func (s *SweepScheduler) SubmitJob(job *SweepJob) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	select {
	case s.jobs <- job:
		s.logger.Debug("Sweep job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("seller_id", job.SellerID.String()),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// worker processes jobs from the queue
func (s *SweepScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Sweep worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Sweep worker stopping", zap.Int("worker_id", workerID))
			return
		case job, ok := <-s.jobs:
			if !ok {
				s.logger.Debug("Sweep job channel closed", zap.Int("worker_id", workerID))
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job
func (s *SweepScheduler) processJob(ctx context.Context, job *SweepJob, workerID int) {
	job.Start()
	s.logger.Info("Processing sweep job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("seller_id", job.SellerID.String()),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.executor.Execute(jobCtx, job)
	if err != nil {
		job.Fail(err.Error())
		s.logger.Error("Sweep job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("seller_id", job.SellerID.String()),
			zap.Error(err),
		)
		s.addToHistory(job)
		return
	}

	// The executor may have marked the job as skipped
	if job.Status == SweepJobStatusRunning {
		job.Complete()
	}
	s.logger.Info("Sweep job completed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("seller_id", job.SellerID.String()),
		zap.String("status", string(job.Status)),
	)

	s.addToHistory(job)
}

// addToHistory adds a completed job to history
func (s *SweepScheduler) addToHistory(job *SweepJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*SweepJob{job}, s.history...)

	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetJobHistory returns recent job history
func (s *SweepScheduler) GetJobHistory(limit int) []*SweepJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*SweepJob, limit)
	copy(result, s.history[:limit])
	return result
}

// ScheduleSweep queues a sweep for one seller
func (s *SweepScheduler) ScheduleSweep(sellerID uuid.UUID) error {
	return s.SubmitJob(NewSweepJob(sellerID))
}
