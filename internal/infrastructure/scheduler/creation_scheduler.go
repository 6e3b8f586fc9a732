package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/application/approval"
)

// ---------------------------------------------------------------------------
// Creation Job Types
// ---------------------------------------------------------------------------

// CreationJobStatus represents the status of a master creation job
type CreationJobStatus string

const (
	CreationJobStatusPending CreationJobStatus = "PENDING"
	CreationJobStatusRunning CreationJobStatus = "RUNNING"
	CreationJobStatusSuccess CreationJobStatus = "SUCCESS"
	CreationJobStatusFailed  CreationJobStatus = "FAILED"
)

// CreationJob represents one queued push of an approved request to Tally.
// Failed jobs are not requeued in memory; the router records the failure
// on the request and the persistent retry scan owns redelivery.
type CreationJob struct {
	ID          uuid.UUID
	RequestID   uuid.UUID
	Status      CreationJobStatus
	Error       string
	EnqueuedAt  time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// NewCreationJob creates a new creation job for a request
func NewCreationJob(requestID uuid.UUID) *CreationJob {
	return &CreationJob{
		ID:         uuid.New(),
		RequestID:  requestID,
		Status:     CreationJobStatusPending,
		EnqueuedAt: time.Now(),
	}
}

// Start marks the job as running
func (j *CreationJob) Start() {
	now := time.Now()
	j.Status = CreationJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *CreationJob) Complete() {
	now := time.Now()
	j.Status = CreationJobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *CreationJob) Fail(err string) {
	now := time.Now()
	j.Status = CreationJobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ---------------------------------------------------------------------------
// CreationProcessor Interface
// ---------------------------------------------------------------------------

// CreationProcessor runs the remote creation for one approved request.
// Process is idempotent for requeues: requests that are no longer eligible
// or already locked by another worker are skipped, not failed.
type CreationProcessor interface {
	Process(ctx context.Context, requestID uuid.UUID) error
}

// ---------------------------------------------------------------------------
// CreationSchedulerConfig
// ---------------------------------------------------------------------------

// CreationSchedulerConfig holds configuration for the creation worker pool
type CreationSchedulerConfig struct {
	// Workers is the number of concurrent creation workers
	Workers int
	// QueueSize is the capacity of the pending job queue
	QueueSize int
	// JobTimeout is the maximum time a single creation can run
	JobTimeout time.Duration
}

// DefaultCreationSchedulerConfig returns default configuration
func DefaultCreationSchedulerConfig() CreationSchedulerConfig {
	return CreationSchedulerConfig{
		Workers:    4,
		QueueSize:  100,
		JobTimeout: 5 * time.Minute,
	}
}

// Validate validates the configuration
func (c *CreationSchedulerConfig) Validate() error {
	if c.Workers <= 0 {
		return ErrInvalidConfig
	}
	if c.QueueSize <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// CreationScheduler
// ---------------------------------------------------------------------------

// CreationScheduler runs approved creation requests through a bounded
// worker pool so approval never blocks on the Tally call
type CreationScheduler struct {
	config    CreationSchedulerConfig
	processor CreationProcessor
	logger    *zap.Logger

	jobs      chan *CreationJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Job history for monitoring (in-memory, limited size)
	historyMu  sync.RWMutex
	history    []*CreationJob
	maxHistory int
}

var _ approval.CreationEnqueuer = (*CreationScheduler)(nil)

// NewCreationScheduler creates a new creation scheduler
func NewCreationScheduler(config CreationSchedulerConfig, processor CreationProcessor, logger *zap.Logger) (*CreationScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &CreationScheduler{
		config:     config,
		processor:  processor,
		logger:     logger,
		jobs:       make(chan *CreationJob, config.QueueSize),
		history:    make([]*CreationJob, 0, 100),
		maxHistory: 100,
	}, nil
}

// Start starts the scheduler
func (s *CreationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	// Start worker pool
	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Creation scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Int("queue_size", s.config.QueueSize),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *CreationScheduler) Stop(ctx context.Context) error {
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

	// Close job channel
	close(s.jobs)

	// Wait for workers to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Creation scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Creation scheduler stop timed out")
		return ctx.Err()
	}
}

// EnqueueCreation queues the remote creation of an approved request.
// It never blocks: a full queue is reported as an error and the stale
// approval sweep picks the request up later.
func (s *CreationScheduler) EnqueueCreation(ctx context.Context, requestID uuid.UUID) error {
	return s.SubmitJob(NewCreationJob(requestID))
}

// SubmitJob submits a job for execution
func (s *CreationScheduler) SubmitJob(job *CreationJob) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	select {
	case s.jobs <- job:
		s.logger.Debug("Creation job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("request_id", job.RequestID.String()),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// worker processes jobs from the queue
func (s *CreationScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Creation worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Creation worker stopping", zap.Int("worker_id", workerID))
			return
		case job, ok := <-s.jobs:
			if !ok {
				s.logger.Debug("Creation job channel closed", zap.Int("worker_id", workerID))
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job
func (s *CreationScheduler) processJob(ctx context.Context, job *CreationJob, workerID int) {
	job.Start()
	s.logger.Info("Processing creation job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("request_id", job.RequestID.String()),
	)

	// Create context with timeout
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.processor.Process(jobCtx, job.RequestID)
	if err != nil {
		job.Fail(err.Error())
		s.logger.Error("Creation job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("request_id", job.RequestID.String()),
			zap.Error(err),
		)
		s.addToHistory(job)
		return
	}

	job.Complete()
	s.logger.Info("Creation job completed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("request_id", job.RequestID.String()),
		zap.Duration("elapsed", job.CompletedAt.Sub(*job.StartedAt)),
	)

	s.addToHistory(job)
}

// addToHistory adds a completed job to history
func (s *CreationScheduler) addToHistory(job *CreationJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	// Add to front
	s.history = append([]*CreationJob{job}, s.history...)

	// Trim if over limit
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetJobHistory returns recent job history
func (s *CreationScheduler) GetJobHistory(limit int) []*CreationJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*CreationJob, limit)
	copy(result, s.history[:limit])
	return result
}
