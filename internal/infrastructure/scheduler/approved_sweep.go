package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/application/approval"
	"github.com/tallybridge/backend/internal/domain/request"
)

// ---------------------------------------------------------------------------
// ApprovedSweepConfig
// ---------------------------------------------------------------------------

// ApprovedSweepConfig holds configuration for the stale approval sweep
type ApprovedSweepConfig struct {
	// Interval is how often to scan for stale approved requests
	Interval time.Duration
	// StaleAfter is how long a request may sit in Approved before its
	// creation job is considered lost. Must exceed the job timeout so a
	// request still being worked on is never requeued.
	StaleAfter time.Duration
	// BatchLimit is the maximum number of requests requeued per pass
	BatchLimit int
}

// DefaultApprovedSweepConfig returns default configuration
func DefaultApprovedSweepConfig() ApprovedSweepConfig {
	return ApprovedSweepConfig{
		Interval:   5 * time.Minute,
		StaleAfter: 10 * time.Minute,
		BatchLimit: 50,
	}
}

// Validate validates the configuration
func (c *ApprovedSweepConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.StaleAfter <= 0 {
		return ErrInvalidConfig
	}
	if c.BatchLimit <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// ApprovedSweep
// ---------------------------------------------------------------------------

// ApprovedSweep requeues approved requests whose creation job never ran.
// Enqueueing is lossy on purpose (a full queue or a restart drops jobs,
// not requests), so the sweep is what makes approval eventually stick.
type ApprovedSweep struct {
	config   ApprovedSweepConfig
	requests request.CreationRequestRepository
	enqueuer approval.CreationEnqueuer
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewApprovedSweep creates a new stale approval sweep
func NewApprovedSweep(
	config ApprovedSweepConfig,
	requests request.CreationRequestRepository,
	enqueuer approval.CreationEnqueuer,
	logger *zap.Logger,
) (*ApprovedSweep, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ApprovedSweep{
		config:   config,
		requests: requests,
		enqueuer: enqueuer,
		logger:   logger,
	}, nil
}

// Start starts the sweep
func (s *ApprovedSweep) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Approved request sweep started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("stale_after", s.config.StaleAfter),
	)

	return nil
}

// Stop stops the sweep
func (s *ApprovedSweep) Stop(ctx context.Context) error {
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

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Approved request sweep stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop periodically sweeps for stale approved requests
func (s *ApprovedSweep) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run immediately on start to recover requests stranded by a restart
	s.sweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

// sweepOnce requeues one batch of stale approved requests
func (s *ApprovedSweep) sweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.config.StaleAfter)

	stale, err := s.requests.FindApprovedBefore(ctx, cutoff, s.config.BatchLimit)
	if err != nil {
		s.logger.Error("Stale approval scan failed", zap.Error(err))
		return
	}
	if len(stale) == 0 {
		return
	}

	requeued := 0
	for i := range stale {
		req := &stale[i]
		if err := s.enqueuer.EnqueueCreation(ctx, req.ID); err != nil {
			if errors.Is(err, ErrJobQueueFull) || errors.Is(err, ErrSchedulerNotRunning) {
				// The rest of the batch would hit the same wall
				s.logger.Warn("Stale approval requeue stopped early",
					zap.Int("requeued", requeued),
					zap.Int("remaining", len(stale)-requeued),
					zap.Error(err),
				)
				return
			}
			s.logger.Error("Failed to requeue stale approved request",
				zap.String("request_id", req.ID.String()),
				zap.Error(err),
			)
			continue
		}
		requeued++
	}

	s.logger.Info("Requeued stale approved requests",
		zap.Int("count", requeued),
	)
}
