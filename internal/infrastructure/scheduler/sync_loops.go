package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/application/tallysync"
	"github.com/tallybridge/backend/internal/domain/master"
)

// ---------------------------------------------------------------------------
// Cache Refresh Loop
// ---------------------------------------------------------------------------

// CacheRefresher rebuilds the existence cache from the live Tally state
type CacheRefresher interface {
	RefreshAll(ctx context.Context) (*master.RefreshStats, error)
}

// CacheRefreshLoop periodically rebuilds the existence cache so that
// stale hits age out even when nothing touches the misses
type CacheRefreshLoop struct {
	interval  time.Duration
	refresher CacheRefresher
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewCacheRefreshLoop creates a new cache refresh loop
func NewCacheRefreshLoop(interval time.Duration, refresher CacheRefresher, logger *zap.Logger) *CacheRefreshLoop {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &CacheRefreshLoop{
		interval:  interval,
		refresher: refresher,
		logger:    logger,
	}
}

// Start starts the refresh loop
func (l *CacheRefreshLoop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.isRunning {
		l.mu.Unlock()
		return nil
	}
	l.isRunning = true
	l.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	l.wg.Add(1)
	go l.runLoop(ctx)

	l.logger.Info("Cache refresh loop started",
		zap.Duration("interval", l.interval),
	)

	return nil
}

// Stop stops the refresh loop
func (l *CacheRefreshLoop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.isRunning {
		l.mu.Unlock()
		return nil
	}
	l.isRunning = false
	l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.Info("Cache refresh loop stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop periodically refreshes the cache
func (l *CacheRefreshLoop) runLoop(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	// Run immediately on start
	l.refreshOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.refreshOnce(ctx)
		}
	}
}

// refreshOnce runs a single full refresh
func (l *CacheRefreshLoop) refreshOnce(ctx context.Context) {
	stats, err := l.refresher.RefreshAll(ctx)
	if err != nil {
		// The old cache rows stay active until a refresh succeeds
		l.logger.Error("Scheduled cache refresh failed", zap.Error(err))
		return
	}

	l.logger.Info("Scheduled cache refresh completed",
		zap.Int("total", stats.Total),
		zap.String("duration", stats.Duration),
	)
}

// ---------------------------------------------------------------------------
// Retry Scan Loop
// ---------------------------------------------------------------------------

// RetryScanner runs one pass over the due retry jobs
type RetryScanner interface {
	ProcessDue(ctx context.Context) (*tallysync.RetryRunReport, error)
}

// RetryScanLoop periodically picks up due retry jobs and replays them
type RetryScanLoop struct {
	interval time.Duration
	scanner  RetryScanner
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewRetryScanLoop creates a new retry scan loop
func NewRetryScanLoop(interval time.Duration, scanner RetryScanner, logger *zap.Logger) *RetryScanLoop {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RetryScanLoop{
		interval: interval,
		scanner:  scanner,
		logger:   logger,
	}
}

// Start starts the scan loop
func (l *RetryScanLoop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.isRunning {
		l.mu.Unlock()
		return nil
	}
	l.isRunning = true
	l.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	l.wg.Add(1)
	go l.runLoop(ctx)

	l.logger.Info("Retry scan loop started",
		zap.Duration("interval", l.interval),
	)

	return nil
}

// Stop stops the scan loop
func (l *RetryScanLoop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.isRunning {
		l.mu.Unlock()
		return nil
	}
	l.isRunning = false
	l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.Info("Retry scan loop stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop periodically scans for due retry jobs
func (l *RetryScanLoop) runLoop(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	// Run immediately on start
	l.scanOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.scanOnce(ctx)
		}
	}
}

// scanOnce runs a single pass over the due jobs
func (l *RetryScanLoop) scanOnce(ctx context.Context) {
	report, err := l.scanner.ProcessDue(ctx)
	if err != nil {
		l.logger.Error("Retry scan failed", zap.Error(err))
		return
	}

	if report.Scanned == 0 {
		return
	}

	l.logger.Info("Retry scan completed",
		zap.Int("scanned", report.Scanned),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("requeued", report.Requeued),
		zap.Int("exhausted", report.Exhausted),
	)
}
