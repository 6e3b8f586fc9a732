// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the Tally bridge.
// It tracks gateway transmissions, master creation outcomes, and the
// size of the sync backlog.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	transmissionTotal   *Counter
	masterCreationTotal *Counter
	cacheLookupTotal    *Counter

	// Gauge metrics (point-in-time values)
	retryQueueDepth  *Gauge
	openRequestCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	syncProvider SyncMetricsProvider
}

// SyncMetricsProvider provides sync backlog data for periodic metrics
// collection. This interface allows the telemetry layer to query sync
// state without depending on the sync domain directly.
type SyncMetricsProvider interface {
	// GetPendingRetryCount returns the number of retry jobs waiting to run
	GetPendingRetryCount(ctx context.Context) (int64, error)

	// GetOpenRequestCountByStatus returns open creation request counts keyed by status
	GetOpenRequestCountByStatus(ctx context.Context) (map[string]int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	SyncProvider    SyncMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:        cfg.Meter,
		logger:       logger,
		stopChan:     make(chan struct{}),
		syncProvider: cfg.SyncProvider,
	}

	// Initialize counter metrics
	var err error

	// Transmission metrics
	bm.transmissionTotal, err = NewCounter(
		cfg.Meter,
		"tallybridge_transmission_total",
		"Total number of payloads posted to the Tally gateway",
		"{transmissions}",
	)
	if err != nil {
		return nil, err
	}

	// Master creation metrics
	bm.masterCreationTotal, err = NewCounter(
		cfg.Meter,
		"tallybridge_master_creation_total",
		"Total number of master creation runs",
		"{requests}",
	)
	if err != nil {
		return nil, err
	}

	// Existence lookup metrics
	bm.cacheLookupTotal, err = NewCounter(
		cfg.Meter,
		"tallybridge_cache_lookup_total",
		"Total number of master existence lookups",
		"{lookups}",
	)
	if err != nil {
		return nil, err
	}

	// Backlog gauge metrics
	bm.retryQueueDepth, err = NewGauge(
		cfg.Meter,
		"tallybridge_retry_queue_depth",
		"Number of retry jobs waiting to run",
		"{jobs}",
	)
	if err != nil {
		return nil, err
	}

	bm.openRequestCount, err = NewGauge(
		cfg.Meter,
		"tallybridge_open_request_count",
		"Number of creation requests not yet in a terminal state",
		"{requests}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Transmission Metrics
// =============================================================================

// SyncOutcome represents the result of a transmission for metrics labeling.
type SyncOutcome string

const (
	SyncOutcomeSuccess SyncOutcome = "success"
	SyncOutcomeFailed  SyncOutcome = "failed"
)

// RecordTransmission records one gateway send.
// This should be called from the application layer when a payload is posted.
func (bm *BusinessMetrics) RecordTransmission(ctx context.Context, syncType string, outcome SyncOutcome) {
	bm.transmissionTotal.Inc(ctx,
		AttrSyncType.String(syncType),
		AttrOutcome.String(string(outcome)),
	)
}

// =============================================================================
// Master Creation Metrics
// =============================================================================

// CreationOutcome represents the result of a creation run for metrics labeling.
type CreationOutcome string

const (
	CreationOutcomeCreated CreationOutcome = "created"
	CreationOutcomeFailed  CreationOutcome = "failed"
)

// RecordMasterCreation records the outcome of one creation request run.
// This should be called when the router finishes a request.
func (bm *BusinessMetrics) RecordMasterCreation(ctx context.Context, masterType string, outcome CreationOutcome) {
	bm.masterCreationTotal.Inc(ctx,
		AttrMasterType.String(masterType),
		AttrOutcome.String(string(outcome)),
	)
}

// =============================================================================
// Lookup Metrics
// =============================================================================

// RecordCacheLookup records where an existence answer came from.
// Source is the lookup result source (cache, cache_stale, tally, unknown).
func (bm *BusinessMetrics) RecordCacheLookup(ctx context.Context, source string) {
	bm.cacheLookupTotal.Inc(ctx,
		AttrLookupSource.String(source),
	)
}

// =============================================================================
// Backlog Metrics
// =============================================================================

// RecordRetryQueueDepth records the current retry backlog size.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordRetryQueueDepth(ctx context.Context, count int64) {
	bm.retryQueueDepth.Record(ctx, count)
}

// RecordOpenRequests records the number of open creation requests in one status.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordOpenRequests(ctx context.Context, status string, count int64) {
	bm.openRequestCount.Record(ctx, count,
		AttrRequestStatus.String(status),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It samples the sync backlog every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectBacklogMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectBacklogMetrics(ctx)
		}
	}
}

// collectBacklogMetrics samples the retry queue and open request gauges.
func (bm *BusinessMetrics) collectBacklogMetrics(ctx context.Context) {
	if bm.syncProvider == nil {
		bm.logger.Debug("No sync provider configured, skipping backlog metrics collection")
		return
	}

	pending, err := bm.syncProvider.GetPendingRetryCount(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get pending retry count", zap.Error(err))
	} else {
		bm.RecordRetryQueueDepth(ctx, pending)
	}

	byStatus, err := bm.syncProvider.GetOpenRequestCountByStatus(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get open request counts", zap.Error(err))
	} else {
		for status, count := range byStatus {
			bm.RecordOpenRequests(ctx, status, count)
		}
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// =============================================================================
// Attribute Key Constants
// =============================================================================

// Business metrics attribute keys not already defined in metrics.go
var (
	AttrLookupSource = attribute.Key("lookup_source")
)
