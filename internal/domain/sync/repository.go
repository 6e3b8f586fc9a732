package sync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tallybridge/backend/internal/domain/shared"
)

// SyncLogRepository defines the interface for transmission log persistence
type SyncLogRepository interface {
	// FindByID finds a sync log by ID
	FindByID(ctx context.Context, id uuid.UUID) (*SyncLog, error)

	// FindAll finds sync logs with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]SyncLog, error)

	// Count counts sync logs matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a sync log
	Save(ctx context.Context, log *SyncLog) error

	// FindNewestForDocument returns the most recent log for a document in
	// one of the given statuses. shared.ErrNotFound when there is none.
	FindNewestForDocument(ctx context.Context, documentType, documentName string, statuses []LogStatus) (*SyncLog, error)

	// CountByStatus returns log counts grouped by status
	CountByStatus(ctx context.Context) (map[LogStatus]int64, error)
}

// RetryJobRepository defines the interface for retry job persistence
type RetryJobRepository interface {
	// FindByID finds a retry job by ID
	FindByID(ctx context.Context, id uuid.UUID) (*RetryJob, error)

	// FindAll finds retry jobs with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]RetryJob, error)

	// Count counts retry jobs matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a retry job
	Save(ctx context.Context, job *RetryJob) error

	// FindDue returns pending jobs whose retry time has passed, oldest
	// first, up to limit
	FindDue(ctx context.Context, now time.Time, limit int) ([]RetryJob, error)

	// HasOpenJob reports whether a pending or in-progress job already
	// covers the document and operation
	HasOpenJob(ctx context.Context, documentType, documentName string, operation JobOperation) (bool, error)
}
