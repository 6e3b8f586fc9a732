package tallysync

import (
	"context"

	"github.com/google/uuid"

	"github.com/tallybridge/backend/internal/domain/shared"
	"github.com/tallybridge/backend/internal/domain/sync"
)

// SyncLogService answers queries over transmission logs and retry jobs
type SyncLogService struct {
	syncLogs sync.SyncLogRepository
	retries  sync.RetryJobRepository
}

// NewSyncLogService creates a sync log service
func NewSyncLogService(syncLogs sync.SyncLogRepository, retries sync.RetryJobRepository) *SyncLogService {
	return &SyncLogService{syncLogs: syncLogs, retries: retries}
}

// List returns transmission logs matching the filter
func (s *SyncLogService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[SyncLogResponse], error) {
	normalizePaging(&filter)

	logs, err := s.syncLogs.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.syncLogs.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]SyncLogResponse, 0, len(logs))
	for i := range logs {
		items = append(items, ToSyncLogResponse(&logs[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Detail returns one transmission log with its verbatim payloads
func (s *SyncLogService) Detail(ctx context.Context, id uuid.UUID) (*SyncLogDetail, error) {
	log, err := s.syncLogs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SyncLogDetail{
		SyncLogResponse: ToSyncLogResponse(log),
		RequestXML:      log.RequestXML,
		ResponseXML:     log.ResponseXML,
	}, nil
}

// Stats summarizes transmissions per status
func (s *SyncLogService) Stats(ctx context.Context) (*SyncLogStats, error) {
	counts, err := s.syncLogs.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &SyncLogStats{Counts: make(map[string]int64, len(counts))}
	for status, n := range counts {
		stats.Counts[status.String()] = n
		stats.Total += n
	}
	return stats, nil
}

// ListRetryJobs returns retry jobs matching the filter
func (s *SyncLogService) ListRetryJobs(ctx context.Context, filter shared.Filter) (*shared.Paginated[RetryJobResponse], error) {
	normalizePaging(&filter)

	jobs, err := s.retries.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.retries.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]RetryJobResponse, 0, len(jobs))
	for i := range jobs {
		items = append(items, ToRetryJobResponse(&jobs[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

func normalizePaging(filter *shared.Filter) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
}
