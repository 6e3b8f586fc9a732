package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallybridge/backend/internal/domain/shared"
	"github.com/tallybridge/backend/internal/domain/sync"
)

// GormSyncLogRepository implements SyncLogRepository using GORM
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// FindByID finds a sync log by its ID
func (r *GormSyncLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*sync.SyncLog, error) {
	var log sync.SyncLog
	if err := r.db.WithContext(ctx).First(&log, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &log, nil
}

// FindAll finds sync logs matching the filter
func (r *GormSyncLogRepository) FindAll(ctx context.Context, filter shared.Filter) ([]sync.SyncLog, error) {
	var logs []sync.SyncLog
	query := r.applyFilter(r.db.WithContext(ctx).Model(&sync.SyncLog{}), filter)

	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// Count counts sync logs matching the filter
func (r *GormSyncLogRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&sync.SyncLog{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a sync log
func (r *GormSyncLogRepository) Save(ctx context.Context, log *sync.SyncLog) error {
	return r.db.WithContext(ctx).Save(log).Error
}

// FindNewestForDocument returns the most recent log for a document in one of
// the given statuses
func (r *GormSyncLogRepository) FindNewestForDocument(ctx context.Context, documentType, documentName string, statuses []sync.LogStatus) (*sync.SyncLog, error) {
	query := r.db.WithContext(ctx).
		Where("document_type = ? AND document_name = ?", documentType, documentName)
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = s.String()
		}
		query = query.Where("status IN ?", values)
	}

	var log sync.SyncLog
	if err := query.Order("created_at DESC").First(&log).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &log, nil
}

// CountByStatus returns log counts grouped by status
func (r *GormSyncLogRepository) CountByStatus(ctx context.Context) (map[sync.LogStatus]int64, error) {
	type statusCount struct {
		Status sync.LogStatus
		Count  int64
	}

	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&sync.SyncLog{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[sync.LogStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// applyFilter applies filter options to the query
func (r *GormSyncLogRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering with whitelist validation to prevent SQL injection
	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, SyncLogSortFields, "")
		if sortField != "" {
			sortOrder := ValidateSortOrder(filter.OrderDir)
			query = query.Order(sortField + " " + sortOrder)
		} else {
			// Default ordering if invalid field
			query = query.Order("created_at DESC")
		}
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormSyncLogRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("document_name ILIKE ?", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "sync_type":
			query = query.Where("sync_type = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "document_type":
			query = query.Where("document_type = ?", value)
		case "document_name":
			query = query.Where("document_name = ?", value)
		case "error_type":
			query = query.Where("error_type = ?", value)
		case "company":
			query = query.Where("company = ?", value)
		}
	}

	return query
}

// Ensure GormSyncLogRepository implements SyncLogRepository
var _ sync.SyncLogRepository = (*GormSyncLogRepository)(nil)
