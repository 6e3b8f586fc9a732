package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallybridge/backend/internal/domain/shared"
	"github.com/tallybridge/backend/internal/domain/sync"
)

// GormRetryJobRepository implements RetryJobRepository using GORM
type GormRetryJobRepository struct {
	db *gorm.DB
}

// NewGormRetryJobRepository creates a new GormRetryJobRepository
func NewGormRetryJobRepository(db *gorm.DB) *GormRetryJobRepository {
	return &GormRetryJobRepository{db: db}
}

// FindByID finds a retry job by its ID
func (r *GormRetryJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*sync.RetryJob, error) {
	var job sync.RetryJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// FindAll finds retry jobs matching the filter
func (r *GormRetryJobRepository) FindAll(ctx context.Context, filter shared.Filter) ([]sync.RetryJob, error) {
	var jobs []sync.RetryJob
	query := r.applyFilter(r.db.WithContext(ctx).Model(&sync.RetryJob{}), filter)

	if err := query.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Count counts retry jobs matching the filter
func (r *GormRetryJobRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&sync.RetryJob{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a retry job
func (r *GormRetryJobRepository) Save(ctx context.Context, job *sync.RetryJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// FindDue returns pending jobs whose retry time has passed, oldest first
func (r *GormRetryJobRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]sync.RetryJob, error) {
	var jobs []sync.RetryJob
	query := r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at <= ?", sync.JobStatusPending, now).
		Order("next_retry_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// HasOpenJob reports whether a pending or in-progress job already covers the
// document and operation
func (r *GormRetryJobRepository) HasOpenJob(ctx context.Context, documentType, documentName string, operation sync.JobOperation) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&sync.RetryJob{}).
		Where("document_type = ? AND document_name = ? AND operation = ? AND status IN ?",
			documentType, documentName, operation,
			[]sync.JobStatus{sync.JobStatusPending, sync.JobStatusInProgress}).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter options to the query
func (r *GormRetryJobRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering with whitelist validation to prevent SQL injection
	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, RetryJobSortFields, "")
		if sortField != "" {
			sortOrder := ValidateSortOrder(filter.OrderDir)
			query = query.Order(sortField + " " + sortOrder)
		} else {
			// Default ordering if invalid field
			query = query.Order("next_retry_at ASC")
		}
	} else {
		query = query.Order("next_retry_at ASC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormRetryJobRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("document_name ILIKE ?", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "operation":
			query = query.Where("operation = ?", value)
		case "document_type":
			query = query.Where("document_type = ?", value)
		case "document_name":
			query = query.Where("document_name = ?", value)
		}
	}

	return query
}

// Ensure GormRetryJobRepository implements RetryJobRepository
var _ sync.RetryJobRepository = (*GormRetryJobRepository)(nil)
