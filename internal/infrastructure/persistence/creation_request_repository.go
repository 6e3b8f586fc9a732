package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/request"
	"github.com/tallybridge/backend/internal/domain/shared"
)

// priorityOrderExpr sorts urgent-first. Priorities are stored as words, so
// the queue order has to be spelled out.
const priorityOrderExpr = "CASE priority " +
	"WHEN 'Urgent' THEN 4 " +
	"WHEN 'High' THEN 3 " +
	"WHEN 'Normal' THEN 2 " +
	"WHEN 'Low' THEN 1 " +
	"ELSE 0 END DESC, request_date ASC"

// GormCreationRequestRepository implements CreationRequestRepository using GORM
type GormCreationRequestRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormCreationRequestRepository creates a new GormCreationRequestRepository
func NewGormCreationRequestRepository(db *gorm.DB) *GormCreationRequestRepository {
	return &GormCreationRequestRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormCreationRequestRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a request by its ID
func (r *GormCreationRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*request.CreationRequest, error) {
	var req request.CreationRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindAll finds requests matching the filter
func (r *GormCreationRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]request.CreationRequest, error) {
	var reqs []request.CreationRequest
	query := r.applyFilter(r.db.WithContext(ctx).Model(&request.CreationRequest{}), filter)

	if err := query.Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// Count counts requests matching the filter
func (r *GormCreationRequestRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&request.CreationRequest{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a request
func (r *GormCreationRequestRepository) Save(ctx context.Context, req *request.CreationRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormCreationRequestRepository) SaveWithLock(ctx context.Context, req *request.CreationRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.saveWithLockTx(tx, req)
	})
}

// SaveWithLockAndEvents saves with optimistic locking and persists domain
// events to the outbox in the same transaction
func (r *GormCreationRequestRepository) SaveWithLockAndEvents(ctx context.Context, req *request.CreationRequest, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.saveWithLockTx(tx, req); err != nil {
			return err
		}

		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return fmt.Errorf("failed to save events to outbox: %w", err)
			}
		}

		return nil
	})
}

// saveWithLockTx performs the version-checked save inside a transaction.
// Unseen aggregates are inserted; the partial unique index on open requests
// turns a concurrent duplicate insert into an error here.
func (r *GormCreationRequestRepository) saveWithLockTx(tx *gorm.DB, req *request.CreationRequest) error {
	var currentVersion int
	err := tx.Model(&request.CreationRequest{}).
		Where("id = ?", req.ID).
		Select("version").
		Take(&currentVersion).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(req).Error
	}
	if err != nil {
		return err
	}

	if currentVersion != req.Version {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The request has been modified by another user")
	}

	req.Version++
	req.UpdatedAt = time.Now()

	result := tx.Model(&request.CreationRequest{}).
		Where("id = ? AND version = ?", req.ID, currentVersion).
		Updates(map[string]interface{}{
			"master_name":          req.MasterName,
			"parent_group":         req.ParentGroup,
			"priority":             req.Priority,
			"status":               req.Status,
			"assigned_to":          req.AssignedTo,
			"approved_by":          req.ApprovedBy,
			"approval_date":        req.ApprovalDate,
			"modified_name":        req.ModifiedName,
			"modified_parent":      req.ModifiedParent,
			"rejected_by":          req.RejectedBy,
			"rejection_date":       req.RejectionDate,
			"rejection_reason":     req.RejectionReason,
			"tally_master_created": req.TallyMasterCreated,
			"created_in_tally_at":  req.CreatedInTallyAt,
			"sync_log_id":          req.SyncLogID,
			"sync_error":           req.SyncError,
			"notification_history": req.NotificationHistory,
			"version":              req.Version,
			"updated_at":           req.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The request has been modified by another user")
	}
	return nil
}

// Delete deletes a request
func (r *GormCreationRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&request.CreationRequest{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindOpenForMaster returns the open request covering the same master for a
// source document
func (r *GormCreationRequestRepository) FindOpenForMaster(ctx context.Context, masterType master.Type, sourceDocument, masterName string) (*request.CreationRequest, error) {
	var req request.CreationRequest
	if err := r.db.WithContext(ctx).
		Where("master_type = ? AND source_document = ? AND master_name = ? AND status IN ?",
			masterType, sourceDocument, masterName, openStatusValues()).
		Order("request_date ASC").
		First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindPendingForApprover lists Pending Approval requests assigned to an
// approver, ordered urgent-first then oldest-first
func (r *GormCreationRequestRepository) FindPendingForApprover(ctx context.Context, approver string, filter shared.Filter) ([]request.CreationRequest, int64, error) {
	base := r.db.WithContext(ctx).Model(&request.CreationRequest{}).
		Where("status = ?", request.StatusPendingApproval)
	if approver != "" {
		base = base.Where("assigned_to = ?", approver)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Order(priorityOrderExpr)
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var reqs []request.CreationRequest
	if err := query.Find(&reqs).Error; err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

// CountOpenByAssignee returns open request counts per assignee
func (r *GormCreationRequestRepository) CountOpenByAssignee(ctx context.Context) (map[string]int64, error) {
	type assigneeCount struct {
		AssignedTo string
		Count      int64
	}

	var rows []assigneeCount
	if err := r.db.WithContext(ctx).
		Model(&request.CreationRequest{}).
		Select("assigned_to, COUNT(*) as count").
		Where("status IN ? AND assigned_to <> ''", openStatusValues()).
		Group("assigned_to").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.AssignedTo] = row.Count
	}
	return counts, nil
}

// CountByStatus counts requests in a given status
func (r *GormCreationRequestRepository) CountByStatus(ctx context.Context, status request.RequestStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&request.CreationRequest{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindApprovedBefore returns Approved requests whose approval is older than
// the cutoff, oldest first
func (r *GormCreationRequestRepository) FindApprovedBefore(ctx context.Context, cutoff time.Time, limit int) ([]request.CreationRequest, error) {
	var requests []request.CreationRequest
	query := r.db.WithContext(ctx).
		Where("status = ? AND approval_date < ?", request.StatusApproved, cutoff).
		Order("approval_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// openStatusValues returns the open statuses as plain strings for IN clauses
func openStatusValues() []string {
	open := request.OpenStatuses()
	values := make([]string, len(open))
	for i, s := range open {
		values[i] = s.String()
	}
	return values
}

// applyFilter applies filter options to the query
func (r *GormCreationRequestRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering with whitelist validation to prevent SQL injection
	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, CreationRequestSortFields, "")
		if sortField != "" {
			sortOrder := ValidateSortOrder(filter.OrderDir)
			query = query.Order(sortField + " " + sortOrder)
		} else {
			// Default ordering if invalid field
			query = query.Order(priorityOrderExpr)
		}
	} else {
		query = query.Order(priorityOrderExpr)
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormCreationRequestRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("master_name ILIKE ? OR source_document ILIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "master_type":
			query = query.Where("master_type = ?", value)
		case "priority":
			query = query.Where("priority = ?", value)
		case "requested_by":
			query = query.Where("requested_by = ?", value)
		case "assigned_to":
			query = query.Where("assigned_to = ?", value)
		case "source_document":
			query = query.Where("source_document = ?", value)
		case "open":
			if value == true {
				query = query.Where("status IN ?", openStatusValues())
			}
		}
	}

	return query
}

// Ensure GormCreationRequestRepository implements CreationRequestRepository
var _ request.CreationRequestRepository = (*GormCreationRequestRepository)(nil)
