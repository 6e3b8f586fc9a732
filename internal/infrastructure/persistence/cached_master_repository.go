package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/shared"
)

// GormCachedMasterRepository implements CachedMasterRepository using GORM
type GormCachedMasterRepository struct {
	db *gorm.DB
}

// NewGormCachedMasterRepository creates a new GormCachedMasterRepository
func NewGormCachedMasterRepository(db *gorm.DB) *GormCachedMasterRepository {
	return &GormCachedMasterRepository{db: db}
}

// FindByID finds a cache row by its ID
func (r *GormCachedMasterRepository) FindByID(ctx context.Context, id uuid.UUID) (*master.CachedMaster, error) {
	var row master.CachedMaster
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// FindAll finds cache rows matching the filter
func (r *GormCachedMasterRepository) FindAll(ctx context.Context, filter shared.Filter) ([]master.CachedMaster, error) {
	var rows []master.CachedMaster
	query := r.applyFilter(r.db.WithContext(ctx).Model(&master.CachedMaster{}), filter)

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Save creates or updates a cache row
func (r *GormCachedMasterRepository) Save(ctx context.Context, row *master.CachedMaster) error {
	return r.db.WithContext(ctx).Save(row).Error
}

// Delete deletes a cache row
func (r *GormCachedMasterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&master.CachedMaster{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts cache rows matching the filter
func (r *GormCachedMasterRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&master.CachedMaster{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindActive returns the active row for (kind, name), matching the name
// case-insensitively
func (r *GormCachedMasterRepository) FindActive(ctx context.Context, kind master.Kind, name string) (*master.CachedMaster, error) {
	var row master.CachedMaster
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND LOWER(name) = ? AND is_active = ?", kind, strings.ToLower(name), true).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// UpsertActive inserts or reactivates a row and refreshes its sync timestamp.
// The row is matched case-insensitively so a refresh never duplicates a name
// that only changed casing.
func (r *GormCachedMasterRepository) UpsertActive(ctx context.Context, kind master.Kind, name, parent, source string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row master.CachedMaster
		err := tx.
			Where("kind = ? AND LOWER(name) = ?", kind, strings.ToLower(name)).
			First(&row).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return tx.Create(master.NewCachedMaster(kind, name, parent, source)).Error
		}

		now := time.Now()
		return tx.Model(&master.CachedMaster{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				"name":           name,
				"parent":         parent,
				"is_active":      true,
				"last_synced_at": now,
				"source":         source,
				"updated_at":     now,
			}).Error
	})
}

// MarkAllInactive flags every active row inactive
func (r *GormCachedMasterRepository) MarkAllInactive(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&master.CachedMaster{}).
		Where("is_active = ?", true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkInactiveByKind flags one kind's active rows inactive ahead of
// rewriting that kind from a fresh export
func (r *GormCachedMasterRepository) MarkInactiveByKind(ctx context.Context, kind master.Kind) (int64, error) {
	result := r.db.WithContext(ctx).Model(&master.CachedMaster{}).
		Where("kind = ? AND is_active = ?", kind, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountActiveByKind returns active row counts grouped by kind
func (r *GormCachedMasterRepository) CountActiveByKind(ctx context.Context) (map[master.Kind]int64, error) {
	type kindCount struct {
		Kind  master.Kind
		Count int64
	}

	var rows []kindCount
	if err := r.db.WithContext(ctx).
		Model(&master.CachedMaster{}).
		Select("kind, COUNT(*) as count").
		Where("is_active = ?", true).
		Group("kind").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[master.Kind]int64, len(rows))
	for _, row := range rows {
		counts[row.Kind] = row.Count
	}
	return counts, nil
}

// applyFilter applies filter options to the query
func (r *GormCachedMasterRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering with whitelist validation to prevent SQL injection
	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, CachedMasterSortFields, "")
		if sortField != "" {
			sortOrder := ValidateSortOrder(filter.OrderDir)
			query = query.Order(sortField + " " + sortOrder)
		} else {
			// Default ordering if invalid field
			query = query.Order("kind ASC, name ASC")
		}
	} else {
		query = query.Order("kind ASC, name ASC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormCachedMasterRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "kind":
			query = query.Where("kind = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
		case "source":
			query = query.Where("source = ?", value)
		case "parent":
			query = query.Where("parent = ?", value)
		}
	}

	return query
}

// Ensure GormCachedMasterRepository implements CachedMasterRepository
var _ master.CachedMasterRepository = (*GormCachedMasterRepository)(nil)
