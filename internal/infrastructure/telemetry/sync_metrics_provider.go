// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormSyncMetricsProvider implements SyncMetricsProvider using GORM.
// It queries the retry_jobs and creation_requests tables directly for
// aggregated backlog figures.
type GormSyncMetricsProvider struct {
	db *gorm.DB
}

// NewGormSyncMetricsProvider creates a new GormSyncMetricsProvider.
func NewGormSyncMetricsProvider(db *gorm.DB) *GormSyncMetricsProvider {
	return &GormSyncMetricsProvider{db: db}
}

// GetPendingRetryCount returns the number of retry jobs waiting to run.
func (p *GormSyncMetricsProvider) GetPendingRetryCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("retry_jobs").
		Where("status = ?", "Pending").
		Count(&count).Error

	return count, err
}

// GetOpenRequestCountByStatus returns open creation request counts keyed by status.
func (p *GormSyncMetricsProvider) GetOpenRequestCountByStatus(ctx context.Context) (map[string]int64, error) {
	type result struct {
		Status string `gorm:"column:status"`
		Total  int64  `gorm:"column:total"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("creation_requests").
		Select("status, COUNT(*) as total").
		Where("status IN ?", []string{"Pending Approval", "Approved", "In Progress"}).
		Group("status").
		Find(&results).Error

	if err != nil {
		return nil, err
	}

	m := make(map[string]int64, len(results))
	for _, r := range results {
		m[r.Status] = r.Total
	}

	return m, nil
}
