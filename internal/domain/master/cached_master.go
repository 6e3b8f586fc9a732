package master

import (
	"context"
	"time"

	"github.com/tallybridge/backend/internal/domain/shared"
)

// FreshnessTTL is how long a cache row counts as an authoritative answer.
// The nightly refresh rewrites the whole cache, so anything older than a
// day is treated as stale.
const FreshnessTTL = 24 * time.Hour

// Row provenance values for CachedMaster.Source.
const (
	SyncSourceAuto   = "auto"   // written by a bulk refresh
	SyncSourceLive   = "live"   // written back after a single gateway check
	SyncSourceManual = "manual" // seeded by an operator
)

// Answer provenance values for LookupResult.Source.
const (
	SourceCache      = "cache"
	SourceCacheStale = "cache_stale"
	SourceTally      = "tally"
	SourceUnknown    = "unknown"
)

// CachedMaster is one known Tally master, mirrored locally so existence
// checks do not have to round-trip to the gateway.
type CachedMaster struct {
	shared.BaseEntity
	Kind         Kind   `gorm:"type:varchar(32);not null;index:idx_cached_masters_kind_name"`
	Name         string `gorm:"type:varchar(255);not null;index:idx_cached_masters_kind_name"`
	Parent       string `gorm:"type:varchar(255)"`
	IsActive     bool   `gorm:"not null;default:true"`
	LastSyncedAt time.Time
	Source       string `gorm:"type:varchar(16);not null;default:'auto'"`
}

// NewCachedMaster creates an active cache row for a master seen in Tally
func NewCachedMaster(kind Kind, name, parent, source string) *CachedMaster {
	return &CachedMaster{
		BaseEntity:   shared.NewBaseEntity(),
		Kind:         kind,
		Name:         name,
		Parent:       parent,
		IsActive:     true,
		LastSyncedAt: time.Now(),
		Source:       source,
	}
}

// Age returns how long ago the row was last confirmed against Tally
func (m *CachedMaster) Age(now time.Time) time.Duration {
	if m.LastSyncedAt.IsZero() {
		return FreshnessTTL + time.Hour
	}
	return now.Sub(m.LastSyncedAt)
}

// IsFresh reports whether the row is inside the freshness window
func (m *CachedMaster) IsFresh(now time.Time) bool {
	return m.Age(now) < FreshnessTTL
}

// LookupResult is the answer to an existence question, with provenance.
// Success is false only when no confident answer could be produced at all.
type LookupResult struct {
	Exists   bool    `json:"exists"`
	Success  bool    `json:"success"`
	Source   string  `json:"source"`
	Parent   string  `json:"parent,omitempty"`
	AgeHours float64 `json:"age_hours,omitempty"`
}

// RefreshStats reports what a full cache refresh wrote per kind
type RefreshStats struct {
	Counts    map[Kind]int `json:"counts"`
	Total     int          `json:"total"`
	StartedAt time.Time    `json:"started_at"`
	Duration  string       `json:"duration"`
}

// CachedMasterRepository persists the existence cache
type CachedMasterRepository interface {
	shared.Repository[CachedMaster]
	// FindActive returns the active row for (kind, name), matching the
	// name case-insensitively. shared.ErrNotFound when absent.
	FindActive(ctx context.Context, kind Kind, name string) (*CachedMaster, error)
	// UpsertActive inserts or reactivates a row, refreshing its sync
	// timestamp. A second active row for the same (kind, name) must fail.
	UpsertActive(ctx context.Context, kind Kind, name, parent, source string) error
	// MarkAllInactive flags every row inactive
	MarkAllInactive(ctx context.Context) (int64, error)
	// MarkInactiveByKind flags one kind's rows inactive ahead of
	// rewriting that kind from a fresh export
	MarkInactiveByKind(ctx context.Context, kind Kind) (int64, error)
	// CountActiveByKind returns active row counts grouped by kind
	CountActiveByKind(ctx context.Context) (map[Kind]int64, error)
}
