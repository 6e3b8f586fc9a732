package masters

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/shared"
	"github.com/tallybridge/backend/internal/infrastructure/telemetry"
)

// CacheService answers master existence questions. Reads prefer the local
// cache; the live gateway is consulted only when the cache cannot give a
// confident answer.
type CacheService struct {
	cacheRepo master.CachedMasterRepository
	oracle    master.ExistenceOracle
	metrics   *telemetry.BusinessMetrics
	logger    *zap.Logger
}

// NewCacheService creates a new CacheService
func NewCacheService(cacheRepo master.CachedMasterRepository, oracle master.ExistenceOracle, logger *zap.Logger) *CacheService {
	return &CacheService{
		cacheRepo: cacheRepo,
		oracle:    oracle,
		logger:    logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *CacheService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.metrics = bm
}

// RefreshAll rebuilds the cache from bulk collection exports. The gateway
// is pinged first: a refresh must not wipe the active flags when Tally is
// down. Each kind is retired only after its own export arrived, so a kind
// whose export fails keeps its previous active rows. Rows are deactivated
// and reactivated by upsert, never deleted, so concurrent readers keep
// getting answers mid-refresh.
func (s *CacheService) RefreshAll(ctx context.Context) (*master.RefreshStats, error) {
	started := time.Now()

	if err := s.oracle.Ping(ctx); err != nil {
		return nil, fmt.Errorf("cache refresh aborted: %w", err)
	}

	stats := &master.RefreshStats{
		Counts:    make(map[master.Kind]int),
		StartedAt: started,
	}

	var deactivated int64
	for _, kind := range master.AllKinds() {
		records, err := s.oracle.FetchNames(ctx, kind)
		if err != nil {
			// One failing collection must not abort the rest of the
			// refresh, and its rows stay active on the last good state
			s.logger.Warn("collection export failed",
				zap.String("kind", kind.String()),
				zap.Error(err))
			continue
		}

		retired, err := s.cacheRepo.MarkInactiveByKind(ctx, kind)
		if err != nil {
			return nil, err
		}
		deactivated += retired

		count := 0
		for _, rec := range records {
			if err := s.cacheRepo.UpsertActive(ctx, kind, rec.Name, rec.Parent, master.SyncSourceAuto); err != nil {
				s.logger.Error("cache upsert failed",
					zap.String("kind", kind.String()),
					zap.String("name", rec.Name),
					zap.Error(err))
				continue
			}
			count++
		}
		stats.Counts[kind] = count
		stats.Total += count
	}

	stats.Duration = time.Since(started).Round(time.Millisecond).String()
	s.logger.Info("cache refresh finished",
		zap.Int64("deactivated", deactivated),
		zap.Int("total", stats.Total),
		zap.String("duration", stats.Duration))
	return stats, nil
}

// Lookup answers from the cache alone and never touches the network. A
// missing row is a confident miss; a stale row still answers but is flagged
// with its age.
func (s *CacheService) Lookup(ctx context.Context, kind master.Kind, name string) (*master.LookupResult, error) {
	row, err := s.cacheRepo.FindActive(ctx, kind, name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &master.LookupResult{Exists: false, Success: true, Source: master.SourceCache}, nil
		}
		return nil, err
	}

	result := &master.LookupResult{
		Exists:   true,
		Success:  true,
		Source:   master.SourceCache,
		Parent:   row.Parent,
		AgeHours: ageHours(row),
	}
	if !row.IsFresh(time.Now()) {
		result.Source = master.SourceCacheStale
	}
	return result, nil
}

// SmartLookup prefers a fresh cache hit, asks the live gateway otherwise,
// and degrades to the stale cache answer when the gateway cannot answer.
// Only a cache miss with the gateway unreachable yields Success=false.
func (s *CacheService) SmartLookup(ctx context.Context, kind master.Kind, name string) (*master.LookupResult, error) {
	row, err := s.cacheRepo.FindActive(ctx, kind, name)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if row != nil && row.IsFresh(time.Now()) {
		s.recordLookup(ctx, master.SourceCache)
		return &master.LookupResult{
			Exists:  true,
			Success: true,
			Source:  master.SourceCache,
			Parent:  row.Parent,
		}, nil
	}

	live, liveErr := s.oracle.CheckExists(ctx, kind, name)
	if liveErr == nil && live.Success {
		if live.Exists {
			if err := s.cacheRepo.UpsertActive(ctx, kind, name, "", master.SyncSourceLive); err != nil {
				s.logger.Warn("live lookup write-back failed",
					zap.String("kind", kind.String()),
					zap.String("name", name),
					zap.Error(err))
			}
		}
		s.recordLookup(ctx, master.SourceTally)
		return &master.LookupResult{Exists: live.Exists, Success: true, Source: master.SourceTally}, nil
	}

	if liveErr != nil {
		s.logger.Debug("live existence check unavailable",
			zap.String("kind", kind.String()),
			zap.String("name", name),
			zap.Error(liveErr))
	}

	if row != nil {
		s.recordLookup(ctx, master.SourceCacheStale)
		return &master.LookupResult{
			Exists:   true,
			Success:  true,
			Source:   master.SourceCacheStale,
			Parent:   row.Parent,
			AgeHours: ageHours(row),
		}, nil
	}

	s.recordLookup(ctx, master.SourceUnknown)
	return &master.LookupResult{Exists: false, Success: false, Source: master.SourceUnknown}, nil
}

// recordLookup reports where an answer came from to the metrics collector
// when one is attached
func (s *CacheService) recordLookup(ctx context.Context, source string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCacheLookup(ctx, source)
}

// BatchCheck runs SmartLookup over every item. Per-item failures are
// reported in place, never aborting the batch.
func (s *CacheService) BatchCheck(ctx context.Context, items []BatchCheckItem) []BatchCheckResult {
	results := make([]BatchCheckResult, len(items))
	for i, item := range items {
		results[i] = BatchCheckResult{Kind: item.Kind, Name: item.Name}

		if !item.Kind.IsValid() {
			results[i].Error = fmt.Sprintf("unknown master kind '%s'", item.Kind)
			continue
		}

		res, err := s.SmartLookup(ctx, item.Kind, item.Name)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		results[i].Result = res
	}
	return results
}

// SeedManual inserts an operator-provided cache row. Used to pre-load
// masters known to exist before the first full refresh has run.
func (s *CacheService) SeedManual(ctx context.Context, kind master.Kind, name, parent string) error {
	if !kind.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown master kind '%s'", kind))
	}
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Master name cannot be empty")
	}
	return s.cacheRepo.UpsertActive(ctx, kind, name, parent, master.SyncSourceManual)
}

// List returns cache rows for the admin surface and exports
func (s *CacheService) List(ctx context.Context, filter shared.Filter) (shared.Paginated[master.CachedMaster], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	rows, err := s.cacheRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[master.CachedMaster]{}, err
	}
	total, err := s.cacheRepo.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[master.CachedMaster]{}, err
	}
	return shared.NewPaginated(rows, total, filter.Page, filter.PageSize), nil
}

// Stats reports active row counts per kind
func (s *CacheService) Stats(ctx context.Context) (*CacheStats, error) {
	counts, err := s.cacheRepo.CountActiveByKind(ctx)
	if err != nil {
		return nil, err
	}

	stats := &CacheStats{Counts: make(map[string]int64, len(counts))}
	for kind, count := range counts {
		stats.Counts[kind.String()] = count
		stats.Total += count
	}
	return stats, nil
}

// ageHours reports a row's age rounded to one decimal
func ageHours(row *master.CachedMaster) float64 {
	hours := row.Age(time.Now()).Hours()
	return math.Round(hours*10) / 10
}
