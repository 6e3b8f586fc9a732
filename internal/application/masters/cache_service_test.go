package masters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tallybridge/backend/internal/domain/erp"
	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/shared"
	"github.com/tallybridge/backend/internal/infrastructure/persistence"
)

// fakeOracle scripts gateway answers. An unscripted name is a confident
// miss; checkErr makes the gateway unreachable for single checks.
type fakeOracle struct {
	pingErr    error
	names      map[master.Kind][]master.NameRecord
	fetchErr   map[master.Kind]error
	existing   map[string]master.ExistenceResult
	checkErr   error
	checkCalls int
}

func oracleKey(kind master.Kind, name string) string {
	return kind.String() + "/" + name
}

func (f *fakeOracle) CheckExists(_ context.Context, kind master.Kind, name string) (master.ExistenceResult, error) {
	f.checkCalls++
	if f.checkErr != nil {
		return master.ExistenceResult{}, f.checkErr
	}
	if res, ok := f.existing[oracleKey(kind, name)]; ok {
		return res, nil
	}
	return master.ExistenceResult{Exists: false, Success: true}, nil
}

func (f *fakeOracle) FetchNames(_ context.Context, kind master.Kind) ([]master.NameRecord, error) {
	if err := f.fetchErr[kind]; err != nil {
		return nil, err
	}
	return f.names[kind], nil
}

func (f *fakeOracle) Ping(context.Context) error {
	return f.pingErr
}

var _ master.ExistenceOracle = (*fakeOracle)(nil)

// openTestDB opens an in-memory SQLite database with the tables the
// masters services touch.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&master.CachedMaster{},
		&erp.Customer{},
		&erp.Supplier{},
		&erp.Item{},
		&erp.Account{},
		&erp.SalesInvoice{},
		&erp.TransactionDocument{},
	)
	require.NoError(t, err)
	return db
}

func newCacheService(t *testing.T, oracle *fakeOracle) (*CacheService, master.CachedMasterRepository) {
	t.Helper()
	repo := persistence.NewGormCachedMasterRepository(openTestDB(t))
	return NewCacheService(repo, oracle, zap.NewNop()), repo
}

// seedCacheRow saves an active cache row last synced `age` ago
func seedCacheRow(t *testing.T, repo master.CachedMasterRepository, kind master.Kind, name, parent string, age time.Duration) {
	t.Helper()
	row := master.NewCachedMaster(kind, name, parent, master.SyncSourceAuto)
	row.LastSyncedAt = time.Now().Add(-age)
	require.NoError(t, repo.Save(context.Background(), row))
}

func TestCacheServiceRefreshAll(t *testing.T) {
	ctx := context.Background()

	t.Run("rebuilds the cache and reports per kind counts", func(t *testing.T) {
		oracle := &fakeOracle{names: map[master.Kind][]master.NameRecord{
			master.KindLedger: {
				{Name: "Acme Industries", Parent: "Sundry Debtors"},
				{Name: "CGST Output", Parent: "Duties & Taxes"},
			},
			master.KindStockItem: {{Name: "Steel Rod 8mm", Parent: "Raw Materials"}},
		}}
		svc, repo := newCacheService(t, oracle)

		// A master that vanished from Tally since the last refresh
		seedCacheRow(t, repo, master.KindLedger, "Old Timer", "", time.Hour)

		stats, err := svc.RefreshAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Counts[master.KindLedger])
		assert.Equal(t, 1, stats.Counts[master.KindStockItem])
		assert.Equal(t, 3, stats.Total)

		row, err := repo.FindActive(ctx, master.KindLedger, "Acme Industries")
		require.NoError(t, err)
		assert.Equal(t, "Sundry Debtors", row.Parent)
		assert.Equal(t, master.SyncSourceAuto, row.Source)

		_, err = repo.FindActive(ctx, master.KindLedger, "Old Timer")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("refreshing twice leaves one active row per master", func(t *testing.T) {
		oracle := &fakeOracle{names: map[master.Kind][]master.NameRecord{
			master.KindGroup: {{Name: "Sundry Debtors", Parent: "Current Assets"}},
		}}
		svc, repo := newCacheService(t, oracle)

		_, err := svc.RefreshAll(ctx)
		require.NoError(t, err)
		_, err = svc.RefreshAll(ctx)
		require.NoError(t, err)

		counts, err := repo.CountActiveByKind(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts[master.KindGroup])
	})

	t.Run("aborts before touching rows when the gateway is down", func(t *testing.T) {
		oracle := &fakeOracle{pingErr: errors.New("connection refused")}
		svc, repo := newCacheService(t, oracle)
		seedCacheRow(t, repo, master.KindLedger, "Acme Industries", "", time.Hour)

		_, err := svc.RefreshAll(ctx)
		require.Error(t, err)

		// The outage must not wipe the active flags
		_, err = repo.FindActive(ctx, master.KindLedger, "Acme Industries")
		assert.NoError(t, err)
	})

	t.Run("continues past a failing collection", func(t *testing.T) {
		oracle := &fakeOracle{
			names:    map[master.Kind][]master.NameRecord{master.KindGroup: {{Name: "Primary"}}},
			fetchErr: map[master.Kind]error{master.KindLedger: errors.New("truncated response")},
		}
		svc, repo := newCacheService(t, oracle)
		seedCacheRow(t, repo, master.KindLedger, "Acme Industries", "Sundry Debtors", time.Hour)

		stats, err := svc.RefreshAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Counts[master.KindGroup])
		assert.Zero(t, stats.Counts[master.KindLedger])

		// The kind whose export failed keeps its last good rows active
		row, err := repo.FindActive(ctx, master.KindLedger, "Acme Industries")
		require.NoError(t, err)
		assert.True(t, row.IsActive)
	})
}

func TestCacheServiceLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("miss is a confident negative", func(t *testing.T) {
		svc, _ := newCacheService(t, &fakeOracle{})

		res, err := svc.Lookup(ctx, master.KindLedger, "Nobody")
		require.NoError(t, err)
		assert.False(t, res.Exists)
		assert.True(t, res.Success)
		assert.Equal(t, master.SourceCache, res.Source)
	})

	t.Run("fresh hit carries the parent", func(t *testing.T) {
		oracle := &fakeOracle{}
		svc, repo := newCacheService(t, oracle)
		seedCacheRow(t, repo, master.KindLedger, "Acme Industries", "Sundry Debtors", time.Hour)

		res, err := svc.Lookup(ctx, master.KindLedger, "Acme Industries")
		require.NoError(t, err)
		assert.True(t, res.Exists)
		assert.Equal(t, master.SourceCache, res.Source)
		assert.Equal(t, "Sundry Debtors", res.Parent)
		// Never touches the gateway
		assert.Zero(t, oracle.checkCalls)
	})

	t.Run("stale hit is flagged with its age", func(t *testing.T) {
		svc, repo := newCacheService(t, &fakeOracle{})
		seedCacheRow(t, repo, master.KindLedger, "Acme Industries", "", 30*time.Hour)

		res, err := svc.Lookup(ctx, master.KindLedger, "Acme Industries")
		require.NoError(t, err)
		assert.True(t, res.Exists)
		assert.Equal(t, master.SourceCacheStale, res.Source)
		assert.Greater(t, res.AgeHours, 24.0)
	})
}

func TestCacheServiceSmartLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh cache hit skips the gateway", func(t *testing.T) {
		oracle := &fakeOracle{}
		svc, repo := newCacheService(t, oracle)
		seedCacheRow(t, repo, master.KindLedger, "Acme Industries", "Sundry Debtors", time.Hour)

		res, err := svc.SmartLookup(ctx, master.KindLedger, "Acme Industries")
		require.NoError(t, err)
		assert.True(t, res.Exists)
		assert.Equal(t, master.SourceCache, res.Source)
		assert.Zero(t, oracle.checkCalls)
	})

	t.Run("live hit is written back to the cache", func(t *testing.T) {
		oracle := &fakeOracle{existing: map[string]master.ExistenceResult{
			oracleKey(master.KindLedger, "Acme Industries"): {Exists: true, Success: true},
		}}
		svc, repo := newCacheService(t, oracle)

		res, err := svc.SmartLookup(ctx, master.KindLedger, "Acme Industries")
		require.NoError(t, err)
		assert.True(t, res.Exists)
		assert.True(t, res.Success)
		assert.Equal(t, master.SourceTally, res.Source)

		row, err := repo.FindActive(ctx, master.KindLedger, "Acme Industries")
		require.NoError(t, err)
		assert.Equal(t, master.SyncSourceLive, row.Source)
	})

	t.Run("live miss stays a confident negative", func(t *testing.T) {
		svc, repo := newCacheService(t, &fakeOracle{})

		res, err := svc.SmartLookup(ctx, master.KindLedger, "Nobody")
		require.NoError(t, err)
		assert.False(t, res.Exists)
		assert.True(t, res.Success)
		assert.Equal(t, master.SourceTally, res.Source)

		_, err = repo.FindActive(ctx, master.KindLedger, "Nobody")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("stale row answers when the gateway is unreachable", func(t *testing.T) {
		oracle := &fakeOracle{checkErr: errors.New("connection refused")}
		svc, repo := newCacheService(t, oracle)
		seedCacheRow(t, repo, master.KindLedger, "Acme Industries", "Sundry Debtors", 48*time.Hour)

		res, err := svc.SmartLookup(ctx, master.KindLedger, "Acme Industries")
		require.NoError(t, err)
		assert.True(t, res.Exists)
		assert.True(t, res.Success)
		assert.Equal(t, master.SourceCacheStale, res.Source)
		assert.Greater(t, res.AgeHours, 24.0)
	})

	t.Run("cache miss with the gateway down is unknown, not a miss", func(t *testing.T) {
		oracle := &fakeOracle{checkErr: errors.New("connection refused")}
		svc, _ := newCacheService(t, oracle)

		res, err := svc.SmartLookup(ctx, master.KindLedger, "Nobody")
		require.NoError(t, err)
		assert.False(t, res.Exists)
		assert.False(t, res.Success)
		assert.Equal(t, master.SourceUnknown, res.Source)
	})

	t.Run("gateway answer with success false falls back to stale", func(t *testing.T) {
		oracle := &fakeOracle{existing: map[string]master.ExistenceResult{
			oracleKey(master.KindLedger, "Acme Industries"): {Exists: false, Success: false},
		}}
		svc, repo := newCacheService(t, oracle)
		seedCacheRow(t, repo, master.KindLedger, "Acme Industries", "", 30*time.Hour)

		res, err := svc.SmartLookup(ctx, master.KindLedger, "Acme Industries")
		require.NoError(t, err)
		assert.True(t, res.Exists)
		assert.Equal(t, master.SourceCacheStale, res.Source)
	})
}

func TestCacheServiceBatchCheck(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{existing: map[string]master.ExistenceResult{
		oracleKey(master.KindLedger, "Acme Industries"): {Exists: true, Success: true},
	}}
	svc, _ := newCacheService(t, oracle)

	results := svc.BatchCheck(ctx, []BatchCheckItem{
		{Kind: master.KindLedger, Name: "Acme Industries"},
		{Kind: master.KindStockItem, Name: "Steel Rod 8mm"},
		{Kind: master.Kind("Bogus"), Name: "whatever"},
	})

	require.Len(t, results, 3)
	assert.True(t, results[0].Result.Exists)
	assert.False(t, results[1].Result.Exists)
	assert.Empty(t, results[1].Error)
	assert.Nil(t, results[2].Result)
	assert.Contains(t, results[2].Error, "unknown master kind")
}

func TestCacheServiceSeedManualAndStats(t *testing.T) {
	ctx := context.Background()
	svc, repo := newCacheService(t, &fakeOracle{})

	require.NoError(t, svc.SeedManual(ctx, master.KindGodown, "Main Location", ""))
	require.NoError(t, svc.SeedManual(ctx, master.KindLedger, "Round Off", "Indirect Expenses"))

	row, err := repo.FindActive(ctx, master.KindGodown, "Main Location")
	require.NoError(t, err)
	assert.Equal(t, master.SyncSourceManual, row.Source)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Counts[master.KindGodown.String()])
	assert.Equal(t, int64(2), stats.Total)

	assert.Error(t, svc.SeedManual(ctx, master.Kind("Bogus"), "x", ""))
	assert.Error(t, svc.SeedManual(ctx, master.KindLedger, "", ""))
}
