package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tallybridge/backend/internal/domain/erp"
	"github.com/tallybridge/backend/internal/domain/identity"
	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/request"
	"github.com/tallybridge/backend/internal/domain/sync"
)

// setupTestDB opens an in-memory SQLite database with every table migrated.
// Postgres-only SQL (ILIKE search, partial indexes) is not exercised here.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&master.CachedMaster{},
		&request.CreationRequest{},
		&sync.SyncLog{},
		&sync.RetryJob{},
		&identity.User{},
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
