package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tallybridge/backend/internal/application/report"
	"github.com/tallybridge/backend/internal/application/tallysync"
	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/sync"
	"github.com/tallybridge/backend/internal/infrastructure/persistence"
	"github.com/tallybridge/backend/internal/interfaces/http/dto"
)

type syncLogHandlerFixture struct {
	syncLogs sync.SyncLogRepository
	router   *gin.Engine
}

func newSyncLogHandlerFixture(t *testing.T) *syncLogHandlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&sync.SyncLog{}, &sync.RetryJob{}, &master.CachedMaster{}))

	syncLogs := persistence.NewGormSyncLogRepository(db)
	retries := persistence.NewGormRetryJobRepository(db)
	service := tallysync.NewSyncLogService(syncLogs, retries)
	exports := report.NewExportService(syncLogs, persistence.NewGormCachedMasterRepository(db))
	h := NewSyncLogHandler(service, exports)

	router := gin.New()
	api := router.Group("/api/v1")
	api.GET("/sync-logs", h.List)
	api.GET("/sync-logs/stats", h.Stats)
	api.GET("/sync-logs/export", h.Export)
	api.GET("/sync-logs/:id", h.GetByID)

	return &syncLogHandlerFixture{syncLogs: syncLogs, router: router}
}

func (f *syncLogHandlerFixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	f.router.ServeHTTP(w, req)
	return w
}

// seedLog saves a finished transmission for docName, failed or successful
func (f *syncLogHandlerFixture) seedLog(t *testing.T, docName string, fail bool) *sync.SyncLog {
	t.Helper()
	ctx := context.Background()

	log := sync.NewSyncLog(sync.SyncTypeMaster, "Customer", docName, "Demo Traders", "<ENVELOPE/>")
	require.NoError(t, log.MarkInProgress())
	if fail {
		require.NoError(t, log.MarkFailed("<LINEERROR/>", 200, sync.ErrorTypeValidation, "Invalid object"))
	} else {
		require.NoError(t, log.MarkSuccess("<CREATED>1</CREATED>", 200))
	}
	require.NoError(t, f.syncLogs.Save(ctx, log))
	return log
}

func decodeSyncLogList(t *testing.T, w *httptest.ResponseRecorder) ([]tallysync.SyncLogResponse, *dto.Meta) {
	t.Helper()

	var resp struct {
		Data []tallysync.SyncLogResponse `json:"data"`
		Meta *dto.Meta                   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data, resp.Meta
}

func TestSyncLogHandlerList(t *testing.T) {
	t.Run("lists transmissions with pagination meta", func(t *testing.T) {
		f := newSyncLogHandlerFixture(t)
		f.seedLog(t, "Acme Industries", false)
		f.seedLog(t, "Zen Metals", true)

		w := f.get(t, "/api/v1/sync-logs")
		require.Equal(t, http.StatusOK, w.Code)

		items, meta := decodeSyncLogList(t, w)
		require.NotNil(t, meta)
		assert.Equal(t, int64(2), meta.Total)
		assert.Len(t, items, 2)
	})

	t.Run("filters by status", func(t *testing.T) {
		f := newSyncLogHandlerFixture(t)
		f.seedLog(t, "Acme Industries", false)
		f.seedLog(t, "Zen Metals", true)

		w := f.get(t, "/api/v1/sync-logs?status=FAILED")
		require.Equal(t, http.StatusOK, w.Code)

		items, _ := decodeSyncLogList(t, w)
		require.Len(t, items, 1)
		assert.Equal(t, "Zen Metals", items[0].DocumentName)
		assert.Equal(t, "VALIDATION ERROR", items[0].ErrorType)
	})

	t.Run("rejects an unknown sync type", func(t *testing.T) {
		f := newSyncLogHandlerFixture(t)

		w := f.get(t, "/api/v1/sync-logs?sync_type=Gibberish")
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSyncLogHandlerGetByID(t *testing.T) {
	t.Run("returns the verbatim payloads", func(t *testing.T) {
		f := newSyncLogHandlerFixture(t)
		log := f.seedLog(t, "Acme Industries", false)

		w := f.get(t, "/api/v1/sync-logs/"+log.ID.String())
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data tallysync.SyncLogDetail `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "SUCCESS", resp.Data.Status)
		assert.Equal(t, "<ENVELOPE/>", resp.Data.RequestXML)
		assert.Equal(t, "<CREATED>1</CREATED>", resp.Data.ResponseXML)
	})

	t.Run("unknown id reports not found", func(t *testing.T) {
		f := newSyncLogHandlerFixture(t)

		w := f.get(t, "/api/v1/sync-logs/"+uuid.NewString())
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("rejects a malformed id", func(t *testing.T) {
		f := newSyncLogHandlerFixture(t)

		w := f.get(t, "/api/v1/sync-logs/not-a-uuid")
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSyncLogHandlerStats(t *testing.T) {
	f := newSyncLogHandlerFixture(t)
	f.seedLog(t, "Acme Industries", false)
	f.seedLog(t, "Mehta Traders", false)
	f.seedLog(t, "Zen Metals", true)

	w := f.get(t, "/api/v1/sync-logs/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data tallysync.SyncLogStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Data.Counts["SUCCESS"])
	assert.Equal(t, int64(1), resp.Data.Counts["FAILED"])
	assert.Equal(t, int64(3), resp.Data.Total)
}

func TestSyncLogHandlerExport(t *testing.T) {
	f := newSyncLogHandlerFixture(t)
	f.seedLog(t, "Acme Industries", false)
	f.seedLog(t, "Zen Metals", true)

	w := f.get(t, "/api/v1/sync-logs/export?status=FAILED")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "sync-logs-")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx files are zip archives")
}
