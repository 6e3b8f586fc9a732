package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/request"
	"github.com/tallybridge/backend/internal/domain/shared"
)

func newTestRequest(t *testing.T, masterName, sourceDoc string, priority request.Priority) *request.CreationRequest {
	t.Helper()
	req, err := request.NewCreationRequest(request.NewRequestInput{
		MasterType:     master.TypeCustomer,
		MasterName:     masterName,
		ParentGroup:    "Sundry Debtors",
		Priority:       priority,
		SourceDoctype:  "Sales Invoice",
		SourceDocument: sourceDoc,
		RequestedBy:    "requester@example.com",
		AssignedTo:     "approver@example.com",
	})
	require.NoError(t, err)
	return req
}

func TestGormCreationRequestRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCreationRequestRepository(db)
	ctx := context.Background()

	req := newTestRequest(t, "ABC Traders", "SINV-001", request.PriorityHigh)
	require.NoError(t, repo.Save(ctx, req))

	found, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "ABC Traders", found.MasterName)
	assert.Equal(t, request.StatusPendingApproval, found.Status)
	assert.Equal(t, request.PriorityHigh, found.Priority)
	assert.Equal(t, "Sundry Debtors", found.ParentGroup)

	// The creation entry of the notification history survives the round trip
	require.Len(t, found.NotificationHistory, 1)
	assert.Equal(t, "created", found.NotificationHistory[0].Event)
	assert.Equal(t, "approver@example.com", found.NotificationHistory[0].Recipient)
}

func TestGormCreationRequestRepository_FindOpenForMaster(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCreationRequestRepository(db)
	ctx := context.Background()

	t.Run("finds a pending request", func(t *testing.T) {
		req := newTestRequest(t, "ABC Traders", "SINV-001", request.PriorityNormal)
		require.NoError(t, repo.Save(ctx, req))

		found, err := repo.FindOpenForMaster(ctx, master.TypeCustomer, "SINV-001", "ABC Traders")
		require.NoError(t, err)
		assert.Equal(t, req.ID, found.ID)
	})

	t.Run("rejected requests do not block", func(t *testing.T) {
		req := newTestRequest(t, "Closed Trader", "SINV-002", request.PriorityNormal)
		require.NoError(t, req.Reject("approver@example.com", "duplicate"))
		require.NoError(t, repo.Save(ctx, req))

		_, err := repo.FindOpenForMaster(ctx, master.TypeCustomer, "SINV-002", "Closed Trader")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("a different source document is a different slot", func(t *testing.T) {
		_, err := repo.FindOpenForMaster(ctx, master.TypeCustomer, "SINV-099", "ABC Traders")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormCreationRequestRepository_FindPendingForApprover(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCreationRequestRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)

	older := newTestRequest(t, "Normal Older", "SINV-010", request.PriorityNormal)
	older.RequestDate = base
	require.NoError(t, repo.Save(ctx, older))

	newer := newTestRequest(t, "Normal Newer", "SINV-011", request.PriorityNormal)
	newer.RequestDate = base.Add(10 * time.Minute)
	require.NoError(t, repo.Save(ctx, newer))

	urgent := newTestRequest(t, "Urgent Latest", "SINV-012", request.PriorityUrgent)
	urgent.RequestDate = base.Add(20 * time.Minute)
	require.NoError(t, repo.Save(ctx, urgent))

	// An approved request has left the pending queue
	approved := newTestRequest(t, "Approved One", "SINV-013", request.PriorityUrgent)
	require.NoError(t, approved.Approve("approver@example.com", "", ""))
	require.NoError(t, repo.Save(ctx, approved))

	t.Run("urgent first, then oldest first", func(t *testing.T) {
		reqs, total, err := repo.FindPendingForApprover(ctx, "approver@example.com", shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, reqs, 3)
		assert.Equal(t, "Urgent Latest", reqs[0].MasterName)
		assert.Equal(t, "Normal Older", reqs[1].MasterName)
		assert.Equal(t, "Normal Newer", reqs[2].MasterName)
	})

	t.Run("empty approver lists the whole queue", func(t *testing.T) {
		_, total, err := repo.FindPendingForApprover(ctx, "", shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})

	t.Run("other approvers see nothing", func(t *testing.T) {
		reqs, total, err := repo.FindPendingForApprover(ctx, "other@example.com", shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, reqs)
	})

	t.Run("pagination", func(t *testing.T) {
		reqs, total, err := repo.FindPendingForApprover(ctx, "approver@example.com", shared.Filter{Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, reqs, 1)
		assert.Equal(t, "Normal Newer", reqs[0].MasterName)
	})
}

func TestGormCreationRequestRepository_SaveWithLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCreationRequestRepository(db)
	ctx := context.Background()

	req := newTestRequest(t, "ABC Traders", "SINV-001", request.PriorityNormal)
	require.NoError(t, repo.Save(ctx, req))

	t.Run("bumps the version on success", func(t *testing.T) {
		require.NoError(t, req.Approve("approver@example.com", "", ""))
		require.NoError(t, repo.SaveWithLock(ctx, req))

		found, err := repo.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, found.Version)
		assert.Equal(t, request.StatusApproved, found.Status)
	})

	t.Run("rejects a stale version", func(t *testing.T) {
		stale := *req
		stale.Version = 1

		err := repo.SaveWithLock(ctx, &stale)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONCURRENT_MODIFICATION", domainErr.Code)
	})

	t.Run("inserts an unseen aggregate", func(t *testing.T) {
		fresh := newTestRequest(t, "Fresh Traders", "SINV-002", request.PriorityNormal)
		require.NoError(t, repo.SaveWithLock(ctx, fresh))

		found, err := repo.FindByID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusPendingApproval, found.Status)
	})
}

func TestGormCreationRequestRepository_CountOpenByAssignee(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCreationRequestRepository(db)
	ctx := context.Background()

	first := newTestRequest(t, "One", "SINV-001", request.PriorityNormal)
	require.NoError(t, repo.Save(ctx, first))

	second := newTestRequest(t, "Two", "SINV-002", request.PriorityNormal)
	second.AssignedTo = "second@example.com"
	require.NoError(t, repo.Save(ctx, second))

	third := newTestRequest(t, "Three", "SINV-003", request.PriorityNormal)
	third.AssignedTo = "second@example.com"
	require.NoError(t, third.Reject("second@example.com", "not needed"))
	require.NoError(t, repo.Save(ctx, third))

	counts, err := repo.CountOpenByAssignee(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["approver@example.com"])
	assert.Equal(t, int64(1), counts["second@example.com"])
}

func TestGormCreationRequestRepository_CountByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCreationRequestRepository(db)
	ctx := context.Background()

	pending := newTestRequest(t, "One", "SINV-001", request.PriorityNormal)
	require.NoError(t, repo.Save(ctx, pending))

	rejected := newTestRequest(t, "Two", "SINV-002", request.PriorityNormal)
	require.NoError(t, rejected.Reject("approver@example.com", "duplicate"))
	require.NoError(t, repo.Save(ctx, rejected))

	count, err := repo.CountByStatus(ctx, request.StatusPendingApproval)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountByStatus(ctx, request.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestGormCreationRequestRepository_FindAllFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCreationRequestRepository(db)
	ctx := context.Background()

	open := newTestRequest(t, "Open One", "SINV-001", request.PriorityNormal)
	require.NoError(t, repo.Save(ctx, open))

	done := newTestRequest(t, "Done One", "SINV-002", request.PriorityNormal)
	require.NoError(t, done.Approve("approver@example.com", "", ""))
	require.NoError(t, done.StartProcessing())
	require.NoError(t, done.Complete(nil))
	require.NoError(t, repo.Save(ctx, done))

	reqs, err := repo.FindAll(ctx, shared.Filter{Filters: map[string]interface{}{"status": request.StatusCompleted}})
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Done One", reqs[0].MasterName)

	reqs, err = repo.FindAll(ctx, shared.Filter{Filters: map[string]interface{}{"open": true}})
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Open One", reqs[0].MasterName)
}
