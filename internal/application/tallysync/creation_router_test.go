package tallysync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tallybridge/backend/internal/domain/erp"
	"github.com/tallybridge/backend/internal/domain/identity"
	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/request"
	"github.com/tallybridge/backend/internal/domain/shared"
	"github.com/tallybridge/backend/internal/domain/sync"
	"github.com/tallybridge/backend/internal/infrastructure/config"
	"github.com/tallybridge/backend/internal/infrastructure/persistence"
	"github.com/tallybridge/backend/internal/infrastructure/tally"
)

// fakeGateway scripts gateway replies. CheckExists answers from the exists
// map (unscripted names are confident misses), Send pops replies off the
// script in order and records every payload; an empty script means success.
type fakeGateway struct {
	enabled      bool
	company      string
	conn         *tally.ConnectivityStatus
	connErr      error
	companyCheck *tally.CompanyCheck
	companyErr   error
	exists       map[string]master.ExistenceResult
	checkErr     error
	script       []*tally.SendOutcome
	sent         []string
}

func gatewayKey(kind master.Kind, name string) string {
	return kind.String() + "/" + name
}

func (f *fakeGateway) Enabled() bool   { return f.enabled }
func (f *fakeGateway) Company() string { return f.company }

func (f *fakeGateway) Connectivity(context.Context) (*tally.ConnectivityStatus, error) {
	if f.connErr != nil {
		return nil, f.connErr
	}
	if f.conn != nil {
		return f.conn, nil
	}
	return &tally.ConnectivityStatus{Version: "TallyPrime Server 4.1", URL: "http://localhost:9000"}, nil
}

func (f *fakeGateway) VerifyCompany(context.Context) (*tally.CompanyCheck, error) {
	if f.companyErr != nil {
		return nil, f.companyErr
	}
	if f.companyCheck != nil {
		return f.companyCheck, nil
	}
	return &tally.CompanyCheck{ActiveCompany: f.company, ConfiguredCompany: f.company, Matches: true}, nil
}

func (f *fakeGateway) CheckExists(_ context.Context, kind master.Kind, name string) (master.ExistenceResult, error) {
	if f.checkErr != nil {
		return master.ExistenceResult{}, f.checkErr
	}
	if res, ok := f.exists[gatewayKey(kind, name)]; ok {
		return res, nil
	}
	return master.ExistenceResult{Exists: false, Success: true}, nil
}

func (f *fakeGateway) Send(_ context.Context, payload string) (*tally.SendOutcome, error) {
	if !f.enabled {
		return nil, sync.ErrTallyDisabled
	}
	f.sent = append(f.sent, payload)
	if len(f.script) == 0 {
		return &tally.SendOutcome{Success: true, StatusCode: 200, Response: "<CREATED>1</CREATED>"}, nil
	}
	out := f.script[0]
	f.script = f.script[1:]
	return out, nil
}

var _ Gateway = (*fakeGateway)(nil)

// fakeLocks hands out locks unless the key is marked held
type fakeLocks struct {
	held     map[string]bool
	acquired []string
}

type fakeLock struct{}

func (fakeLock) Release(context.Context) error { return nil }

func (f *fakeLocks) Acquire(_ context.Context, key string, _ time.Duration) (shared.Lock, error) {
	if f.held[key] {
		return nil, shared.ErrLockNotObtained
	}
	f.acquired = append(f.acquired, key)
	return fakeLock{}, nil
}

func (f *fakeLocks) Close() error { return nil }

var _ shared.LockManager = (*fakeLocks)(nil)

type deliveredNote struct {
	event request.NotificationEvent
	email string
}

// fakeNotifier records deliveries instead of sending anything
type fakeNotifier struct {
	delivered []deliveredNote
	err       error
}

func (f *fakeNotifier) Notify(_ context.Context, event request.NotificationEvent, _ *request.CreationRequest, to request.Recipient) error {
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, deliveredNote{event: event, email: to.Email})
	return nil
}

var _ request.Notifier = (*fakeNotifier)(nil)

// fakeArchive records archived payloads under a deterministic key
type fakeArchive struct {
	keys map[uuid.UUID]string
	err  error
}

func (f *fakeArchive) ArchivePayloads(_ context.Context, id uuid.UUID, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.keys == nil {
		f.keys = map[uuid.UUID]string{}
	}
	key := "synclogs/" + id.String() + "/envelope.xml"
	f.keys[id] = key
	return key, nil
}

var _ PayloadArchive = (*fakeArchive)(nil)

// openTestDB opens an in-memory SQLite database with the tables the sync
// services touch
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&request.CreationRequest{},
		&master.CachedMaster{},
		&sync.SyncLog{},
		&sync.RetryJob{},
		&identity.User{},
		&erp.Customer{},
		&erp.Supplier{},
		&erp.Item{},
		&erp.SalesInvoice{},
	)
	require.NoError(t, err)
	return db
}

type routerFixture struct {
	gateway  *fakeGateway
	locks    *fakeLocks
	notifier *fakeNotifier
	requests request.CreationRequestRepository
	syncLogs sync.SyncLogRepository
	retries  sync.RetryJobRepository
	cache    master.CachedMasterRepository
	store    erp.DocumentStore
	router   *CreationRouter
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	db := openTestDB(t)

	f := &routerFixture{
		gateway:  &fakeGateway{enabled: true, company: "Demo Traders"},
		locks:    &fakeLocks{held: map[string]bool{}},
		notifier: &fakeNotifier{},
		requests: persistence.NewGormCreationRequestRepository(db),
		syncLogs: persistence.NewGormSyncLogRepository(db),
		retries:  persistence.NewGormRetryJobRepository(db),
		cache:    persistence.NewGormCachedMasterRepository(db),
		store:    persistence.NewGormDocumentStore(db),
	}
	coupler := NewRetryCoupler(f.syncLogs, f.retries, zap.NewNop())
	f.router = NewCreationRouter(
		f.requests, f.syncLogs, f.retries, f.cache, f.store,
		f.gateway, f.locks, persistence.NewGormUserRepository(db),
		f.notifier, coupler, config.SyncConfig{}, zap.NewNop(),
	)
	return f
}

// seedApprovedRequest stores a request already moved to Approved
func seedApprovedRequest(t *testing.T, repo request.CreationRequestRepository, in request.NewRequestInput) *request.CreationRequest {
	t.Helper()
	req, err := request.NewCreationRequest(in)
	require.NoError(t, err)
	require.NoError(t, req.Approve("approver@example.com", "", ""))
	req.ClearDomainEvents()
	require.NoError(t, repo.SaveWithLock(context.Background(), req))
	return req
}

func customerRequestInput(name, parent string) request.NewRequestInput {
	return request.NewRequestInput{
		MasterType:     master.TypeCustomer,
		MasterName:     name,
		ParentGroup:    parent,
		SourceDoctype:  "Sales Order",
		SourceDocument: "SO-9",
		RequestedBy:    "requester@example.com",
	}
}

func TestCreationRouterProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an approved customer ledger and completes the request", func(t *testing.T) {
		f := newRouterFixture(t)

		customer, err := erp.NewCustomer("CUST-001", "Acme Industries")
		require.NoError(t, err)
		customer.GSTIN = "27AAACA1234F1Z5"
		require.NoError(t, f.store.UpsertCustomer(ctx, customer))

		in := customerRequestInput("Acme Industries", "North Debtors")
		in.SourceSnapshot = []byte(`{"doctype":"Sales Order","docname":"SO-9","source_ref":"CUST-001"}`)
		req := seedApprovedRequest(t, f.requests, in)

		require.NoError(t, f.router.Process(ctx, req.ID))

		// The parent group goes over the wire first, then the ledger
		require.Len(t, f.gateway.sent, 2)
		assert.Contains(t, f.gateway.sent[0], `<GROUP NAME="North Debtors"`)
		assert.Contains(t, f.gateway.sent[0], "<PARENT>Sundry Debtors</PARENT>")
		assert.Contains(t, f.gateway.sent[1], `<LEDGER NAME="Acme Industries"`)
		assert.Contains(t, f.gateway.sent[1], "<PARENT>North Debtors</PARENT>")
		assert.Contains(t, f.gateway.sent[1], "<PARTYGSTIN>27AAACA1234F1Z5</PARTYGSTIN>")

		saved, err := f.requests.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusCompleted, saved.Status)
		assert.True(t, saved.TallyMasterCreated)
		assert.NotNil(t, saved.CreatedInTallyAt)
		require.NotNil(t, saved.SyncLogID)

		log, err := f.syncLogs.FindByID(ctx, *saved.SyncLogID)
		require.NoError(t, err)
		assert.Equal(t, sync.LogStatusSuccess, log.Status)
		assert.Equal(t, "Customer", log.DocumentType)

		// Both masters land in the existence cache as live write backs
		ledger, err := f.cache.FindActive(ctx, master.KindLedger, "Acme Industries")
		require.NoError(t, err)
		assert.Equal(t, master.SyncSourceLive, ledger.Source)
		group, err := f.cache.FindActive(ctx, master.KindGroup, "North Debtors")
		require.NoError(t, err)
		assert.Equal(t, "Sundry Debtors", group.Parent)

		require.Len(t, f.notifier.delivered, 1)
		assert.Equal(t, request.NotifyCompleted, f.notifier.delivered[0].event)
		assert.Equal(t, "requester@example.com", f.notifier.delivered[0].email)
	})

	t.Run("completes without an import when tally already has the master", func(t *testing.T) {
		f := newRouterFixture(t)
		f.gateway.exists = map[string]master.ExistenceResult{
			gatewayKey(master.KindLedger, "Acme Industries"): {Exists: true, Success: true},
		}
		req := seedApprovedRequest(t, f.requests, customerRequestInput("Acme Industries", "Sundry Debtors"))

		require.NoError(t, f.router.Process(ctx, req.ID))

		assert.Empty(t, f.gateway.sent)
		saved, err := f.requests.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusCompleted, saved.Status)
		assert.Nil(t, saved.SyncLogID)

		cached, err := f.cache.FindActive(ctx, master.KindLedger, "Acme Industries")
		require.NoError(t, err)
		assert.Equal(t, master.SyncSourceLive, cached.Source)
	})

	t.Run("treats an already exists rejection as created", func(t *testing.T) {
		f := newRouterFixture(t)
		f.gateway.script = []*tally.SendOutcome{{
			Success:    false,
			StatusCode: 200,
			Response:   "<LINEERROR>Ledger 'Acme Industries' already exists</LINEERROR>",
			ErrorType:  sync.ErrorTypeApplication,
			Error:      "Ledger 'Acme Industries' already exists",
		}}
		req := seedApprovedRequest(t, f.requests, customerRequestInput("Acme Industries", "Sundry Debtors"))

		require.NoError(t, f.router.Process(ctx, req.ID))

		saved, err := f.requests.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusCompleted, saved.Status)

		// The transmission log keeps the verbatim refusal
		require.NotNil(t, saved.SyncLogID)
		log, err := f.syncLogs.FindByID(ctx, *saved.SyncLogID)
		require.NoError(t, err)
		assert.Equal(t, sync.LogStatusFailed, log.Status)
	})

	t.Run("fails the request and schedules a retry when tally is unreachable", func(t *testing.T) {
		f := newRouterFixture(t)
		f.gateway.script = []*tally.SendOutcome{{
			Success:   false,
			ErrorType: sync.ErrorTypeNetwork,
			Error:     "connection refused",
		}}
		in := request.NewRequestInput{
			MasterType:  master.TypeSupplier,
			MasterName:  "Mehta Traders",
			ParentGroup: "Sundry Creditors",
			RequestedBy: "requester@example.com",
			AssignedTo:  "asha@example.com",
		}
		req := seedApprovedRequest(t, f.requests, in)

		require.NoError(t, f.router.Process(ctx, req.ID))

		saved, err := f.requests.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusFailed, saved.Status)
		assert.Equal(t, "connection refused", saved.SyncError)

		open, err := f.retries.HasOpenJob(ctx, "Creation Request", req.ID.String(), sync.OperationCreateMaster)
		require.NoError(t, err)
		assert.True(t, open)

		// The failure lands with the approver, who can fix and requeue
		require.Len(t, f.notifier.delivered, 1)
		assert.Equal(t, request.NotifyFailed, f.notifier.delivered[0].event)
		assert.Equal(t, "asha@example.com", f.notifier.delivered[0].email)
	})

	t.Run("failure notice falls back to the requester when nobody is assigned", func(t *testing.T) {
		f := newRouterFixture(t)
		f.gateway.script = []*tally.SendOutcome{{
			Success:   false,
			ErrorType: sync.ErrorTypeNetwork,
			Error:     "connection refused",
		}}
		req := seedApprovedRequest(t, f.requests, customerRequestInput("Acme Industries", "Sundry Debtors"))

		require.NoError(t, f.router.Process(ctx, req.ID))

		require.Len(t, f.notifier.delivered, 1)
		assert.Equal(t, request.NotifyFailed, f.notifier.delivered[0].event)
		assert.Equal(t, "requester@example.com", f.notifier.delivered[0].email)
	})

	t.Run("validation rejection fails without a retry", func(t *testing.T) {
		f := newRouterFixture(t)
		f.gateway.script = []*tally.SendOutcome{{
			Success:    false,
			StatusCode: 200,
			ErrorType:  sync.ErrorTypeValidation,
			Error:      "Invalid object name",
		}}
		req := seedApprovedRequest(t, f.requests, customerRequestInput("Acme Industries", "Sundry Debtors"))

		require.NoError(t, f.router.Process(ctx, req.ID))

		saved, err := f.requests.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusFailed, saved.Status)

		open, err := f.retries.HasOpenJob(ctx, "Creation Request", req.ID.String(), sync.OperationCreateMaster)
		require.NoError(t, err)
		assert.False(t, open)
	})

	t.Run("builds the stock group and unit before the item", func(t *testing.T) {
		f := newRouterFixture(t)

		rod, err := erp.NewItem("ITM-1", "Steel Rod 8mm", "Raw Material")
		require.NoError(t, err)
		rod.StockUOM = "Kg"
		require.NoError(t, f.store.UpsertItem(ctx, rod))

		in := request.NewRequestInput{
			MasterType:     master.TypeItem,
			MasterName:     "Steel Rod 8mm",
			ParentGroup:    "Raw Materials",
			SourceDoctype:  "Sales Order",
			SourceDocument: "SO-9",
			SourceSnapshot: []byte(`{"doctype":"Sales Order","docname":"SO-9","source_ref":"ITM-1"}`),
			RequestedBy:    "requester@example.com",
		}
		req := seedApprovedRequest(t, f.requests, in)

		require.NoError(t, f.router.Process(ctx, req.ID))

		require.Len(t, f.gateway.sent, 3)
		assert.Contains(t, f.gateway.sent[0], `<STOCKGROUP NAME="Raw Materials"`)
		assert.Contains(t, f.gateway.sent[0], "<PARENT>Primary</PARENT>")
		assert.Contains(t, f.gateway.sent[1], `<UNIT NAME="Kg"`)
		assert.Contains(t, f.gateway.sent[2], `<STOCKITEM NAME="Steel Rod 8mm"`)
		assert.Contains(t, f.gateway.sent[2], "<BASEUNITS>Kg</BASEUNITS>")
		assert.Contains(t, f.gateway.sent[2], "ITM-1")

		saved, err := f.requests.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusCompleted, saved.Status)

		item, err := f.cache.FindActive(ctx, master.KindStockItem, "Steel Rod 8mm")
		require.NoError(t, err)
		assert.Equal(t, "Raw Materials", item.Parent)
	})

	t.Run("fails a ledger without a parent group", func(t *testing.T) {
		f := newRouterFixture(t)
		req := seedApprovedRequest(t, f.requests, customerRequestInput("Acme Industries", ""))

		require.NoError(t, f.router.Process(ctx, req.ID))

		assert.Empty(t, f.gateway.sent)
		saved, err := f.requests.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusFailed, saved.Status)
		assert.Contains(t, saved.SyncError, "cannot determine parent group")
	})

	t.Run("skips when another worker holds the creation lock", func(t *testing.T) {
		f := newRouterFixture(t)
		f.locks.held["creation:Ledger:zen metals"] = true
		req := seedApprovedRequest(t, f.requests, customerRequestInput("Zen Metals", "Sundry Debtors"))

		require.NoError(t, f.router.Process(ctx, req.ID))

		assert.Empty(t, f.gateway.sent)
		saved, err := f.requests.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusApproved, saved.Status)
	})

	t.Run("skips requests that are not eligible for creation", func(t *testing.T) {
		f := newRouterFixture(t)
		req, err := request.NewCreationRequest(customerRequestInput("Acme Industries", "Sundry Debtors"))
		require.NoError(t, err)
		req.ClearDomainEvents()
		require.NoError(t, f.requests.SaveWithLock(ctx, req))

		require.NoError(t, f.router.Process(ctx, req.ID))

		assert.Empty(t, f.gateway.sent)
		saved, err := f.requests.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusPendingApproval, saved.Status)
	})

	t.Run("ignores a request that no longer exists", func(t *testing.T) {
		f := newRouterFixture(t)
		require.NoError(t, f.router.Process(ctx, uuid.New()))
		assert.Empty(t, f.gateway.sent)
	})

	t.Run("files the linked invoice for retry after completion", func(t *testing.T) {
		f := newRouterFixture(t)
		f.gateway.exists = map[string]master.ExistenceResult{
			gatewayKey(master.KindLedger, "Acme Industries"): {Exists: true, Success: true},
		}

		failed := sync.NewSyncLog(sync.SyncTypeVoucher, "Sales Invoice", "SINV-7", "Demo Traders", "<ENVELOPE/>")
		require.NoError(t, failed.MarkInProgress())
		require.NoError(t, failed.MarkFailed("", 0, sync.ErrorTypeValidation, "Ledger 'Acme Industries' does not exist"))
		require.NoError(t, f.syncLogs.Save(ctx, failed))

		in := customerRequestInput("Acme Industries", "Sundry Debtors")
		in.LinkedDoctype = "Sales Invoice"
		in.LinkedTxn = "SINV-7"
		req := seedApprovedRequest(t, f.requests, in)

		require.NoError(t, f.router.Process(ctx, req.ID))

		open, err := f.retries.HasOpenJob(ctx, "Sales Invoice", "SINV-7", sync.OperationPushVoucher)
		require.NoError(t, err)
		assert.True(t, open)

		due, err := f.retries.FindDue(ctx, time.Now().Add(time.Second), 10)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, "SINV-7", due[0].DocumentName)
	})
}

func TestRetryCoupler(t *testing.T) {
	ctx := context.Background()

	newCoupler := func(t *testing.T) (*RetryCoupler, sync.SyncLogRepository, sync.RetryJobRepository) {
		t.Helper()
		db := openTestDB(t)
		syncLogs := persistence.NewGormSyncLogRepository(db)
		retries := persistence.NewGormRetryJobRepository(db)
		return NewRetryCoupler(syncLogs, retries, zap.NewNop()), syncLogs, retries
	}

	seedLog := func(t *testing.T, repo sync.SyncLogRepository, status sync.LogStatus) {
		t.Helper()
		log := sync.NewSyncLog(sync.SyncTypeVoucher, "Sales Invoice", "SINV-7", "Demo Traders", "<ENVELOPE/>")
		if status != sync.LogStatusQueued {
			require.NoError(t, log.MarkInProgress())
			require.NoError(t, log.MarkFailed("", 0, sync.ErrorTypeValidation, "Ledger does not exist"))
		}
		require.NoError(t, repo.Save(ctx, log))
	}

	t.Run("queues an immediate retry when the newest push failed", func(t *testing.T) {
		coupler, syncLogs, retries := newCoupler(t)
		seedLog(t, syncLogs, sync.LogStatusFailed)

		coupler.RetryLinkedTransaction(ctx, "Sales Invoice", "SINV-7")

		due, err := retries.FindDue(ctx, time.Now().Add(time.Second), 10)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, sync.OperationPushVoucher, due[0].Operation)
		assert.Equal(t, "Ledger does not exist", due[0].ErrorMessage)
	})

	t.Run("rescues a push stranded in queued", func(t *testing.T) {
		coupler, syncLogs, retries := newCoupler(t)
		seedLog(t, syncLogs, sync.LogStatusQueued)

		coupler.RetryLinkedTransaction(ctx, "Sales Invoice", "SINV-7")

		// A queued log with no outcome means the worker died mid-push;
		// the invoice must come due again
		due, err := retries.FindDue(ctx, time.Now().Add(time.Second), 10)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, sync.OperationPushVoucher, due[0].Operation)
		assert.Equal(t, "SINV-7", due[0].DocumentName)
	})

	t.Run("does not duplicate an open retry job", func(t *testing.T) {
		coupler, syncLogs, retries := newCoupler(t)
		seedLog(t, syncLogs, sync.LogStatusFailed)
		require.NoError(t, retries.Save(ctx, sync.NewRetryJob("Sales Invoice", "SINV-7", sync.OperationPushVoucher, "", false)))

		coupler.RetryLinkedTransaction(ctx, "Sales Invoice", "SINV-7")

		filter := shared.Filter{Page: 1, PageSize: 10}
		count, err := retries.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("does nothing for a document that never transmitted", func(t *testing.T) {
		coupler, _, retries := newCoupler(t)

		coupler.RetryLinkedTransaction(ctx, "Sales Invoice", "SINV-404")

		count, err := retries.Count(ctx, shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
