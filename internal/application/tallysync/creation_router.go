package tallysync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/domain/erp"
	"github.com/tallybridge/backend/internal/domain/identity"
	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/request"
	"github.com/tallybridge/backend/internal/domain/shared"
	"github.com/tallybridge/backend/internal/domain/sync"
	"github.com/tallybridge/backend/internal/infrastructure/config"
	"github.com/tallybridge/backend/internal/infrastructure/telemetry"
)

// requestDocumentType is how creation requests appear in sync logs and
// retry jobs
const requestDocumentType = "Creation Request"

const defaultCreationLockTTL = 2 * time.Minute

// creationOutcome is what one creation attempt produced. A nil err means
// the master is in Tally now, whether this attempt created it or found it.
type creationOutcome struct {
	syncLogID *uuid.UUID
	errType   sync.ErrorType
	err       error
}

func validationFailure(err error) creationOutcome {
	return creationOutcome{errType: sync.ErrorTypeValidation, err: err}
}

// CreationRouter executes approved creation requests against the gateway.
// One request at a time per master: a distributed lock keyed on the Tally
// object serializes workers across instances.
type CreationRouter struct {
	transmitter
	requests request.CreationRequestRepository
	retries  sync.RetryJobRepository
	cache    master.CachedMasterRepository
	store    erp.DocumentStore
	locks    shared.LockManager
	users    identity.UserRepository
	notifier request.Notifier
	coupler  *RetryCoupler
	lockTTL  time.Duration
	logger   *zap.Logger
}

// NewCreationRouter creates the router over its collaborators
func NewCreationRouter(
	requests request.CreationRequestRepository,
	syncLogs sync.SyncLogRepository,
	retries sync.RetryJobRepository,
	cache master.CachedMasterRepository,
	store erp.DocumentStore,
	gateway Gateway,
	locks shared.LockManager,
	users identity.UserRepository,
	notifier request.Notifier,
	coupler *RetryCoupler,
	cfg config.SyncConfig,
	logger *zap.Logger,
) *CreationRouter {
	lockTTL := cfg.CreationLockTTL
	if lockTTL <= 0 {
		lockTTL = defaultCreationLockTTL
	}
	return &CreationRouter{
		transmitter: transmitter{gateway: gateway, syncLogs: syncLogs},
		requests:    requests,
		retries:     retries,
		cache:       cache,
		store:       store,
		locks:       locks,
		users:       users,
		notifier:    notifier,
		coupler:     coupler,
		lockTTL:     lockTTL,
		logger:      logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (r *CreationRouter) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	r.metrics = bm
}

// Process runs one approved or failed request through creation. The In
// Progress transition is committed before anything goes over the wire so
// a crash mid-creation stays visible. A request that vanished or moved on
// is skipped, not an error.
func (r *CreationRouter) Process(ctx context.Context, requestID uuid.UUID) error {
	req, err := r.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			r.logger.Warn("Creation request vanished before processing",
				zap.String("request_id", requestID.String()))
			return nil
		}
		return err
	}

	if req.Status != request.StatusApproved && req.Status != request.StatusFailed {
		r.logger.Info("Skipping request not eligible for creation",
			zap.String("request_id", req.ID.String()),
			zap.String("status", req.Status.String()))
		return nil
	}

	lockKey := fmt.Sprintf("creation:%s:%s", req.TallyKind(), master.NormalizeForCompare(req.MasterName))
	lock, err := r.locks.Acquire(ctx, lockKey, r.lockTTL)
	if err != nil {
		if errors.Is(err, shared.ErrLockNotObtained) {
			r.logger.Info("Another worker holds the creation lock",
				zap.String("lock", lockKey),
				zap.String("request_id", req.ID.String()))
			return nil
		}
		return err
	}
	defer func() {
		if releaseErr := lock.Release(ctx); releaseErr != nil {
			r.logger.Warn("Creation lock release failed",
				zap.String("lock", lockKey), zap.Error(releaseErr))
		}
	}()

	if err := req.StartProcessing(); err != nil {
		r.logger.Warn("Request moved on before the lock was taken",
			zap.String("request_id", req.ID.String()),
			zap.String("status", req.Status.String()),
			zap.Error(err))
		return nil
	}
	if err := r.requests.SaveWithLock(ctx, req); err != nil {
		return err
	}

	outcome := r.create(ctx, req)
	if outcome.err == nil {
		return r.complete(ctx, req, outcome.syncLogID)
	}
	return r.fail(ctx, req, outcome)
}

// create dispatches on the master category
func (r *CreationRouter) create(ctx context.Context, req *request.CreationRequest) creationOutcome {
	switch req.MasterType {
	case master.TypeCustomer, master.TypeSupplier:
		return r.createLedger(ctx, req)
	case master.TypeGroup:
		return r.createGroup(ctx, req)
	case master.TypeStockGroup:
		return r.createStockGroup(ctx, req)
	case master.TypeItem:
		return r.createStockItem(ctx, req)
	case master.TypeUnit:
		return r.createUnit(ctx, req)
	case master.TypeGodown:
		return r.createGodown(ctx, req)
	}
	return validationFailure(fmt.Errorf("%w: '%s'", sync.ErrUnsupportedMasterType, req.MasterType))
}

func (r *CreationRouter) complete(ctx context.Context, req *request.CreationRequest, syncLogID *uuid.UUID) error {
	if err := req.Complete(syncLogID); err != nil {
		return err
	}
	events := req.GetDomainEvents()
	if err := r.requests.SaveWithLockAndEvents(ctx, req, events); err != nil {
		return err
	}
	req.ClearDomainEvents()

	r.logger.Info("Master created in Tally",
		zap.String("request_id", req.ID.String()),
		zap.String("kind", req.TallyKind().String()),
		zap.String("name", req.MasterName))

	if r.metrics != nil {
		r.metrics.RecordMasterCreation(ctx, req.MasterType.String(), telemetry.CreationOutcomeCreated)
	}

	r.notify(ctx, request.NotifyCompleted, req, req.RequestedBy)

	if req.HasLinkedTransaction() && r.coupler != nil {
		r.coupler.RetryLinkedTransaction(ctx, req.LinkedDoctype, req.LinkedTransaction)
	}
	return nil
}

func (r *CreationRouter) fail(ctx context.Context, req *request.CreationRequest, outcome creationOutcome) error {
	if err := req.Fail(outcome.err.Error(), outcome.syncLogID); err != nil {
		return err
	}
	events := req.GetDomainEvents()
	if err := r.requests.SaveWithLockAndEvents(ctx, req, events); err != nil {
		return err
	}
	req.ClearDomainEvents()

	r.logger.Warn("Master creation failed",
		zap.String("request_id", req.ID.String()),
		zap.String("kind", req.TallyKind().String()),
		zap.String("name", req.MasterName),
		zap.String("error_type", outcome.errType.String()),
		zap.Error(outcome.err))

	if r.metrics != nil {
		r.metrics.RecordMasterCreation(ctx, req.MasterType.String(), telemetry.CreationOutcomeFailed)
	}

	// A failed creation needs the approver to act; the requester already
	// got their answer when the request was approved.
	recipient := req.AssignedTo
	if recipient == "" {
		recipient = req.RequestedBy
	}
	r.notify(ctx, request.NotifyFailed, req, recipient)

	if outcome.errType.ShouldRetry() {
		r.scheduleRetry(ctx, req, outcome.err.Error())
	}
	return nil
}

// scheduleRetry files a retry job for a transient failure unless one is
// already open for this request
func (r *CreationRouter) scheduleRetry(ctx context.Context, req *request.CreationRequest, errMsg string) {
	open, err := r.retries.HasOpenJob(ctx, requestDocumentType, req.ID.String(), sync.OperationCreateMaster)
	if err != nil {
		r.logger.Warn("Retry job lookup failed",
			zap.String("request_id", req.ID.String()), zap.Error(err))
		return
	}
	if open {
		return
	}
	job := sync.NewRetryJob(requestDocumentType, req.ID.String(), sync.OperationCreateMaster, errMsg, false)
	if err := r.retries.Save(ctx, job); err != nil {
		r.logger.Warn("Retry job save failed",
			zap.String("request_id", req.ID.String()), zap.Error(err))
	}
}

// notify delivers a lifecycle notification. Delivery is best effort; a
// failure is logged and never fails the creation.
func (r *CreationRouter) notify(ctx context.Context, event request.NotificationEvent, req *request.CreationRequest, email string) {
	if r.notifier == nil || email == "" {
		return
	}
	to := request.Recipient{Email: email}
	if r.users != nil {
		if user, err := r.users.FindByEmail(ctx, email); err == nil {
			to.Name = user.Name
		}
	}
	if err := r.notifier.Notify(ctx, event, req, to); err != nil {
		r.logger.Warn("Notification delivery failed",
			zap.String("event", string(event)),
			zap.String("recipient", email),
			zap.Error(err))
	}
}
