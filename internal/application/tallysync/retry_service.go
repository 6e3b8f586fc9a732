package tallysync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/domain/request"
	"github.com/tallybridge/backend/internal/domain/shared"
	"github.com/tallybridge/backend/internal/domain/sync"
)

const defaultRetryBatchLimit = 20

// RetryCoupler requeues a failed transaction push after the master that
// blocked it has been created. It looks at the newest transmission for
// the linked document and files an immediate retry when that transmission
// never succeeded. A transmission stuck in queued counts: it means the
// worker crashed before recording an outcome, and HasOpenJob already
// keeps a genuinely in-flight push from being doubled. Nothing here ever
// propagates an error; a missed coupling just waits for the normal
// backoff schedule.
type RetryCoupler struct {
	syncLogs sync.SyncLogRepository
	retries  sync.RetryJobRepository
	logger   *zap.Logger
}

// NewRetryCoupler creates a retry coupler
func NewRetryCoupler(syncLogs sync.SyncLogRepository, retries sync.RetryJobRepository, logger *zap.Logger) *RetryCoupler {
	return &RetryCoupler{syncLogs: syncLogs, retries: retries, logger: logger}
}

// RetryLinkedTransaction schedules an immediate retry of the document's
// push if its newest transmission failed or was left queued.
func (c *RetryCoupler) RetryLinkedTransaction(ctx context.Context, doctype, docname string) {
	if doctype == "" || docname == "" {
		return
	}

	latest, err := c.syncLogs.FindNewestForDocument(ctx, doctype, docname, []sync.LogStatus{sync.LogStatusFailed, sync.LogStatusQueued})
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			c.logger.Warn("Linked transaction lookup failed",
				zap.String("document_type", doctype),
				zap.String("document_name", docname),
				zap.Error(err))
		}
		return
	}

	open, err := c.retries.HasOpenJob(ctx, doctype, docname, sync.OperationPushVoucher)
	if err != nil {
		c.logger.Warn("Retry job lookup failed",
			zap.String("document_type", doctype),
			zap.String("document_name", docname),
			zap.Error(err))
		return
	}
	if open {
		return
	}

	job := sync.NewRetryJob(doctype, docname, sync.OperationPushVoucher, latest.ErrorMessage, true)
	if err := c.retries.Save(ctx, job); err != nil {
		c.logger.Warn("Failed to queue linked transaction retry",
			zap.String("document_type", doctype),
			zap.String("document_name", docname),
			zap.Error(err))
		return
	}

	c.logger.Info("Linked transaction queued for retry",
		zap.String("document_type", doctype),
		zap.String("document_name", docname),
		zap.String("job_id", job.ID.String()))
}

// RetryService drains due retry jobs. Each job re-invokes the operation
// that originally failed and the job either closes, requeues with backoff,
// or exhausts.
type RetryService struct {
	retries sync.RetryJobRepository
	router  *CreationRouter
	voucher *VoucherService
	batch   int
	logger  *zap.Logger
}

// NewRetryService creates a retry service
func NewRetryService(
	retries sync.RetryJobRepository,
	router *CreationRouter,
	voucher *VoucherService,
	batchLimit int,
	logger *zap.Logger,
) *RetryService {
	if batchLimit <= 0 {
		batchLimit = defaultRetryBatchLimit
	}
	return &RetryService{
		retries: retries,
		router:  router,
		voucher: voucher,
		batch:   batchLimit,
		logger:  logger,
	}
}

// ProcessDue picks up due retry jobs and runs them. One bad job never
// stops the batch.
func (s *RetryService) ProcessDue(ctx context.Context) (*RetryRunReport, error) {
	jobs, err := s.retries.FindDue(ctx, time.Now(), s.batch)
	if err != nil {
		return nil, err
	}

	report := &RetryRunReport{Scanned: len(jobs)}
	for i := range jobs {
		job := &jobs[i]
		if err := job.MarkInProgress(); err != nil {
			s.logger.Warn("Retry job no longer claimable", zap.String("job_id", job.ID.String()), zap.Error(err))
			continue
		}
		if err := s.retries.Save(ctx, job); err != nil {
			s.logger.Warn("Failed to claim retry job", zap.String("job_id", job.ID.String()), zap.Error(err))
			continue
		}

		runErr := s.runJob(ctx, job)
		if runErr != nil {
			job.RecordFailure(runErr.Error())
			if job.Status == sync.JobStatusFailed {
				report.Exhausted++
				s.logger.Warn("Retry job exhausted",
					zap.String("job_id", job.ID.String()),
					zap.String("document_type", job.DocumentType),
					zap.String("document_name", job.DocumentName),
					zap.Error(runErr))
			} else {
				report.Requeued++
			}
		} else {
			job.MarkSuccess()
			report.Succeeded++
		}

		if err := s.retries.Save(ctx, job); err != nil {
			s.logger.Error("Failed to save retry job outcome", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
	}
	return report, nil
}

func (s *RetryService) runJob(ctx context.Context, job *sync.RetryJob) error {
	switch job.Operation {
	case sync.OperationCreateMaster:
		return s.retryCreation(ctx, job)
	case sync.OperationPushVoucher:
		return s.retryVoucher(ctx, job)
	default:
		return shared.NewDomainError("UNKNOWN_OPERATION",
			fmt.Sprintf("Retry job carries unknown operation '%s'", job.Operation))
	}
}

// retryCreation reruns the creation router for the request the job points
// at. The router reports failures on the request itself, so the job
// outcome comes from re-reading the request status.
func (s *RetryService) retryCreation(ctx context.Context, job *sync.RetryJob) error {
	requestID, err := uuid.Parse(job.DocumentName)
	if err != nil {
		return shared.NewDomainError("INVALID_REFERENCE",
			fmt.Sprintf("Retry job does not reference a creation request: %s", job.DocumentName))
	}

	if err := s.router.Process(ctx, requestID); err != nil {
		return err
	}

	req, err := s.router.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if req.Status == request.StatusFailed {
		if req.SyncError != "" {
			return errors.New(req.SyncError)
		}
		return errors.New("master creation failed")
	}
	return nil
}

func (s *RetryService) retryVoucher(ctx context.Context, job *sync.RetryJob) error {
	result, err := s.voucher.PushSalesInvoice(ctx, job.DocumentName)
	if err != nil {
		return err
	}
	if !result.Success && !result.Skipped {
		return errors.New(result.Error)
	}
	return nil
}
