package tallysync

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/domain/erp"
	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/sync"
	"github.com/tallybridge/backend/internal/infrastructure/config"
	"github.com/tallybridge/backend/internal/infrastructure/tally"
	"github.com/tallybridge/backend/internal/infrastructure/telemetry"
)

// PayloadArchive stores the verbatim XML of a transmission in object
// storage and returns the storage key. A nil archive disables archival.
type PayloadArchive interface {
	ArchivePayloads(ctx context.Context, syncLogID uuid.UUID, requestXML, responseXML string) (string, error)
}

// VoucherService books submitted sales invoices into Tally as Sales
// vouchers. Before the push it verifies the party ledger, every stock
// item on the invoice, and the configured booking ledgers exist; the
// party ledger is auto-created when missing, the others are not because
// they need setup that goes through the approval flow or the Tally
// operator.
type VoucherService struct {
	transmitter
	store   erp.DocumentStore
	retries sync.RetryJobRepository
	archive PayloadArchive
	cfg     config.TallyConfig
	logger  *zap.Logger
}

// NewVoucherService creates a voucher service
func NewVoucherService(
	store erp.DocumentStore,
	syncLogs sync.SyncLogRepository,
	retries sync.RetryJobRepository,
	gateway Gateway,
	archive PayloadArchive,
	cfg config.TallyConfig,
	logger *zap.Logger,
) *VoucherService {
	return &VoucherService{
		transmitter: transmitter{gateway: gateway, syncLogs: syncLogs},
		store:       store,
		retries:     retries,
		archive:     archive,
		cfg:         cfg,
		logger:      logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *VoucherService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.metrics = bm
}

// PushSalesInvoice sends one sales invoice to Tally. Already synced
// invoices are skipped, draft and cancelled ones rejected. Push failures
// come back in the result, not as an error; retryable ones also schedule
// a retry job.
func (s *VoucherService) PushSalesInvoice(ctx context.Context, name string) (*VoucherPushResult, error) {
	inv, err := s.store.GetSalesInvoice(ctx, name)
	if err != nil {
		return nil, err
	}

	if !s.gateway.Enabled() {
		return nil, sync.ErrTallyDisabled
	}
	if !inv.IsSubmitted() {
		return nil, fmt.Errorf("%w: '%s' has status '%s'", sync.ErrVoucherNotSubmitted, name, erp.DocStatusName(inv.DocStatus))
	}
	if inv.TallySynced {
		return &VoucherPushResult{
			InvoiceName:   name,
			Skipped:       true,
			Reason:        "already booked in tally",
			VoucherNumber: inv.TallyVoucherNumber,
		}, nil
	}

	if result := s.ensurePartyLedger(ctx, inv); result != nil {
		return s.finishFailure(ctx, inv.Name, result), nil
	}
	if result := s.checkStockItems(ctx, inv); result != nil {
		return s.finishFailure(ctx, inv.Name, result), nil
	}
	if result := s.checkRequiredLedgers(ctx, inv); result != nil {
		// Booking ledgers are fixed in Tally out of band, so a retry job
		// rechecks later even though the failure class is validation
		s.scheduleRetry(ctx, inv.Name, result.Error)
		s.logger.Warn("Voucher push blocked by missing booking ledgers",
			zap.String("invoice", inv.Name),
			zap.Strings("missing_ledgers", result.MissingLedgers))
		return result, nil
	}

	payload := tally.BuildSalesVoucherPayload(inv, s.gateway.Company(), s.voucherLedgers())
	log, outcome, err := s.transmit(ctx, sync.SyncTypeVoucher, erp.TransactionSalesInvoice.String(), inv.Name, payload)
	if err != nil {
		return nil, err
	}

	s.archivePayloads(ctx, log)

	if !outcome.Success {
		result := &VoucherPushResult{
			InvoiceName: inv.Name,
			SyncLogID:   &log.ID,
			ErrorType:   outcome.ErrorType.String(),
			Error:       outcome.Error,
		}
		return s.finishFailure(ctx, inv.Name, result), nil
	}

	inv.MarkSynced(outcome.VoucherNumber)
	if err := s.store.SaveSalesInvoice(ctx, inv); err != nil {
		// The voucher is in Tally at this point. Losing the marker means a
		// later push will be rejected as a duplicate, which the operator
		// resolves from the sync log.
		s.logger.Error("Voucher booked but invoice marker save failed",
			zap.String("invoice", inv.Name),
			zap.String("voucher_number", outcome.VoucherNumber),
			zap.Error(err))
	}

	s.logger.Info("Voucher booked in Tally",
		zap.String("invoice", inv.Name),
		zap.String("voucher_number", outcome.VoucherNumber))

	return &VoucherPushResult{
		InvoiceName:   inv.Name,
		Success:       true,
		VoucherNumber: outcome.VoucherNumber,
		SyncLogID:     &log.ID,
	}, nil
}

// ensurePartyLedger auto-creates the customer ledger when Tally
// confidently reports it missing. The request flow normally creates it
// long before the invoice; this covers invoices whose party appeared out
// of band. Returns nil when the push can proceed.
func (s *VoucherService) ensurePartyLedger(ctx context.Context, inv *erp.SalesInvoice) *VoucherPushResult {
	name := inv.CustomerName
	if name == "" {
		name = inv.Customer
	}
	ledger := master.SanitizeName(name)
	if ledger == "" {
		return &VoucherPushResult{
			InvoiceName: inv.Name,
			ErrorType:   sync.ErrorTypeValidation.String(),
			Error:       "invoice has no customer to book against",
		}
	}

	res, err := s.gateway.CheckExists(ctx, master.KindLedger, ledger)
	if err != nil || !res.Success || res.Exists {
		// Unverifiable checks fall through to the Import, which reports
		// the real state
		return nil
	}

	parent := s.cfg.DefaultCustomerGroup
	if parent == "" {
		parent = master.GroupSundryDebtors
	}
	spec := tally.LedgerSpec{Name: ledger, Parent: parent, GSTIN: inv.CustomerGSTIN}
	log, outcome, err := s.transmit(ctx, sync.SyncTypeMaster, master.TypeCustomer.String(), ledger, tally.BuildLedgerPayload(spec))
	if err != nil {
		return &VoucherPushResult{
			InvoiceName: inv.Name,
			ErrorType:   sync.ErrorTypeApplication.String(),
			Error:       err.Error(),
		}
	}
	if !outcome.Success && !existsOutOfBand(outcome) {
		return &VoucherPushResult{
			InvoiceName: inv.Name,
			SyncLogID:   &log.ID,
			ErrorType:   outcome.ErrorType.String(),
			Error:       fmt.Sprintf("party ledger '%s' could not be created: %s", ledger, outcome.Error),
		}
	}

	s.logger.Info("Auto-created party ledger for voucher push",
		zap.String("invoice", inv.Name),
		zap.String("ledger", ledger),
		zap.String("parent", parent))
	return nil
}

// checkStockItems verifies every invoice line's item exists in Tally.
// Unverifiable checks are skipped; a confident miss blocks the push with
// a validation error so an operator raises a creation request.
func (s *VoucherService) checkStockItems(ctx context.Context, inv *erp.SalesInvoice) *VoucherPushResult {
	for _, raw := range inv.StockItemNames() {
		itemName := master.SanitizeName(raw)
		if itemName == "" {
			continue
		}
		res, err := s.gateway.CheckExists(ctx, master.KindStockItem, itemName)
		if err != nil || !res.Success {
			continue
		}
		if !res.Exists {
			return &VoucherPushResult{
				InvoiceName: inv.Name,
				ErrorType:   sync.ErrorTypeValidation.String(),
				Error:       fmt.Sprintf("stock item '%s' does not exist in tally, raise a creation request for it first", itemName),
			}
		}
	}
	return nil
}

// checkRequiredLedgers verifies the booking ledgers the voucher will
// post against: the sales ledger, the GST heads the invoice needs, and
// the round-off ledger when the adjustment warrants a line. Import does
// not create these, so a confident miss blocks the push with the full
// list. Unconfigured names and unverifiable checks are skipped.
func (s *VoucherService) checkRequiredLedgers(ctx context.Context, inv *erp.SalesInvoice) *VoucherPushResult {
	required := []string{s.cfg.SalesLedger}
	if inv.Interstate() {
		required = append(required, s.cfg.IGSTLedger)
	} else {
		required = append(required, s.cfg.CGSTLedger, s.cfg.SGSTLedger)
	}
	if inv.NeedsRoundOff() {
		required = append(required, s.cfg.RoundOffLedger)
	}

	var missing []string
	for _, name := range required {
		if name == "" {
			continue
		}
		res, err := s.gateway.CheckExists(ctx, master.KindLedger, name)
		if err != nil || !res.Success {
			continue
		}
		if !res.Exists {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	return &VoucherPushResult{
		InvoiceName:    inv.Name,
		ErrorType:      sync.ErrorTypeValidation.String(),
		Error:          fmt.Sprintf("required ledgers missing in tally: %s", strings.Join(missing, ", ")),
		MissingLedgers: missing,
	}
}

// finishFailure logs the failed push and schedules a retry when the
// failure class warrants one
func (s *VoucherService) finishFailure(ctx context.Context, invoiceName string, result *VoucherPushResult) *VoucherPushResult {
	s.logger.Warn("Voucher push failed",
		zap.String("invoice", invoiceName),
		zap.String("error_type", result.ErrorType),
		zap.String("error", result.Error))

	if sync.ErrorType(result.ErrorType).ShouldRetry() {
		s.scheduleRetry(ctx, invoiceName, result.Error)
	}
	return result
}

func (s *VoucherService) scheduleRetry(ctx context.Context, invoiceName, errMsg string) {
	doctype := erp.TransactionSalesInvoice.String()
	open, err := s.retries.HasOpenJob(ctx, doctype, invoiceName, sync.OperationPushVoucher)
	if err != nil {
		s.logger.Warn("Retry job lookup failed", zap.String("invoice", invoiceName), zap.Error(err))
		return
	}
	if open {
		return
	}
	job := sync.NewRetryJob(doctype, invoiceName, sync.OperationPushVoucher, errMsg, false)
	if err := s.retries.Save(ctx, job); err != nil {
		s.logger.Warn("Failed to queue voucher retry", zap.String("invoice", invoiceName), zap.Error(err))
		return
	}
	s.logger.Info("Voucher push queued for retry",
		zap.String("invoice", invoiceName),
		zap.Time("next_retry_at", job.NextRetryAt))
}

// archivePayloads copies the request and response XML to object storage
// and stamps the log with the key. Best effort; the log row keeps the
// payloads either way.
func (s *VoucherService) archivePayloads(ctx context.Context, log *sync.SyncLog) {
	if s.archive == nil {
		return
	}
	key, err := s.archive.ArchivePayloads(ctx, log.ID, log.RequestXML, log.ResponseXML)
	if err != nil {
		s.logger.Warn("Payload archive failed", zap.String("sync_log_id", log.ID.String()), zap.Error(err))
		return
	}
	log.SetArchiveKey(key)
	if err := s.syncLogs.Save(ctx, log); err != nil {
		s.logger.Warn("Archive key save failed", zap.String("sync_log_id", log.ID.String()), zap.Error(err))
	}
}

func (s *VoucherService) voucherLedgers() tally.VoucherLedgers {
	return tally.VoucherLedgers{
		Sales:    s.cfg.SalesLedger,
		CGST:     s.cfg.CGSTLedger,
		SGST:     s.cfg.SGSTLedger,
		IGST:     s.cfg.IGSTLedger,
		RoundOff: s.cfg.RoundOffLedger,
		Godown:   s.cfg.DefaultGodown,
	}
}
