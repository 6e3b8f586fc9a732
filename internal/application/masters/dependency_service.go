package masters

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/domain/erp"
	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/request"
	"github.com/tallybridge/backend/internal/domain/shared"
	"github.com/tallybridge/backend/internal/infrastructure/config"
)

// RequestRaiser raises approval-gated creation requests. The approval
// service implements it. reused=true reports an already open request for
// the same master and source document instead of a new one.
type RequestRaiser interface {
	Raise(ctx context.Context, in request.NewRequestInput) (req *request.CreationRequest, reused bool, err error)
}

// DependencyService resolves which Tally masters an ERP transaction needs
// before it can be synced, and raises creation requests for the missing
// ones. It only ever reads the local document mirror, never the ERP.
type DependencyService struct {
	store    erp.DocumentStore
	cache    *CacheService
	raiser   RequestRaiser
	enabled  bool
	defaults master.ParentDefaults
	logger   *zap.Logger
}

// NewDependencyService creates a new DependencyService
func NewDependencyService(store erp.DocumentStore, cache *CacheService, raiser RequestRaiser, cfg config.TallyConfig, logger *zap.Logger) *DependencyService {
	return &DependencyService{
		store:   store,
		cache:   cache,
		raiser:  raiser,
		enabled: cfg.Enabled,
		defaults: master.ParentDefaults{
			CustomerGroup: cfg.DefaultCustomerGroup,
			SupplierGroup: cfg.DefaultSupplierGroup,
			StockGroup:    cfg.DefaultStockGroup,
		},
		logger: logger,
	}
}

// CheckDependencies resolves the party ledger and per-line stock items a
// transaction depends on. Masters whose existence could not be verified are
// listed as missing with an error and block readiness, but are never
// treated as confident misses.
func (s *DependencyService) CheckDependencies(ctx context.Context, kind erp.TransactionKind, name, company string) (*DependencyReport, error) {
	report := &DependencyReport{
		TransactionKind: kind,
		TransactionName: name,
		Missing:         []MasterRequirement{},
		Existing:        []MasterRequirement{},
	}
	if !kind.IsValid() {
		report.ReadyToSync = true
		return report, nil
	}

	doc, err := s.store.GetTransaction(ctx, kind, name)
	if err != nil {
		return nil, err
	}

	s.addRequirement(report, s.partyRequirement(ctx, kind, doc, company))
	for _, item := range s.itemRequirements(ctx, doc) {
		s.addRequirement(report, item)
	}

	report.ReadyToSync = len(report.Missing) == 0
	return report, nil
}

// CreateRequestsForMissing checks the transaction and raises one creation
// request per confidently missing master. Masters already covered by an
// open request for this document are reported, not duplicated; per-master
// failures are collected without aborting the batch.
func (s *DependencyService) CreateRequestsForMissing(ctx context.Context, kind erp.TransactionKind, name, company, requestedBy string) (*RequestBatch, error) {
	report, err := s.CheckDependencies(ctx, kind, name, company)
	if err != nil {
		return nil, err
	}

	batch := &RequestBatch{
		TransactionKind: kind,
		TransactionName: name,
		ReadyToSync:     report.ReadyToSync,
		Requests:        []RaisedRequest{},
	}

	for _, m := range report.Missing {
		raised := RaisedRequest{
			MasterType: m.MasterType,
			MasterName: master.TruncateDisplay(m.MasterName),
		}

		if m.Error != "" {
			raised.Status = RaiseStatusSkipped
			raised.Error = m.Error
			batch.Requests = append(batch.Requests, raised)
			continue
		}

		req, reused, err := s.raiser.Raise(ctx, request.NewRequestInput{
			MasterType:     m.MasterType,
			MasterName:     m.MasterName,
			ParentGroup:    m.ParentGroup,
			SourceDoctype:  kind.String(),
			SourceDocument: name,
			SourceSnapshot: s.snapshot(kind, name, company, m),
			RequestedBy:    requestedBy,
			LinkedDoctype:  kind.String(),
			LinkedTxn:      name,
		})
		if err != nil {
			s.logger.Error("creation request failed",
				zap.String("master_type", m.MasterType.String()),
				zap.String("master_name", m.MasterName),
				zap.String("document", name),
				zap.Error(err))
			raised.Status = RaiseStatusFailed
			raised.Error = err.Error()
			batch.Requests = append(batch.Requests, raised)
			continue
		}

		raised.RequestID = req.ID
		if reused {
			raised.Status = RaiseStatusExists
		} else {
			raised.Status = RaiseStatusCreated
			batch.Created++
		}
		batch.Requests = append(batch.Requests, raised)
	}

	return batch, nil
}

// NotifySubmitted is the ERP submit hook entry point. It gates on the
// integration flag and raises requests for missing masters. Failures are
// reported in the result, never as an error: a submit must always succeed
// on the ERP side regardless of what happens here.
func (s *DependencyService) NotifySubmitted(ctx context.Context, doctype, docname, company, requestedBy string) *SubmitIntake {
	intake := &SubmitIntake{DocumentType: doctype, DocumentName: docname}

	if !s.enabled {
		intake.Skipped = true
		intake.Reason = "tally integration is disabled"
		return intake
	}

	kind, err := erp.ParseTransactionKind(doctype)
	if err != nil {
		intake.Skipped = true
		intake.Reason = "unsupported transaction doctype"
		return intake
	}

	batch, err := s.CreateRequestsForMissing(ctx, kind, docname, company, requestedBy)
	if err != nil {
		s.logger.Error("dependency scan failed on submit",
			zap.String("doctype", doctype),
			zap.String("docname", docname),
			zap.Error(err))
		intake.Error = err.Error()
		return intake
	}

	intake.Batch = batch
	return intake
}

// addRequirement files a requirement under existing or missing
func (s *DependencyService) addRequirement(report *DependencyReport, m MasterRequirement) {
	if m.Exists {
		report.Existing = append(report.Existing, m)
		return
	}
	report.Missing = append(report.Missing, m)
}

// partyRequirement resolves the transaction's party ledger: customer for
// sales documents, supplier for purchase documents.
func (s *DependencyService) partyRequirement(ctx context.Context, kind erp.TransactionKind, doc *erp.TransactionDocument, company string) MasterRequirement {
	partyType := kind.PartyType()
	display := doc.PartyDisplayName()
	account := ""

	if kind.IsSales() {
		customer, err := s.store.GetCustomer(ctx, doc.Party)
		if err == nil {
			display = customer.DisplayName()
			account = customer.AccountFor(company)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return MasterRequirement{MasterType: partyType, MasterName: master.SanitizeName(display), Error: err.Error()}
		}
	} else {
		supplier, err := s.store.GetSupplier(ctx, doc.Party)
		if err == nil {
			display = supplier.DisplayName()
			account = supplier.AccountFor(company)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return MasterRequirement{MasterType: partyType, MasterName: master.SanitizeName(display), Error: err.Error()}
		}
	}

	req := MasterRequirement{
		MasterType:  partyType,
		MasterName:  master.SanitizeName(display),
		DisplayName: display,
		ParentGroup: s.partyParent(ctx, account, partyType),
		SourceRef:   doc.Party,
	}
	s.resolveExistence(ctx, &req)
	return req
}

// itemRequirements resolves one stock item requirement per distinct line
// item. Lines whose item is not mirrored fall back to the line's own
// fields; the requirement is still checked against Tally.
func (s *DependencyService) itemRequirements(ctx context.Context, doc *erp.TransactionDocument) []MasterRequirement {
	var reqs []MasterRequirement
	seen := make(map[string]bool)

	for _, line := range doc.Lines {
		display := line.ItemName
		if display == "" {
			display = line.ItemCode
		}
		parent := s.defaults.StockGroupForItemGroup("")

		if line.ItemCode != "" {
			item, err := s.store.GetItem(ctx, line.ItemCode)
			if err == nil {
				display = item.DisplayName()
				parent = s.defaults.StockGroupForItemGroup(item.ItemGroup)
			} else if !errors.Is(err, shared.ErrNotFound) {
				s.logger.Warn("item mirror lookup failed",
					zap.String("item_code", line.ItemCode),
					zap.Error(err))
			}
		}
		if display == "" {
			continue
		}

		name := master.SanitizeName(display)
		key := master.NormalizeForCompare(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		req := MasterRequirement{
			MasterType:  master.TypeItem,
			MasterName:  name,
			DisplayName: display,
			ParentGroup: parent,
			SourceRef:   line.ItemCode,
		}
		s.resolveExistence(ctx, &req)
		reqs = append(reqs, req)
	}
	return reqs
}

// resolveExistence fills a requirement from SmartLookup. An unverifiable
// answer is recorded as an error, not a miss.
func (s *DependencyService) resolveExistence(ctx context.Context, req *MasterRequirement) {
	result, err := s.cache.SmartLookup(ctx, req.MasterType.Kind(), req.MasterName)
	if err != nil {
		req.Error = err.Error()
		return
	}
	req.Source = result.Source
	if !result.Success {
		req.Error = "existence could not be verified, tally unreachable and no cached answer"
		return
	}
	req.Exists = result.Exists
}

// partyParent walks the chart of accounts from the party's receivable or
// payable account to its parent account's display name. Any gap in the
// walk falls back to the configured default group.
func (s *DependencyService) partyParent(ctx context.Context, accountName string, partyType master.Type) string {
	fallback, _ := s.defaults.ParentFor(partyType)
	if accountName == "" {
		return fallback
	}

	account, err := s.store.GetAccount(ctx, accountName)
	if err != nil || account.ParentAccount == "" {
		return fallback
	}
	parent, err := s.store.GetAccount(ctx, account.ParentAccount)
	if err != nil {
		return fallback
	}
	return parent.DisplayName()
}

// snapshot captures the document context a request was raised from
func (s *DependencyService) snapshot(kind erp.TransactionKind, name, company string, m MasterRequirement) []byte {
	data, err := json.Marshal(map[string]string{
		"doctype":      kind.String(),
		"docname":      name,
		"company":      company,
		"master_type":  m.MasterType.String(),
		"display_name": m.DisplayName,
		"parent_group": m.ParentGroup,
		"source_ref":   m.SourceRef,
	})
	if err != nil {
		return nil
	}
	return data
}
