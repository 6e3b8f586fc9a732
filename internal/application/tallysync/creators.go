package tallysync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/request"
	"github.com/tallybridge/backend/internal/domain/sync"
	"github.com/tallybridge/backend/internal/infrastructure/tally"
)

// defaultBaseUnit is used when the mirrored item does not name a UOM
const defaultBaseUnit = "Nos"

// sourceSnapshot is the document context captured when a request was
// raised. Only the fields the creators need are decoded.
type sourceSnapshot struct {
	Doctype   string `json:"doctype"`
	Docname   string `json:"docname"`
	Company   string `json:"company"`
	SourceRef string `json:"source_ref"`
}

func decodeSnapshot(raw []byte) sourceSnapshot {
	var snap sourceSnapshot
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &snap)
	}
	return snap
}

// existsOutOfBand reports whether a rejection means the master is already
// present, which for creation purposes is done
func existsOutOfBand(outcome *tally.SendOutcome) bool {
	return strings.Contains(strings.ToLower(outcome.Error), "already exists")
}

// createLedger creates a customer or supplier ledger. The parent group is
// auto-created under the matching built-in group when Tally does not know
// it yet.
func (r *CreationRouter) createLedger(ctx context.Context, req *request.CreationRequest) creationOutcome {
	if req.ParentGroup == "" {
		return validationFailure(fmt.Errorf("%w for ledger '%s'", sync.ErrCannotDetermineParent, req.MasterName))
	}
	if r.masterAlreadyInTally(ctx, req) {
		return creationOutcome{}
	}
	if out := r.ensureAccountGroup(ctx, req); out != nil {
		return *out
	}

	spec := tally.LedgerSpec{Name: req.MasterName, Parent: req.ParentGroup}
	snap := decodeSnapshot([]byte(req.SourceSnapshot))
	if snap.SourceRef != "" {
		if req.MasterType == master.TypeCustomer {
			if customer, err := r.store.GetCustomer(ctx, snap.SourceRef); err == nil {
				spec.GSTIN = customer.GSTIN
			}
		} else {
			if supplier, err := r.store.GetSupplier(ctx, snap.SourceRef); err == nil {
				spec.GSTIN = supplier.GSTIN
			}
		}
	}
	return r.sendMaster(ctx, req, tally.BuildLedgerPayload(spec))
}

func (r *CreationRouter) createGroup(ctx context.Context, req *request.CreationRequest) creationOutcome {
	if req.ParentGroup == "" {
		return validationFailure(fmt.Errorf("%w for group '%s'", sync.ErrCannotDetermineParent, req.MasterName))
	}
	if r.masterAlreadyInTally(ctx, req) {
		return creationOutcome{}
	}
	payload := tally.BuildGroupPayload(tally.GroupSpec{Name: req.MasterName, Parent: req.ParentGroup})
	return r.sendMaster(ctx, req, payload)
}

func (r *CreationRouter) createStockGroup(ctx context.Context, req *request.CreationRequest) creationOutcome {
	if req.ParentGroup == "" {
		return validationFailure(fmt.Errorf("%w for stock group '%s'", sync.ErrCannotDetermineParent, req.MasterName))
	}
	if r.masterAlreadyInTally(ctx, req) {
		return creationOutcome{}
	}
	payload := tally.BuildStockGroupPayload(tally.StockGroupSpec{Name: req.MasterName, Parent: req.ParentGroup})
	return r.sendMaster(ctx, req, payload)
}

// createStockItem creates a stock item under its stock group. Both the
// stock group and the base unit are auto-created first when missing.
func (r *CreationRouter) createStockItem(ctx context.Context, req *request.CreationRequest) creationOutcome {
	if req.ParentGroup == "" {
		return validationFailure(fmt.Errorf("%w for stock item '%s'", sync.ErrCannotDetermineParent, req.MasterName))
	}
	if r.masterAlreadyInTally(ctx, req) {
		return creationOutcome{}
	}
	if out := r.ensureStockGroup(ctx, req.ParentGroup); out != nil {
		return *out
	}

	spec := tally.StockItemSpec{
		Name:      req.MasterName,
		Parent:    req.ParentGroup,
		BaseUnits: defaultBaseUnit,
	}
	snap := decodeSnapshot([]byte(req.SourceSnapshot))
	if snap.SourceRef != "" {
		spec.Alias = snap.SourceRef
		if item, err := r.store.GetItem(ctx, snap.SourceRef); err == nil && item.StockUOM != "" {
			spec.BaseUnits = item.StockUOM
		}
	}
	if out := r.ensureUnit(ctx, spec.BaseUnits); out != nil {
		return *out
	}
	return r.sendMaster(ctx, req, tally.BuildStockItemPayload(spec))
}

func (r *CreationRouter) createUnit(ctx context.Context, req *request.CreationRequest) creationOutcome {
	if r.masterAlreadyInTally(ctx, req) {
		return creationOutcome{}
	}
	payload := tally.BuildUnitPayload(tally.UnitSpec{Symbol: req.MasterName, FormalName: req.MasterName})
	return r.sendMaster(ctx, req, payload)
}

func (r *CreationRouter) createGodown(ctx context.Context, req *request.CreationRequest) creationOutcome {
	if r.masterAlreadyInTally(ctx, req) {
		return creationOutcome{}
	}
	payload := tally.BuildGodownPayload(tally.GodownSpec{Name: req.MasterName, Parent: req.ParentGroup})
	return r.sendMaster(ctx, req, payload)
}

// masterAlreadyInTally answers the pre-flight live check. A hit completes
// the request without transmitting anything. An unreachable gateway is not
// a miss; creation proceeds and the Import itself reports the failure.
func (r *CreationRouter) masterAlreadyInTally(ctx context.Context, req *request.CreationRequest) bool {
	res, err := r.gateway.CheckExists(ctx, req.TallyKind(), req.MasterName)
	if err != nil || !res.Success || !res.Exists {
		return false
	}
	r.writeCacheBack(ctx, req.TallyKind(), req.MasterName, req.ParentGroup)
	r.logger.Info("Master already present in Tally, completing without an Import",
		zap.String("request_id", req.ID.String()),
		zap.String("name", req.MasterName))
	return true
}

// ensureAccountGroup creates the ledger's parent group under the matching
// built-in group when it does not exist yet. A nil return means the parent
// is in place (or unverifiable, in which case the ledger Import itself
// surfaces the real state).
func (r *CreationRouter) ensureAccountGroup(ctx context.Context, req *request.CreationRequest) *creationOutcome {
	parent := req.ParentGroup
	if parent == master.GroupSundryDebtors || parent == master.GroupSundryCreditors {
		return nil
	}
	under := master.GroupSundryCreditors
	if req.MasterType == master.TypeCustomer {
		under = master.GroupSundryDebtors
	}
	return r.ensureGroup(ctx, master.KindGroup, parent, under, func() string {
		return tally.BuildGroupPayload(tally.GroupSpec{Name: parent, Parent: under})
	})
}

// ensureStockGroup creates the item's stock group under Primary when it
// does not exist yet
func (r *CreationRouter) ensureStockGroup(ctx context.Context, parent string) *creationOutcome {
	if parent == master.GroupPrimary {
		return nil
	}
	return r.ensureGroup(ctx, master.KindStockGroup, parent, master.GroupPrimary, func() string {
		return tally.BuildStockGroupPayload(tally.StockGroupSpec{Name: parent, Parent: master.GroupPrimary})
	})
}

// ensureUnit creates the base unit when Tally does not know it yet
func (r *CreationRouter) ensureUnit(ctx context.Context, symbol string) *creationOutcome {
	if symbol == "" {
		return nil
	}
	return r.ensureGroup(ctx, master.KindUnit, symbol, "", func() string {
		return tally.BuildUnitPayload(tally.UnitSpec{Symbol: symbol, FormalName: symbol})
	})
}

// ensureGroup is the shared check-then-create for intermediate masters a
// creation depends on. Each auto-creation gets its own transmission log.
func (r *CreationRouter) ensureGroup(ctx context.Context, kind master.Kind, name, parent string, buildPayload func() string) *creationOutcome {
	res, err := r.gateway.CheckExists(ctx, kind, name)
	if err != nil || !res.Success {
		return nil
	}
	if res.Exists {
		return nil
	}

	log, outcome, err := r.transmit(ctx, sync.SyncTypeMaster, kind.String(), name, buildPayload())
	if err != nil {
		return &creationOutcome{errType: sync.ErrorTypeApplication, err: err}
	}
	if !outcome.Success && !existsOutOfBand(outcome) {
		return &creationOutcome{
			syncLogID: &log.ID,
			errType:   outcome.ErrorType,
			err:       fmt.Errorf("%w: '%s': %s", sync.ErrParentMissing, name, outcome.Error),
		}
	}
	r.writeCacheBack(ctx, kind, name, parent)
	return nil
}

// sendMaster transmits one master payload and folds the outcome into the
// request lifecycle. A rejection because the master already exists still
// counts as created; the transmission log keeps the verbatim refusal.
func (r *CreationRouter) sendMaster(ctx context.Context, req *request.CreationRequest, payload string) creationOutcome {
	log, outcome, err := r.transmit(ctx, sync.SyncTypeMaster, req.MasterType.String(), req.MasterName, payload)
	if err != nil {
		return creationOutcome{errType: sync.ErrorTypeApplication, err: err}
	}
	if !outcome.Success && !existsOutOfBand(outcome) {
		return creationOutcome{
			syncLogID: &log.ID,
			errType:   outcome.ErrorType,
			err:       errors.New(outcome.Error),
		}
	}
	r.writeCacheBack(ctx, req.TallyKind(), req.MasterName, req.ParentGroup)
	return creationOutcome{syncLogID: &log.ID}
}

func (r *CreationRouter) writeCacheBack(ctx context.Context, kind master.Kind, name, parent string) {
	if err := r.cache.UpsertActive(ctx, kind, name, parent, master.SyncSourceLive); err != nil {
		r.logger.Warn("Existence cache write back failed",
			zap.String("kind", kind.String()),
			zap.String("name", name),
			zap.Error(err))
	}
}
