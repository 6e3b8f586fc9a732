package tallysync

import (
	"context"
	"fmt"

	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/sync"
	"github.com/tallybridge/backend/internal/infrastructure/tally"
	"github.com/tallybridge/backend/internal/infrastructure/telemetry"
)

// Gateway is the slice of the Tally client the sync services depend on.
// *tally.Gateway satisfies it; tests substitute a scripted fake.
type Gateway interface {
	Enabled() bool
	Company() string
	Connectivity(ctx context.Context) (*tally.ConnectivityStatus, error)
	VerifyCompany(ctx context.Context) (*tally.CompanyCheck, error)
	CheckExists(ctx context.Context, kind master.Kind, name string) (master.ExistenceResult, error)
	Send(ctx context.Context, payload string) (*tally.SendOutcome, error)
}

var _ Gateway = (*tally.Gateway)(nil)

// transmitter owns the transmission log lifecycle around one gateway send.
// Every attempt gets its own log; the log always carries the verbatim
// request and response payloads.
type transmitter struct {
	gateway  Gateway
	syncLogs sync.SyncLogRepository
	metrics  *telemetry.BusinessMetrics
}

// transmit queues a log, posts the payload and finishes the log with the
// reply. The error return is for infrastructure failures only; gateway
// rejections come back in the outcome with the log already marked failed.
func (t *transmitter) transmit(ctx context.Context, syncType sync.SyncType, docType, docName, payload string) (*sync.SyncLog, *tally.SendOutcome, error) {
	log := sync.NewSyncLog(syncType, docType, docName, t.gateway.Company(), payload)
	if err := t.syncLogs.Save(ctx, log); err != nil {
		return nil, nil, fmt.Errorf("failed to queue sync log: %w", err)
	}
	if err := log.MarkInProgress(); err != nil {
		return nil, nil, err
	}
	if err := t.syncLogs.Save(ctx, log); err != nil {
		return nil, nil, err
	}

	outcome, err := t.gateway.Send(ctx, payload)
	if err != nil {
		// Send fails without touching the wire only when the integration
		// is switched off
		_ = log.MarkFailed("", 0, sync.ErrorTypeApplication, err.Error())
		if saveErr := t.syncLogs.Save(ctx, log); saveErr != nil {
			return log, nil, saveErr
		}
		return log, nil, err
	}

	if outcome.Success {
		if err := log.MarkSuccess(outcome.Response, outcome.StatusCode); err != nil {
			return log, outcome, err
		}
		if outcome.VoucherNumber != "" {
			log.SetVoucherNumber(outcome.VoucherNumber)
		}
	} else {
		if err := log.MarkFailed(outcome.Response, outcome.StatusCode, outcome.ErrorType, outcome.Error); err != nil {
			return log, outcome, err
		}
	}
	t.recordTransmission(ctx, syncType, outcome.Success)
	if err := t.syncLogs.Save(ctx, log); err != nil {
		return log, outcome, err
	}
	return log, outcome, nil
}

// recordTransmission reports the send to the metrics collector when one
// is attached
func (t *transmitter) recordTransmission(ctx context.Context, syncType sync.SyncType, success bool) {
	if t.metrics == nil {
		return
	}
	outcome := telemetry.SyncOutcomeFailed
	if success {
		outcome = telemetry.SyncOutcomeSuccess
	}
	t.metrics.RecordTransmission(ctx, string(syncType), outcome)
}
