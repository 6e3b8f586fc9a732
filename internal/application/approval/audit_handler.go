package approval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/domain/request"
	"github.com/tallybridge/backend/internal/domain/shared"
)

// RequestAuditHandler subscribes to creation request lifecycle events and
// writes one structured audit entry per transition. The audit trail is what
// accounting reviews when a master shows up in Tally that nobody remembers
// approving, so every event carries the actors involved.
type RequestAuditHandler struct {
	logger *zap.Logger
}

// NewRequestAuditHandler creates a handler that records request lifecycle
// events to the audit log.
func NewRequestAuditHandler(logger *zap.Logger) *RequestAuditHandler {
	return &RequestAuditHandler{
		logger: logger.With(zap.String("audit", "creation_request")),
	}
}

// EventTypes returns the event types this handler is interested in
func (h *RequestAuditHandler) EventTypes() []string {
	return []string{
		request.EventTypeRequestCreated,
		request.EventTypeRequestApproved,
		request.EventTypeRequestRejected,
		request.EventTypeRequestCompleted,
		request.EventTypeRequestFailed,
	}
}

// Handle records the lifecycle event. Audit entries are append-only log
// records; a handler error here only delays outbox acknowledgement, it never
// rolls back the state transition that produced the event.
func (h *RequestAuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *request.RequestCreatedEvent:
		h.logger.Info("request submitted",
			zap.String("request_id", e.RequestID.String()),
			zap.String("master_type", e.MasterType),
			zap.String("master_name", e.MasterName),
			zap.String("priority", e.Priority),
			zap.String("requested_by", e.RequestedBy),
			zap.String("assigned_to", e.AssignedTo),
		)
	case *request.RequestApprovedEvent:
		h.logger.Info("request approved",
			zap.String("request_id", e.RequestID.String()),
			zap.String("master_type", e.MasterType),
			zap.String("master_name", e.MasterName),
			zap.String("approved_by", e.ApprovedBy),
			zap.String("requested_by", e.RequestedBy),
		)
	case *request.RequestRejectedEvent:
		h.logger.Info("request rejected",
			zap.String("request_id", e.RequestID.String()),
			zap.String("master_type", e.MasterType),
			zap.String("master_name", e.MasterName),
			zap.String("rejected_by", e.RejectedBy),
			zap.String("requested_by", e.RequestedBy),
			zap.String("reason", e.Reason),
		)
	case *request.RequestCompletedEvent:
		h.logger.Info("request completed",
			zap.String("request_id", e.RequestID.String()),
			zap.String("master_type", e.MasterType),
			zap.String("master_name", e.MasterName),
			zap.String("requested_by", e.RequestedBy),
			zap.String("linked_transaction", e.LinkedTxn),
		)
	case *request.RequestFailedEvent:
		h.logger.Warn("request failed",
			zap.String("request_id", e.RequestID.String()),
			zap.String("master_type", e.MasterType),
			zap.String("master_name", e.MasterName),
			zap.String("assigned_to", e.AssignedTo),
			zap.String("sync_error", e.SyncError),
		)
	default:
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	return nil
}
