// Package notification provides delivery implementations for request
// lifecycle notifications.
package notification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/domain/request"
)

// LogNotifier is the default Notifier implementation. It renders the
// notification a mail channel would send and writes it to the structured
// log. Use this until an outbound mail gateway is configured; the request's
// own notification history is recorded by the aggregate either way.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Ensure LogNotifier implements request.Notifier
var _ request.Notifier = (*LogNotifier)(nil)

// Notify logs one rendered notification. It fails only on a missing
// recipient; callers treat delivery as best effort.
func (n *LogNotifier) Notify(ctx context.Context, event request.NotificationEvent, req *request.CreationRequest, to request.Recipient) error {
	if req == nil {
		return errors.New("request is required")
	}
	if to.Email == "" {
		return errors.New("recipient email is required")
	}

	fields := []zap.Field{
		zap.String("event", string(event)),
		zap.String("request_id", req.ID.String()),
		zap.String("master_type", req.MasterType.String()),
		zap.String("master_name", req.MasterName),
		zap.String("recipient", to.Email),
	}
	if to.Name != "" {
		fields = append(fields, zap.String("recipient_name", to.Name))
	}
	switch event {
	case request.NotifyRejected:
		if req.RejectionReason != "" {
			fields = append(fields, zap.String("reason", req.RejectionReason))
		}
	case request.NotifyCompleted:
		if req.HasLinkedTransaction() {
			fields = append(fields, zap.String("linked_transaction", req.LinkedTransaction))
		}
	case request.NotifyFailed:
		if req.SyncError != "" {
			fields = append(fields, zap.String("error", req.SyncError))
		}
	}
	fields = append(fields, zap.String("subject", Subject(event, req)))

	n.logger.Info("Notification delivered", fields...)
	return nil
}

// Subject renders the mail subject line for a lifecycle event.
func Subject(event request.NotificationEvent, req *request.CreationRequest) string {
	switch event {
	case request.NotifyCreated:
		return fmt.Sprintf("New master creation request: %s", req.MasterName)
	case request.NotifyApproved:
		return fmt.Sprintf("Request approved: %s", req.MasterName)
	case request.NotifyRejected:
		return fmt.Sprintf("Request rejected: %s", req.MasterName)
	case request.NotifyCompleted:
		return fmt.Sprintf("Tally master created: %s", req.MasterName)
	case request.NotifyFailed:
		return fmt.Sprintf("Tally master creation failed: %s", req.MasterName)
	default:
		return fmt.Sprintf("Request update: %s", req.MasterName)
	}
}
