package request

import "context"

// NotificationEvent names the lifecycle moment a notification reports
type NotificationEvent string

const (
	NotifyCreated   NotificationEvent = "created"
	NotifyApproved  NotificationEvent = "approved"
	NotifyRejected  NotificationEvent = "rejected"
	NotifyCompleted NotificationEvent = "completed"
	NotifyFailed    NotificationEvent = "failed"
)

// Recipient is who a notification goes to
type Recipient struct {
	Email string
	Name  string
}

// Notifier delivers request lifecycle notifications. Delivery happens after
// the status change is persisted; a failed delivery must never undo or block
// the transition.
type Notifier interface {
	Notify(ctx context.Context, event NotificationEvent, req *CreationRequest, to Recipient) error
}
