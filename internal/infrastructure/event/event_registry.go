package event

import (
	"github.com/tallybridge/backend/internal/domain/request"
)

// RegisterAllEvents registers all domain event types with the serializer
// This is required for the OutboxProcessor to deserialize events from the outbox table
func RegisterAllEvents(serializer *EventSerializer) {
	// Creation request lifecycle events
	serializer.Register(request.EventTypeRequestCreated, &request.RequestCreatedEvent{})
	serializer.Register(request.EventTypeRequestApproved, &request.RequestApprovedEvent{})
	serializer.Register(request.EventTypeRequestRejected, &request.RequestRejectedEvent{})
	serializer.Register(request.EventTypeRequestCompleted, &request.RequestCompletedEvent{})
	serializer.Register(request.EventTypeRequestFailed, &request.RequestFailedEvent{})
}
