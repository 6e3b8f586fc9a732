package request

import (
	"github.com/google/uuid"

	"github.com/tallybridge/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeCreationRequest = "CreationRequest"

// Event type constants
const (
	EventTypeRequestCreated   = "CreationRequestCreated"
	EventTypeRequestApproved  = "CreationRequestApproved"
	EventTypeRequestRejected  = "CreationRequestRejected"
	EventTypeRequestCompleted = "CreationRequestCompleted"
	EventTypeRequestFailed    = "CreationRequestFailed"
)

// RequestCreatedEvent is raised when a new creation request is submitted
type RequestCreatedEvent struct {
	shared.BaseDomainEvent
	RequestID   uuid.UUID `json:"request_id"`
	MasterType  string    `json:"master_type"`
	MasterName  string    `json:"master_name"`
	Priority    string    `json:"priority"`
	RequestedBy string    `json:"requested_by"`
	AssignedTo  string    `json:"assigned_to"`
}

// NewRequestCreatedEvent creates a new RequestCreatedEvent
func NewRequestCreatedEvent(r *CreationRequest) *RequestCreatedEvent {
	return &RequestCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestCreated, AggregateTypeCreationRequest, r.ID),
		RequestID:       r.ID,
		MasterType:      r.MasterType.String(),
		MasterName:      r.MasterName,
		Priority:        r.Priority.String(),
		RequestedBy:     r.RequestedBy,
		AssignedTo:      r.AssignedTo,
	}
}

// EventType returns the event type name
func (e *RequestCreatedEvent) EventType() string {
	return EventTypeRequestCreated
}

// RequestApprovedEvent is raised when a request is approved for creation
type RequestApprovedEvent struct {
	shared.BaseDomainEvent
	RequestID   uuid.UUID `json:"request_id"`
	MasterType  string    `json:"master_type"`
	MasterName  string    `json:"master_name"`
	ApprovedBy  string    `json:"approved_by"`
	RequestedBy string    `json:"requested_by"`
}

// NewRequestApprovedEvent creates a new RequestApprovedEvent
func NewRequestApprovedEvent(r *CreationRequest) *RequestApprovedEvent {
	return &RequestApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestApproved, AggregateTypeCreationRequest, r.ID),
		RequestID:       r.ID,
		MasterType:      r.MasterType.String(),
		MasterName:      r.MasterName,
		ApprovedBy:      r.ApprovedBy,
		RequestedBy:     r.RequestedBy,
	}
}

// EventType returns the event type name
func (e *RequestApprovedEvent) EventType() string {
	return EventTypeRequestApproved
}

// RequestRejectedEvent is raised when a request is rejected
type RequestRejectedEvent struct {
	shared.BaseDomainEvent
	RequestID   uuid.UUID `json:"request_id"`
	MasterType  string    `json:"master_type"`
	MasterName  string    `json:"master_name"`
	RejectedBy  string    `json:"rejected_by"`
	RequestedBy string    `json:"requested_by"`
	Reason      string    `json:"reason"`
}

// NewRequestRejectedEvent creates a new RequestRejectedEvent
func NewRequestRejectedEvent(r *CreationRequest) *RequestRejectedEvent {
	return &RequestRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestRejected, AggregateTypeCreationRequest, r.ID),
		RequestID:       r.ID,
		MasterType:      r.MasterType.String(),
		MasterName:      r.MasterName,
		RejectedBy:      r.RejectedBy,
		RequestedBy:     r.RequestedBy,
		Reason:          r.RejectionReason,
	}
}

// EventType returns the event type name
func (e *RequestRejectedEvent) EventType() string {
	return EventTypeRequestRejected
}

// RequestCompletedEvent is raised when the master has been created in Tally
type RequestCompletedEvent struct {
	shared.BaseDomainEvent
	RequestID   uuid.UUID `json:"request_id"`
	MasterType  string    `json:"master_type"`
	MasterName  string    `json:"master_name"`
	RequestedBy string    `json:"requested_by"`
	LinkedTxn   string    `json:"linked_transaction,omitempty"`
}

// NewRequestCompletedEvent creates a new RequestCompletedEvent
func NewRequestCompletedEvent(r *CreationRequest) *RequestCompletedEvent {
	return &RequestCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestCompleted, AggregateTypeCreationRequest, r.ID),
		RequestID:       r.ID,
		MasterType:      r.MasterType.String(),
		MasterName:      r.MasterName,
		RequestedBy:     r.RequestedBy,
		LinkedTxn:       r.LinkedTransaction,
	}
}

// EventType returns the event type name
func (e *RequestCompletedEvent) EventType() string {
	return EventTypeRequestCompleted
}

// RequestFailedEvent is raised when the remote creation attempt fails
type RequestFailedEvent struct {
	shared.BaseDomainEvent
	RequestID  uuid.UUID `json:"request_id"`
	MasterType string    `json:"master_type"`
	MasterName string    `json:"master_name"`
	AssignedTo string    `json:"assigned_to"`
	SyncError  string    `json:"sync_error"`
}

// NewRequestFailedEvent creates a new RequestFailedEvent
func NewRequestFailedEvent(r *CreationRequest) *RequestFailedEvent {
	return &RequestFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestFailed, AggregateTypeCreationRequest, r.ID),
		RequestID:       r.ID,
		MasterType:      r.MasterType.String(),
		MasterName:      r.MasterName,
		AssignedTo:      r.AssignedTo,
		SyncError:       r.SyncError,
	}
}

// EventType returns the event type name
func (e *RequestFailedEvent) EventType() string {
	return EventTypeRequestFailed
}
