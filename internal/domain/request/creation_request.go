package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/shared"
)

// RequestStatus represents the approval workflow state of a creation request
type RequestStatus string

const (
	StatusPendingApproval RequestStatus = "Pending Approval"
	StatusApproved        RequestStatus = "Approved"
	StatusRejected        RequestStatus = "Rejected"
	StatusInProgress      RequestStatus = "In Progress"
	StatusCompleted       RequestStatus = "Completed"
	StatusFailed          RequestStatus = "Failed"
)

// IsValid checks if the status is a valid request status
func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusPendingApproval, StatusApproved, StatusRejected,
		StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// String returns the string representation
func (s RequestStatus) String() string {
	return string(s)
}

// AllowedTransitions returns the statuses reachable from this one
func (s RequestStatus) AllowedTransitions() []RequestStatus {
	switch s {
	case StatusPendingApproval:
		return []RequestStatus{StatusApproved, StatusRejected}
	case StatusApproved:
		return []RequestStatus{StatusInProgress}
	case StatusInProgress:
		return []RequestStatus{StatusCompleted, StatusFailed}
	case StatusFailed:
		// A failed creation can be retried
		return []RequestStatus{StatusInProgress}
	}
	// Rejected and Completed are terminal
	return nil
}

// CanTransitionTo checks if transitioning to the new status is allowed
func (s RequestStatus) CanTransitionTo(newStatus RequestStatus) bool {
	for _, allowed := range s.AllowedTransitions() {
		if allowed == newStatus {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s RequestStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// IsOpen reports whether the request still occupies its master slot.
// Open requests block duplicate requests for the same master.
func (s RequestStatus) IsOpen() bool {
	return s == StatusPendingApproval || s == StatusApproved || s == StatusInProgress
}

// OpenStatuses returns the statuses that count as open
func OpenStatuses() []RequestStatus {
	return []RequestStatus{StatusPendingApproval, StatusApproved, StatusInProgress}
}

// InvalidTransitionError reports a forbidden status transition together
// with what would have been allowed instead.
type InvalidTransitionError struct {
	From RequestStatus
	To   RequestStatus
}

// Error implements the error interface
func (e *InvalidTransitionError) Error() string {
	allowed := e.From.AllowedTransitions()
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = s.String()
	}
	if len(names) == 0 {
		return fmt.Sprintf("invalid status transition from '%s' to '%s': '%s' is terminal", e.From, e.To, e.From)
	}
	return fmt.Sprintf("invalid status transition from '%s' to '%s'. Allowed: %s", e.From, e.To, strings.Join(names, ", "))
}

// Priority orders requests in approval queues
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityNormal Priority = "Normal"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

// IsValid checks if the priority is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Weight returns the sort weight, higher is more urgent
func (p Priority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// String returns the string representation
func (p Priority) String() string {
	return string(p)
}

// NotificationEntry is one line of a request's notification history
type NotificationEntry struct {
	Timestamp        time.Time `json:"timestamp"`
	Event            string    `json:"event"`
	Recipient        string    `json:"recipient"`
	RecipientName    string    `json:"recipient_name,omitempty"`
	NotificationType string    `json:"notification_type"`
}

// MaxSyncErrorLength bounds the stored creation error text
const MaxSyncErrorLength = 1000

// CreationRequest is an approval-gated order to create one master in Tally.
// It moves through Pending Approval, Approved, In Progress and ends in
// Completed, Failed (retryable) or Rejected.
type CreationRequest struct {
	shared.BaseAggregateRoot
	MasterType  master.Type   `gorm:"type:varchar(32);not null;index"`
	MasterName  string        `gorm:"type:varchar(100);not null"`
	ParentGroup string        `gorm:"type:varchar(255)"`
	Priority    Priority      `gorm:"type:varchar(16);not null;default:'Normal'"`
	Status      RequestStatus `gorm:"type:varchar(32);not null;index"`

	// Source document the request was raised for
	SourceDoctype  string         `gorm:"type:varchar(64)"`
	SourceDocument string         `gorm:"type:varchar(255);index"`
	SourceSnapshot datatypes.JSON `gorm:"type:jsonb"`

	RequestedBy string    `gorm:"type:varchar(255);not null"`
	RequestDate time.Time `gorm:"not null"`
	AssignedTo  string    `gorm:"type:varchar(255);index"`

	ApprovedBy      string `gorm:"type:varchar(255)"`
	ApprovalDate    *time.Time
	ModifiedName    string `gorm:"type:varchar(100)"`
	ModifiedParent  string `gorm:"type:varchar(255)"`
	RejectedBy      string `gorm:"type:varchar(255)"`
	RejectionDate   *time.Time
	RejectionReason string `gorm:"type:text"`

	// Creation outcome
	TallyMasterCreated bool `gorm:"not null;default:false"`
	CreatedInTallyAt   *time.Time
	SyncLogID          *uuid.UUID `gorm:"type:uuid"`
	SyncError          string     `gorm:"type:varchar(1000)"`

	// Transaction waiting on this master, retried after completion
	LinkedDoctype     string `gorm:"type:varchar(64)"`
	LinkedTransaction string `gorm:"type:varchar(255)"`

	NotificationHistory datatypes.JSONSlice[NotificationEntry] `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (CreationRequest) TableName() string {
	return "creation_requests"
}

// NewRequestInput carries everything needed to raise a creation request
type NewRequestInput struct {
	MasterType     master.Type
	MasterName     string
	ParentGroup    string
	Priority       Priority
	SourceDoctype  string
	SourceDocument string
	SourceSnapshot []byte
	RequestedBy    string
	AssignedTo     string
	LinkedDoctype  string
	LinkedTxn      string
}

// NewCreationRequest raises a request in Pending Approval. The master name
// must already be sanitized; names beyond the Tally limit are refused.
func NewCreationRequest(in NewRequestInput) (*CreationRequest, error) {
	if !in.MasterType.IsValid() {
		return nil, shared.NewDomainError("UNSUPPORTED_MASTER_TYPE", fmt.Sprintf("Unsupported master type '%s'", in.MasterType))
	}
	if strings.TrimSpace(in.MasterName) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Master name cannot be empty")
	}
	if len(in.MasterName) > master.MaxNameLength {
		return nil, shared.NewDomainError("INVALID_INPUT", "Master name exceeds 100 characters (Tally limit)")
	}
	if in.RequestedBy == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Requester cannot be empty")
	}
	if in.Priority == "" {
		in.Priority = PriorityNormal
	}
	if !in.Priority.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid priority '%s'", in.Priority))
	}

	req := &CreationRequest{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		MasterType:          in.MasterType,
		MasterName:          in.MasterName,
		ParentGroup:         in.ParentGroup,
		Priority:            in.Priority,
		Status:              StatusPendingApproval,
		SourceDoctype:       in.SourceDoctype,
		SourceDocument:      in.SourceDocument,
		SourceSnapshot:      in.SourceSnapshot,
		RequestedBy:         in.RequestedBy,
		RequestDate:         time.Now(),
		AssignedTo:          in.AssignedTo,
		LinkedDoctype:       in.LinkedDoctype,
		LinkedTransaction:   in.LinkedTxn,
		NotificationHistory: datatypes.JSONSlice[NotificationEntry]{},
	}

	req.appendHistory("created", req.AssignedTo)
	req.AddDomainEvent(NewRequestCreatedEvent(req))
	return req, nil
}

// transitionTo moves the request to the next status or fails without
// touching it.
func (r *CreationRequest) transitionTo(next RequestStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return &InvalidTransitionError{From: r.Status, To: next}
	}
	r.Status = next
	r.UpdatedAt = time.Now()
	return nil
}

// Approve locks the request in for creation. Operator overrides of the
// target name and parent group are applied before the transition.
func (r *CreationRequest) Approve(approver, modifiedName, modifiedParent string) error {
	if modifiedName != "" && len(modifiedName) > master.MaxNameLength {
		return shared.NewDomainError("INVALID_INPUT", "Master name exceeds 100 characters (Tally limit)")
	}
	if err := r.transitionTo(StatusApproved); err != nil {
		return err
	}
	if modifiedName != "" {
		r.ModifiedName = modifiedName
		r.MasterName = modifiedName
	}
	if modifiedParent != "" {
		r.ModifiedParent = modifiedParent
		r.ParentGroup = modifiedParent
	}
	now := time.Now()
	r.ApprovedBy = approver
	r.ApprovalDate = &now
	r.appendHistory("approved", r.RequestedBy)
	r.AddDomainEvent(NewRequestApprovedEvent(r))
	return nil
}

// Reject closes the request without any remote call. A reason is mandatory.
func (r *CreationRequest) Reject(rejecter, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Rejection reason is mandatory")
	}
	if err := r.transitionTo(StatusRejected); err != nil {
		return err
	}
	now := time.Now()
	r.RejectedBy = rejecter
	r.RejectionDate = &now
	r.RejectionReason = reason
	r.appendHistory("rejected", r.RequestedBy)
	r.AddDomainEvent(NewRequestRejectedEvent(r))
	return nil
}

// StartProcessing marks the request as being created. Valid from Approved
// and, for retries, from Failed. A retry clears the previous error.
func (r *CreationRequest) StartProcessing() error {
	retrying := r.Status == StatusFailed
	if err := r.transitionTo(StatusInProgress); err != nil {
		return err
	}
	if retrying {
		r.SyncError = ""
	}
	return nil
}

// Complete records a successful creation in Tally
func (r *CreationRequest) Complete(syncLogID *uuid.UUID) error {
	if err := r.transitionTo(StatusCompleted); err != nil {
		return err
	}
	now := time.Now()
	r.TallyMasterCreated = true
	r.CreatedInTallyAt = &now
	r.SyncLogID = syncLogID
	r.SyncError = ""
	r.appendHistory("completed", r.RequestedBy)
	r.AddDomainEvent(NewRequestCompletedEvent(r))
	return nil
}

// Fail records a failed creation attempt. The error text is truncated to
// fit the stored column.
func (r *CreationRequest) Fail(syncErr string, syncLogID *uuid.UUID) error {
	if err := r.transitionTo(StatusFailed); err != nil {
		return err
	}
	if len(syncErr) > MaxSyncErrorLength {
		syncErr = syncErr[:MaxSyncErrorLength]
	}
	r.SyncError = syncErr
	r.SyncLogID = syncLogID
	r.appendHistory("failed", r.AssignedTo)
	r.AddDomainEvent(NewRequestFailedEvent(r))
	return nil
}

// HasLinkedTransaction reports whether a transaction is waiting on this master
func (r *CreationRequest) HasLinkedTransaction() bool {
	return r.LinkedTransaction != ""
}

// TallyKind returns the Tally object class the request creates
func (r *CreationRequest) TallyKind() master.Kind {
	return r.MasterType.Kind()
}

// AppendNotification records a delivered notification in the history
func (r *CreationRequest) AppendNotification(entry NotificationEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.NotificationType == "" {
		entry.NotificationType = "email"
	}
	r.NotificationHistory = append(r.NotificationHistory, entry)
	r.UpdatedAt = time.Now()
}

func (r *CreationRequest) appendHistory(event, recipient string) {
	r.NotificationHistory = append(r.NotificationHistory, NotificationEntry{
		Timestamp:        time.Now(),
		Event:            event,
		Recipient:        recipient,
		NotificationType: "email",
	})
}
