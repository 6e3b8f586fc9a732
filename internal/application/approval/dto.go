package approval

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tallybridge/backend/internal/domain/erp"
	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/request"
)

// CreateRequestInput carries operator input for raising a request manually
type CreateRequestInput struct {
	MasterType        string `json:"master_type"`
	MasterName        string `json:"master_name"`
	ParentGroup       string `json:"parent_group"`
	Priority          string `json:"priority"`
	SourceDoctype     string `json:"source_doctype"`
	SourceDocument    string `json:"source_document"`
	RequestedBy       string `json:"requested_by"`
	AssignedTo        string `json:"assigned_to"`
	LinkedDoctype     string `json:"linked_doctype"`
	LinkedTransaction string `json:"linked_transaction"`
}

// ApproveInput carries the approval decision with optional overrides of
// the target name and parent group
type ApproveInput struct {
	ApprovedBy     string `json:"approved_by"`
	ModifiedName   string `json:"modified_name"`
	ModifiedParent string `json:"modified_parent"`
}

// RejectInput carries the rejection decision. The reason is mandatory.
type RejectInput struct {
	RejectedBy string `json:"rejected_by"`
	Reason     string `json:"reason"`
}

// RequestResponse is the API projection of a creation request
type RequestResponse struct {
	ID                 uuid.UUID  `json:"id"`
	MasterType         string     `json:"master_type"`
	MasterName         string     `json:"master_name"`
	DisplayName        string     `json:"display_name"`
	ParentGroup        string     `json:"parent_group"`
	Priority           string     `json:"priority"`
	Status             string     `json:"status"`
	SourceDoctype      string     `json:"source_doctype,omitempty"`
	SourceDocument     string     `json:"source_document,omitempty"`
	RequestedBy        string     `json:"requested_by"`
	RequestDate        time.Time  `json:"request_date"`
	AssignedTo         string     `json:"assigned_to,omitempty"`
	ApprovedBy         string     `json:"approved_by,omitempty"`
	ApprovalDate       *time.Time `json:"approval_date,omitempty"`
	ModifiedName       string     `json:"modified_name,omitempty"`
	ModifiedParent     string     `json:"modified_parent,omitempty"`
	RejectedBy         string     `json:"rejected_by,omitempty"`
	RejectionDate      *time.Time `json:"rejection_date,omitempty"`
	RejectionReason    string     `json:"rejection_reason,omitempty"`
	TallyMasterCreated bool       `json:"tally_master_created"`
	CreatedInTallyAt   *time.Time `json:"created_in_tally_at,omitempty"`
	SyncLogID          *uuid.UUID `json:"sync_log_id,omitempty"`
	SyncError          string     `json:"sync_error,omitempty"`
	LinkedDoctype      string     `json:"linked_doctype,omitempty"`
	LinkedTransaction  string     `json:"linked_transaction,omitempty"`
	Version            int        `json:"version"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CreateRequestResult reports whether a new request was raised or an
// already open one was reused
type CreateRequestResult struct {
	Request RequestResponse `json:"request"`
	Reused  bool            `json:"reused"`
}

// RequestDetail extends the list projection with the source snapshot, the
// current state of the mirrored source document, and the notification
// history
type RequestDetail struct {
	RequestResponse
	SourceSnapshot      json.RawMessage             `json:"source_snapshot,omitempty"`
	LiveSource          *SourceDocumentView         `json:"live_source,omitempty"`
	NotificationHistory []request.NotificationEntry `json:"notification_history"`
}

// SourceDocumentView is the live state of the source document behind a
// request. Missing means the document has been deleted since the request
// was raised.
type SourceDocumentView struct {
	Doctype   string                `json:"doctype"`
	Docname   string                `json:"docname"`
	Company   string                `json:"company,omitempty"`
	Party     string                `json:"party,omitempty"`
	PartyName string                `json:"party_name,omitempty"`
	Lines     []erp.TransactionLine `json:"lines,omitempty"`
	Missing   bool                  `json:"missing,omitempty"`
}

// RequestStats summarizes the request backlog per status
type RequestStats struct {
	Counts map[string]int64 `json:"counts"`
	Open   int64            `json:"open"`
	Total  int64            `json:"total"`
}

// ToRequestResponse converts a creation request to its API projection
func ToRequestResponse(r *request.CreationRequest) RequestResponse {
	return RequestResponse{
		ID:                 r.ID,
		MasterType:         r.MasterType.String(),
		MasterName:         r.MasterName,
		DisplayName:        master.TruncateDisplay(r.MasterName),
		ParentGroup:        r.ParentGroup,
		Priority:           r.Priority.String(),
		Status:             r.Status.String(),
		SourceDoctype:      r.SourceDoctype,
		SourceDocument:     r.SourceDocument,
		RequestedBy:        r.RequestedBy,
		RequestDate:        r.RequestDate,
		AssignedTo:         r.AssignedTo,
		ApprovedBy:         r.ApprovedBy,
		ApprovalDate:       r.ApprovalDate,
		ModifiedName:       r.ModifiedName,
		ModifiedParent:     r.ModifiedParent,
		RejectedBy:         r.RejectedBy,
		RejectionDate:      r.RejectionDate,
		RejectionReason:    r.RejectionReason,
		TallyMasterCreated: r.TallyMasterCreated,
		CreatedInTallyAt:   r.CreatedInTallyAt,
		SyncLogID:          r.SyncLogID,
		SyncError:          r.SyncError,
		LinkedDoctype:      r.LinkedDoctype,
		LinkedTransaction:  r.LinkedTransaction,
		Version:            r.Version,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}
