package masters

import (
	"github.com/google/uuid"

	"github.com/tallybridge/backend/internal/domain/erp"
	"github.com/tallybridge/backend/internal/domain/master"
)

// BatchCheckItem names one master to check
type BatchCheckItem struct {
	Kind master.Kind `json:"kind"`
	Name string      `json:"name"`
}

// BatchCheckResult is the answer for one batch item
type BatchCheckResult struct {
	Kind   master.Kind          `json:"kind"`
	Name   string               `json:"name"`
	Result *master.LookupResult `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// CacheStats reports active cache rows per kind
type CacheStats struct {
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// MasterRequirement is one master a transaction depends on. SourceRef is
// the ERP document name of the mirrored master (party code or item code)
// so later stages can re-read the mirror for payload details.
type MasterRequirement struct {
	MasterType  master.Type `json:"master_type"`
	MasterName  string      `json:"master_name"`
	DisplayName string      `json:"display_name,omitempty"`
	ParentGroup string      `json:"parent_group,omitempty"`
	SourceRef   string      `json:"source_ref,omitempty"`
	Exists      bool        `json:"exists"`
	Source      string      `json:"source,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// DependencyReport is the resolver's answer for one transaction
type DependencyReport struct {
	TransactionKind erp.TransactionKind `json:"transaction_kind"`
	TransactionName string              `json:"transaction_name"`
	ReadyToSync     bool                `json:"ready_to_sync"`
	Missing         []MasterRequirement `json:"missing"`
	Existing        []MasterRequirement `json:"existing"`
}

// Raise outcomes for one missing master
const (
	RaiseStatusCreated = "created"
	RaiseStatusExists  = "exists"
	RaiseStatusSkipped = "skipped"
	RaiseStatusFailed  = "failed"
)

// RaisedRequest reports what happened for one missing master
type RaisedRequest struct {
	MasterType master.Type `json:"master_type"`
	MasterName string      `json:"master_name"`
	RequestID  uuid.UUID   `json:"request_id,omitempty"`
	Status     string      `json:"status"`
	Error      string      `json:"error,omitempty"`
}

// RequestBatch is the outcome of raising requests for one transaction
type RequestBatch struct {
	TransactionKind erp.TransactionKind `json:"transaction_kind"`
	TransactionName string              `json:"transaction_name"`
	ReadyToSync     bool                `json:"ready_to_sync"`
	Created         int                 `json:"created"`
	Requests        []RaisedRequest     `json:"requests"`
}

// SubmitIntake is the outcome of a document submit hook call
type SubmitIntake struct {
	DocumentType string        `json:"document_type"`
	DocumentName string        `json:"document_name"`
	Skipped      bool          `json:"skipped,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	Error        string        `json:"error,omitempty"`
	Batch        *RequestBatch `json:"batch,omitempty"`
}
