package tallysync

import (
	"time"

	"github.com/google/uuid"

	"github.com/tallybridge/backend/internal/domain/sync"
)

// VoucherPushResult reports what one invoice push did
type VoucherPushResult struct {
	InvoiceName   string     `json:"invoice_name"`
	Success       bool       `json:"success"`
	Skipped       bool       `json:"skipped,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	VoucherNumber string     `json:"voucher_number,omitempty"`
	SyncLogID     *uuid.UUID `json:"sync_log_id,omitempty"`
	ErrorType     string     `json:"error_type,omitempty"`
	Error         string     `json:"error,omitempty"`
	// MissingLedgers names the booking ledgers Tally confirmed absent
	// when the pre-flight blocked the push
	MissingLedgers []string `json:"missing_ledgers,omitempty"`
}

// SyncLogResponse is the list projection of a transmission log. Payloads
// stay out of lists; the detail endpoint carries them.
type SyncLogResponse struct {
	ID                 uuid.UUID  `json:"id"`
	SyncType           string     `json:"sync_type"`
	DocumentType       string     `json:"document_type"`
	DocumentName       string     `json:"document_name"`
	Company            string     `json:"company,omitempty"`
	Status             string     `json:"status"`
	ResponseStatusCode int        `json:"response_status_code,omitempty"`
	ResponseAt         *time.Time `json:"response_at,omitempty"`
	ErrorType          string     `json:"error_type,omitempty"`
	ErrorMessage       string     `json:"error_message,omitempty"`
	VoucherNumber      string     `json:"voucher_number,omitempty"`
	ArchiveKey         string     `json:"archive_key,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// SyncLogDetail extends the list projection with the verbatim payloads
type SyncLogDetail struct {
	SyncLogResponse
	RequestXML  string `json:"request_xml"`
	ResponseXML string `json:"response_xml"`
}

// SyncLogStats summarizes transmissions per status
type SyncLogStats struct {
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// RetryJobResponse is the API projection of a retry job
type RetryJobResponse struct {
	ID            uuid.UUID  `json:"id"`
	DocumentType  string     `json:"document_type"`
	DocumentName  string     `json:"document_name"`
	Operation     string     `json:"operation"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	NextRetryAt   time.Time  `json:"next_retry_at"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// RetryRunReport summarizes one pass over the due retry jobs
type RetryRunReport struct {
	Scanned   int `json:"scanned"`
	Succeeded int `json:"succeeded"`
	Requeued  int `json:"requeued"`
	Exhausted int `json:"exhausted"`
}

// CheckStatus grades one connection check
type CheckStatus string

const (
	CheckOK   CheckStatus = "ok"
	CheckWarn CheckStatus = "warning"
	CheckFail CheckStatus = "failed"
)

// ConnectionCheck is one step of the connection validation
type ConnectionCheck struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

// ConnectionReport is the full connection validation outcome. Warnings do
// not make the connection unhealthy; failures do.
type ConnectionReport struct {
	Healthy bool              `json:"healthy"`
	Version string            `json:"version,omitempty"`
	URL     string            `json:"url,omitempty"`
	Company string            `json:"company,omitempty"`
	Checks  []ConnectionCheck `json:"checks"`
}

// ToSyncLogResponse converts a sync log to its list projection
func ToSyncLogResponse(l *sync.SyncLog) SyncLogResponse {
	return SyncLogResponse{
		ID:                 l.ID,
		SyncType:           string(l.SyncType),
		DocumentType:       l.DocumentType,
		DocumentName:       l.DocumentName,
		Company:            l.Company,
		Status:             l.Status.String(),
		ResponseStatusCode: l.ResponseStatusCode,
		ResponseAt:         l.ResponseAt,
		ErrorType:          l.ErrorType.String(),
		ErrorMessage:       l.ErrorMessage,
		VoucherNumber:      l.VoucherNumber,
		ArchiveKey:         l.ArchiveKey,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

// ToRetryJobResponse converts a retry job to its API projection
func ToRetryJobResponse(j *sync.RetryJob) RetryJobResponse {
	return RetryJobResponse{
		ID:            j.ID,
		DocumentType:  j.DocumentType,
		DocumentName:  j.DocumentName,
		Operation:     string(j.Operation),
		Status:        string(j.Status),
		RetryCount:    j.RetryCount,
		MaxRetries:    j.MaxRetries,
		ErrorMessage:  j.ErrorMessage,
		NextRetryAt:   j.NextRetryAt,
		LastAttemptAt: j.LastAttemptAt,
		CreatedAt:     j.CreatedAt,
	}
}
