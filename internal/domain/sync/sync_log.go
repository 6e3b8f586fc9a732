package sync

import (
	"time"

	"github.com/tallybridge/backend/internal/domain/shared"
)

// SyncType distinguishes what a transmission carried
type SyncType string

const (
	SyncTypeMaster  SyncType = "Master"
	SyncTypeVoucher SyncType = "Voucher"
)

// LogStatus represents the lifecycle of one transmission to the gateway
type LogStatus string

const (
	LogStatusQueued     LogStatus = "QUEUED"
	LogStatusInProgress LogStatus = "IN PROGRESS"
	LogStatusSuccess    LogStatus = "SUCCESS"
	LogStatusFailed     LogStatus = "FAILED"
)

// IsValid checks if the status is a valid log status
func (s LogStatus) IsValid() bool {
	switch s {
	case LogStatusQueued, LogStatusInProgress, LogStatusSuccess, LogStatusFailed:
		return true
	}
	return false
}

// String returns the string representation
func (s LogStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if transitioning to the new status is allowed
func (s LogStatus) CanTransitionTo(next LogStatus) bool {
	switch s {
	case LogStatusQueued:
		return next == LogStatusInProgress || next == LogStatusFailed
	case LogStatusInProgress:
		return next == LogStatusSuccess || next == LogStatusFailed
	}
	return false
}

// MaxErrorMessageLength bounds the stored gateway error text
const MaxErrorMessageLength = 500

// SyncLog records one payload sent to the Tally gateway together with the
// verbatim response. Every attempt gets its own log; retries never reuse one.
type SyncLog struct {
	shared.BaseEntity
	SyncType     SyncType  `gorm:"type:varchar(16);not null;index"`
	DocumentType string    `gorm:"type:varchar(64);not null;index:idx_sync_logs_document"`
	DocumentName string    `gorm:"type:varchar(255);not null;index:idx_sync_logs_document"`
	Company      string    `gorm:"type:varchar(255)"`
	Status       LogStatus `gorm:"type:varchar(16);not null;index"`

	RequestXML         string `gorm:"type:text"`
	ResponseXML        string `gorm:"type:text"`
	ResponseStatusCode int
	ResponseAt         *time.Time

	ErrorType     ErrorType `gorm:"type:varchar(32)"`
	ErrorMessage  string    `gorm:"type:varchar(500)"`
	VoucherNumber string    `gorm:"type:varchar(64)"`

	// Object storage key when the payloads have been archived
	ArchiveKey string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (SyncLog) TableName() string {
	return "sync_logs"
}

// NewSyncLog queues a transmission before anything is sent
func NewSyncLog(syncType SyncType, documentType, documentName, company, requestXML string) *SyncLog {
	return &SyncLog{
		BaseEntity:   shared.NewBaseEntity(),
		SyncType:     syncType,
		DocumentType: documentType,
		DocumentName: documentName,
		Company:      company,
		Status:       LogStatusQueued,
		RequestXML:   requestXML,
	}
}

// MarkInProgress flags the log right before the POST goes out
func (l *SyncLog) MarkInProgress() error {
	if !l.Status.CanTransitionTo(LogStatusInProgress) {
		return shared.NewDomainError("INVALID_STATE", "Sync log is not queued")
	}
	l.Status = LogStatusInProgress
	l.UpdatedAt = time.Now()
	return nil
}

// MarkSuccess stores the verbatim response of a successful transmission
func (l *SyncLog) MarkSuccess(responseXML string, statusCode int) error {
	if !l.Status.CanTransitionTo(LogStatusSuccess) {
		return shared.NewDomainError("INVALID_STATE", "Sync log is not in progress")
	}
	now := time.Now()
	l.Status = LogStatusSuccess
	l.ResponseXML = responseXML
	l.ResponseStatusCode = statusCode
	l.ResponseAt = &now
	l.ErrorType = ""
	l.ErrorMessage = ""
	l.UpdatedAt = now
	return nil
}

// MarkFailed stores the failure with its classification. The error text is
// truncated to fit the stored column; the response stays verbatim.
func (l *SyncLog) MarkFailed(responseXML string, statusCode int, errType ErrorType, message string) error {
	if !l.Status.CanTransitionTo(LogStatusFailed) {
		return shared.NewDomainError("INVALID_STATE", "Sync log already finished")
	}
	now := time.Now()
	if len(message) > MaxErrorMessageLength {
		message = message[:MaxErrorMessageLength]
	}
	l.Status = LogStatusFailed
	l.ResponseXML = responseXML
	l.ResponseStatusCode = statusCode
	l.ResponseAt = &now
	l.ErrorType = errType
	l.ErrorMessage = message
	l.UpdatedAt = now
	return nil
}

// SetVoucherNumber records the voucher number Tally assigned
func (l *SyncLog) SetVoucherNumber(number string) {
	l.VoucherNumber = number
	l.UpdatedAt = time.Now()
}

// SetArchiveKey records where the payloads were archived
func (l *SyncLog) SetArchiveKey(key string) {
	l.ArchiveKey = key
	l.UpdatedAt = time.Now()
}

// IsRetryable reports whether this transmission may be retried. Only
// network-class failures are retried; validation failures need a human.
func (l *SyncLog) IsRetryable() bool {
	return l.Status == LogStatusFailed && l.ErrorType.ShouldRetry()
}
