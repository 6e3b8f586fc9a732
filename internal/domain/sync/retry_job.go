package sync

import (
	"time"

	"github.com/tallybridge/backend/internal/domain/shared"
)

// JobOperation names what a retry job re-invokes
type JobOperation string

const (
	OperationCreateMaster JobOperation = "create_master"
	OperationPushVoucher  JobOperation = "push_voucher"
)

// JobStatus represents the lifecycle of a retry job
type JobStatus string

const (
	JobStatusPending    JobStatus = "Pending"
	JobStatusInProgress JobStatus = "In Progress"
	JobStatusSuccess    JobStatus = "Success"
	JobStatusFailed     JobStatus = "Failed"
)

// Retry policy defaults. Intervals are minutes between attempts.
var DefaultRetryIntervals = []int{5, 30, 60}

// DefaultMaxRetries is how many automatic attempts a job gets
const DefaultMaxRetries = 3

// RetryJob schedules another attempt at a failed gateway operation.
// Attempts back off through DefaultRetryIntervals; once MaxRetries
// attempts have failed the job goes to Failed and stays there.
type RetryJob struct {
	shared.BaseEntity
	DocumentType  string       `gorm:"type:varchar(64);not null;index:idx_retry_jobs_document"`
	DocumentName  string       `gorm:"type:varchar(255);not null;index:idx_retry_jobs_document"`
	Operation     JobOperation `gorm:"type:varchar(32);not null"`
	Status        JobStatus    `gorm:"type:varchar(16);not null;index"`
	RetryCount    int          `gorm:"not null;default:0"`
	MaxRetries    int          `gorm:"not null;default:3"`
	ErrorMessage  string       `gorm:"type:varchar(500)"`
	NextRetryAt   time.Time    `gorm:"not null;index"`
	LastAttemptAt *time.Time
}

// TableName returns the table name for GORM
func (RetryJob) TableName() string {
	return "retry_jobs"
}

// NewRetryJob schedules a retry for a failed operation. Immediate jobs are
// due right away and skip the first backoff interval; everything else waits
// out the first interval.
func NewRetryJob(documentType, documentName string, operation JobOperation, errorMessage string, immediate bool) *RetryJob {
	job := &RetryJob{
		BaseEntity:   shared.NewBaseEntity(),
		DocumentType: documentType,
		DocumentName: documentName,
		Operation:    operation,
		Status:       JobStatusPending,
		RetryCount:   0,
		MaxRetries:   DefaultMaxRetries,
		ErrorMessage: truncateError(errorMessage),
	}
	if immediate {
		job.NextRetryAt = time.Now()
	} else {
		job.NextRetryAt = time.Now().Add(time.Duration(DefaultRetryIntervals[0]) * time.Minute)
	}
	return job
}

// IsDue reports whether the job should be picked up now
func (j *RetryJob) IsDue(now time.Time) bool {
	return j.Status == JobStatusPending && !j.NextRetryAt.After(now)
}

// IsExhausted reports whether all attempts have been used
func (j *RetryJob) IsExhausted() bool {
	return j.RetryCount >= j.MaxRetries
}

// MarkInProgress claims the job for an attempt
func (j *RetryJob) MarkInProgress() error {
	if j.Status != JobStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Retry job is not pending")
	}
	now := time.Now()
	j.Status = JobStatusInProgress
	j.RetryCount++
	j.LastAttemptAt = &now
	j.UpdatedAt = now
	return nil
}

// MarkSuccess closes the job after a successful attempt
func (j *RetryJob) MarkSuccess() {
	j.Status = JobStatusSuccess
	j.ErrorMessage = ""
	j.UpdatedAt = time.Now()
}

// RecordFailure stores the attempt error and either schedules the next
// attempt or exhausts the job.
func (j *RetryJob) RecordFailure(errorMessage string) {
	j.ErrorMessage = truncateError(errorMessage)
	j.UpdatedAt = time.Now()

	if j.IsExhausted() {
		j.Status = JobStatusFailed
		return
	}
	j.Status = JobStatusPending
	j.NextRetryAt = time.Now().Add(j.nextInterval())
}

// nextInterval picks the backoff before the upcoming attempt. RetryCount
// has already been incremented by MarkInProgress, so attempt n+1 uses
// interval index n (capped at the last interval).
func (j *RetryJob) nextInterval() time.Duration {
	idx := j.RetryCount
	if idx >= len(DefaultRetryIntervals) {
		idx = len(DefaultRetryIntervals) - 1
	}
	return time.Duration(DefaultRetryIntervals[idx]) * time.Minute
}

func truncateError(msg string) string {
	if len(msg) > MaxErrorMessageLength {
		return msg[:MaxErrorMessageLength]
	}
	return msg
}
