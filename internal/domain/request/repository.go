package request

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/shared"
)

// CreationRequestRepository defines the interface for creation request persistence
type CreationRequestRepository interface {
	// FindByID finds a request by ID
	FindByID(ctx context.Context, id uuid.UUID) (*CreationRequest, error)

	// FindAll finds requests with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]CreationRequest, error)

	// Count counts requests matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a request
	Save(ctx context.Context, req *CreationRequest) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, req *CreationRequest) error

	// SaveWithLockAndEvents saves with optimistic locking and persists domain
	// events to the outbox in the same transaction
	SaveWithLockAndEvents(ctx context.Context, req *CreationRequest, events []shared.DomainEvent) error

	// Delete deletes a request
	Delete(ctx context.Context, id uuid.UUID) error

	// FindOpenForMaster returns the open request (Pending Approval, Approved
	// or In Progress) covering the same master for a source document.
	// shared.ErrNotFound when there is none.
	FindOpenForMaster(ctx context.Context, masterType master.Type, sourceDocument, masterName string) (*CreationRequest, error)

	// FindPendingForApprover lists Pending Approval requests assigned to an
	// approver, ordered urgent-first then oldest-first
	FindPendingForApprover(ctx context.Context, approver string, filter shared.Filter) ([]CreationRequest, int64, error)

	// CountOpenByAssignee returns open request counts per assignee, used for
	// round-robin assignment
	CountOpenByAssignee(ctx context.Context) (map[string]int64, error)

	// CountByStatus counts requests in a given status
	CountByStatus(ctx context.Context, status RequestStatus) (int64, error)

	// FindApprovedBefore returns Approved requests whose approval is older
	// than the cutoff, oldest first. The sweep uses it to requeue requests
	// whose creation job was lost.
	FindApprovedBefore(ctx context.Context, cutoff time.Time, limit int) ([]CreationRequest, error)
}
