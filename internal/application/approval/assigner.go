package approval

import (
	"context"

	"github.com/tallybridge/backend/internal/domain/identity"
	"github.com/tallybridge/backend/internal/domain/request"
)

// RoundRobinAssigner spreads new requests over the approver pool by
// picking whoever has the fewest open requests assigned.
type RoundRobinAssigner struct {
	users    identity.UserRepository
	requests request.CreationRequestRepository
}

// NewRoundRobinAssigner creates an assigner over the given repositories
func NewRoundRobinAssigner(users identity.UserRepository, requests request.CreationRequestRepository) *RoundRobinAssigner {
	return &RoundRobinAssigner{users: users, requests: requests}
}

// NextAssignee returns the email of the least loaded active approver.
// An empty result means nobody is eligible and the request stays
// unassigned.
func (a *RoundRobinAssigner) NextAssignee(ctx context.Context) (string, error) {
	approvers, err := a.users.FindApprovers(ctx)
	if err != nil {
		return "", err
	}
	if len(approvers) == 0 {
		return "", nil
	}

	counts, err := a.requests.CountOpenByAssignee(ctx)
	if err != nil {
		return "", err
	}

	best := ""
	bestCount := int64(-1)
	for _, u := range approvers {
		c := counts[u.Email]
		// Ties break on email so assignment stays deterministic
		if bestCount < 0 || c < bestCount || (c == bestCount && u.Email < best) {
			best = u.Email
			bestCount = c
		}
	}
	return best, nil
}
