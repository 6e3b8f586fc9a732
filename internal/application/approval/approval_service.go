package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/domain/erp"
	"github.com/tallybridge/backend/internal/domain/identity"
	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/request"
	"github.com/tallybridge/backend/internal/domain/shared"
	"github.com/tallybridge/backend/internal/infrastructure/config"
)

// CreationEnqueuer hands an approved or retried request to the background
// creation workers. Enqueueing must not block on the remote call itself.
type CreationEnqueuer interface {
	EnqueueCreation(ctx context.Context, requestID uuid.UUID) error
}

// RequestService owns the creation request workflow: raising, assignment,
// approval, rejection and the retry entry point. The remote creation
// itself runs in the background workers.
type RequestService struct {
	requests request.CreationRequestRepository
	users    identity.UserRepository
	store    erp.DocumentStore
	assigner *RoundRobinAssigner
	notifier request.Notifier
	enqueuer CreationEnqueuer
	defaults master.ParentDefaults
	logger   *zap.Logger
}

// NewRequestService creates the request workflow service
func NewRequestService(
	requests request.CreationRequestRepository,
	users identity.UserRepository,
	store erp.DocumentStore,
	notifier request.Notifier,
	enqueuer CreationEnqueuer,
	cfg config.TallyConfig,
	logger *zap.Logger,
) *RequestService {
	return &RequestService{
		requests: requests,
		users:    users,
		store:    store,
		assigner: NewRoundRobinAssigner(users, requests),
		notifier: notifier,
		enqueuer: enqueuer,
		defaults: master.ParentDefaults{
			CustomerGroup: cfg.DefaultCustomerGroup,
			SupplierGroup: cfg.DefaultSupplierGroup,
			StockGroup:    cfg.DefaultStockGroup,
		},
		logger: logger,
	}
}

// Raise opens a creation request in Pending Approval. When a request for
// the same master is already open from the same source document, that
// request is returned with reused=true instead of raising a duplicate.
func (s *RequestService) Raise(ctx context.Context, in request.NewRequestInput) (*request.CreationRequest, bool, error) {
	in.MasterName = master.SanitizeName(in.MasterName)

	existing, err := s.requests.FindOpenForMaster(ctx, in.MasterType, in.SourceDocument, in.MasterName)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	if in.ParentGroup == "" {
		if parent, ok := s.defaults.ParentFor(in.MasterType); ok {
			in.ParentGroup = parent
		}
	}
	if in.AssignedTo == "" {
		assignee, assignErr := s.assigner.NextAssignee(ctx)
		if assignErr != nil {
			s.logger.Warn("Assignment skipped, approver pool unavailable", zap.Error(assignErr))
		} else {
			in.AssignedTo = assignee
		}
	}

	req, err := request.NewCreationRequest(in)
	if err != nil {
		return nil, false, err
	}

	events := req.GetDomainEvents()
	if err := s.requests.SaveWithLockAndEvents(ctx, req, events); err != nil {
		// A concurrent raise for the same master trips the partial unique
		// index on open requests; surface the winner instead of the conflict.
		if winner, findErr := s.requests.FindOpenForMaster(ctx, in.MasterType, in.SourceDocument, in.MasterName); findErr == nil {
			return winner, true, nil
		}
		return nil, false, err
	}
	req.ClearDomainEvents()

	s.notify(ctx, request.NotifyCreated, req, req.AssignedTo)
	return req, false, nil
}

// CreateRequest raises a request from operator input
func (s *RequestService) CreateRequest(ctx context.Context, in CreateRequestInput) (*CreateRequestResult, error) {
	req, reused, err := s.Raise(ctx, request.NewRequestInput{
		MasterType:     master.Type(in.MasterType),
		MasterName:     in.MasterName,
		ParentGroup:    in.ParentGroup,
		Priority:       request.Priority(in.Priority),
		SourceDoctype:  in.SourceDoctype,
		SourceDocument: in.SourceDocument,
		RequestedBy:    in.RequestedBy,
		AssignedTo:     in.AssignedTo,
		LinkedDoctype:  in.LinkedDoctype,
		LinkedTxn:      in.LinkedTransaction,
	})
	if err != nil {
		return nil, err
	}
	return &CreateRequestResult{Request: ToRequestResponse(req), Reused: reused}, nil
}

// Approve locks a pending request in for creation and hands it to the
// background workers
func (s *RequestService) Approve(ctx context.Context, id uuid.UUID, in ApproveInput) (*RequestResponse, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSourceDocument(ctx, req); err != nil {
		return nil, err
	}

	modifiedName := in.ModifiedName
	if modifiedName != "" {
		modifiedName = master.SanitizeName(modifiedName)
	}
	if err := req.Approve(in.ApprovedBy, modifiedName, in.ModifiedParent); err != nil {
		return nil, err
	}

	events := req.GetDomainEvents()
	if err := s.requests.SaveWithLockAndEvents(ctx, req, events); err != nil {
		return nil, err
	}
	req.ClearDomainEvents()

	s.notify(ctx, request.NotifyApproved, req, req.RequestedBy)

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueCreation(ctx, req.ID); err != nil {
			s.logger.Error("Failed to enqueue approved request",
				zap.String("request_id", req.ID.String()),
				zap.Error(err))
		}
	}

	resp := ToRequestResponse(req)
	return &resp, nil
}

// Reject closes a pending request without any remote call
func (s *RequestService) Reject(ctx context.Context, id uuid.UUID, in RejectInput) (*RequestResponse, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSourceDocument(ctx, req); err != nil {
		return nil, err
	}

	if err := req.Reject(in.RejectedBy, in.Reason); err != nil {
		return nil, err
	}

	events := req.GetDomainEvents()
	if err := s.requests.SaveWithLockAndEvents(ctx, req, events); err != nil {
		return nil, err
	}
	req.ClearDomainEvents()

	s.notify(ctx, request.NotifyRejected, req, req.RequestedBy)

	resp := ToRequestResponse(req)
	return &resp, nil
}

// RetryFailed requeues a failed request for another creation attempt. The
// workers move it back to In Progress when they pick it up.
func (s *RequestService) RetryFailed(ctx context.Context, id uuid.UUID) error {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if req.Status != request.StatusFailed {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Only failed requests can be retried, current status is '%s'", req.Status))
	}
	if s.enqueuer == nil {
		return shared.NewDomainError("NOT_AVAILABLE", "Creation workers are not running")
	}
	return s.enqueuer.EnqueueCreation(ctx, req.ID)
}

// PendingQueue lists Pending Approval requests, urgent first then oldest
// first. An empty approver lists the whole queue.
func (s *RequestService) PendingQueue(ctx context.Context, approver string, filter shared.Filter) (*shared.Paginated[RequestResponse], error) {
	normalizePaging(&filter)

	items, total, err := s.requests.FindPendingForApprover(ctx, approver, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]RequestResponse, len(items))
	for i := range items {
		responses[i] = ToRequestResponse(&items[i])
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// List returns requests matching the filter with pagination
func (s *RequestService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[RequestResponse], error) {
	normalizePaging(&filter)

	items, err := s.requests.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.requests.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]RequestResponse, len(items))
	for i := range items {
		responses[i] = ToRequestResponse(&items[i])
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Detail returns one request with its source snapshot, a live re-read of
// the source document, and the notification history
func (s *RequestService) Detail(ctx context.Context, id uuid.UUID) (*RequestDetail, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RequestDetail{
		RequestResponse:     ToRequestResponse(req),
		SourceSnapshot:      json.RawMessage(req.SourceSnapshot),
		LiveSource:          s.liveSource(ctx, req),
		NotificationHistory: req.NotificationHistory,
	}, nil
}

// ensureSourceDocument refuses a decision on a request whose mirrored
// source document has vanished. The snapshot alone cannot carry an
// approval: the approver would be ruling on a document that no longer
// says what the snapshot says. Free-form doctypes with no mirror are
// waved through.
func (s *RequestService) ensureSourceDocument(ctx context.Context, req *request.CreationRequest) error {
	if s.store == nil || req.SourceDocument == "" {
		return nil
	}
	kind, err := erp.ParseTransactionKind(req.SourceDoctype)
	if err != nil {
		return nil
	}
	if _, err := s.store.GetTransaction(ctx, kind, req.SourceDocument); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("SOURCE_DOCUMENT_MISSING",
				fmt.Sprintf("Source document %s '%s' no longer exists", req.SourceDoctype, req.SourceDocument))
		}
		return err
	}
	return nil
}

// liveSource re-reads the mirrored source document so the approver sees
// its current state next to the snapshot taken at raise time. A vanished
// document comes back flagged, never as an error.
func (s *RequestService) liveSource(ctx context.Context, req *request.CreationRequest) *SourceDocumentView {
	if s.store == nil || req.SourceDocument == "" {
		return nil
	}
	kind, err := erp.ParseTransactionKind(req.SourceDoctype)
	if err != nil {
		return nil
	}
	doc, err := s.store.GetTransaction(ctx, kind, req.SourceDocument)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &SourceDocumentView{
				Doctype: req.SourceDoctype,
				Docname: req.SourceDocument,
				Missing: true,
			}
		}
		s.logger.Warn("Live source document read failed",
			zap.String("request_id", req.ID.String()),
			zap.String("source_document", req.SourceDocument),
			zap.Error(err))
		return nil
	}
	return &SourceDocumentView{
		Doctype:   req.SourceDoctype,
		Docname:   doc.Name,
		Company:   doc.Company,
		Party:     doc.Party,
		PartyName: doc.PartyName,
		Lines:     doc.Lines,
	}
}

// Stats summarizes the request backlog per status
func (s *RequestService) Stats(ctx context.Context) (*RequestStats, error) {
	statuses := []request.RequestStatus{
		request.StatusPendingApproval,
		request.StatusApproved,
		request.StatusInProgress,
		request.StatusCompleted,
		request.StatusFailed,
		request.StatusRejected,
	}

	stats := &RequestStats{Counts: make(map[string]int64, len(statuses))}
	for _, status := range statuses {
		n, err := s.requests.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		stats.Counts[status.String()] = n
		stats.Total += n
		if status.IsOpen() {
			stats.Open += n
		}
	}
	return stats, nil
}

// notify delivers a lifecycle notification. Delivery is best effort; a
// failure is logged and never surfaced to the caller.
func (s *RequestService) notify(ctx context.Context, event request.NotificationEvent, req *request.CreationRequest, email string) {
	if s.notifier == nil || email == "" {
		return
	}
	to := request.Recipient{Email: email}
	if user, err := s.users.FindByEmail(ctx, email); err == nil {
		to.Name = user.Name
	}
	if err := s.notifier.Notify(ctx, event, req, to); err != nil {
		s.logger.Warn("Notification delivery failed",
			zap.String("event", string(event)),
			zap.String("recipient", email),
			zap.Error(err))
	}
}

func normalizePaging(filter *shared.Filter) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
}
