package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tallybridge/backend/internal/application/approval"
	"github.com/tallybridge/backend/internal/domain/request"
	"github.com/tallybridge/backend/internal/domain/shared"
	"github.com/tallybridge/backend/internal/interfaces/http/dto"
)

// RequestHandler handles creation request HTTP requests
type RequestHandler struct {
	BaseHandler
	requestService *approval.RequestService
	docketService  *approval.DocketService
}

// NewRequestHandler creates a new creation request handler
func NewRequestHandler(requestService *approval.RequestService, docketService *approval.DocketService) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		docketService:  docketService,
	}
}

// handleRequestError maps forbidden status transitions onto 422 before the
// generic error handling
func (h *RequestHandler) handleRequestError(c *gin.Context, err error) {
	var transition *request.InvalidTransitionError
	if errors.As(err, &transition) {
		h.ErrorWithCode(c, dto.ErrCodeInvalidState, transition.Error())
		return
	}
	h.HandleError(c, err)
}


// Create godoc
// @ID           createRequest
// @Summary      Raise a creation request
// @Description  Raise a master creation request for approval. When an open request for the same master and source document already exists it is returned instead of a duplicate.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        request body CreateRequestRequest true "Creation request"
// @Success      200 {object} APIResponse[approval.CreateRequestResult] "Existing open request reused"
// @Success      201 {object} APIResponse[approval.CreateRequestResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.requestService.CreateRequest(c.Request.Context(), approval.CreateRequestInput{
		MasterType:        req.MasterType,
		MasterName:        req.MasterName,
		ParentGroup:       req.ParentGroup,
		Priority:          req.Priority,
		SourceDoctype:     req.SourceDoctype,
		SourceDocument:    req.SourceDocument,
		RequestedBy:       getUserName(c),
		AssignedTo:        req.AssignedTo,
		LinkedDoctype:     req.LinkedDoctype,
		LinkedTransaction: req.LinkedTransaction,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Reused {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}


// List godoc
// @ID           listRequests
// @Summary      List creation requests
// @Description  Get a paginated list of creation requests
// @Tags         requests
// @Produce      json
// @Param        status query string false "Filter by status" Enums(Pending Approval, Approved, Rejected, In Progress, Completed, Failed)
// @Param        master_type query string false "Filter by master type"
// @Param        priority query string false "Filter by priority" Enums(Low, Normal, High, Urgent)
// @Param        requested_by query string false "Filter by requester"
// @Param        assigned_to query string false "Filter by assignee"
// @Param        source_document query string false "Filter by source document"
// @Param        open query bool false "Only open requests"
// @Param        search query string false "Search in master name and source document"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        order_by query string false "Sort by field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]approval.RequestResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	var query RequestListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	filter := shared.Filter{
		Page:     query.Page,
		PageSize: query.PageSize,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
		Search:   query.Search,
		Filters:  make(map[string]interface{}),
	}
	if query.Status != "" {
		filter.Filters["status"] = query.Status
	}
	if query.MasterType != "" {
		filter.Filters["master_type"] = query.MasterType
	}
	if query.Priority != "" {
		filter.Filters["priority"] = query.Priority
	}
	if query.RequestedBy != "" {
		filter.Filters["requested_by"] = query.RequestedBy
	}
	if query.AssignedTo != "" {
		filter.Filters["assigned_to"] = query.AssignedTo
	}
	if query.SourceDocument != "" {
		filter.Filters["source_document"] = query.SourceDocument
	}
	if query.Open != nil && *query.Open {
		filter.Filters["open"] = true
	}

	result, err := h.requestService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}


// PendingQueue godoc
// @ID           listPendingRequests
// @Summary      List the approval queue
// @Description  Get Pending Approval requests, urgent first then oldest first. An empty approver lists the whole queue.
// @Tags         requests
// @Produce      json
// @Param        approver query string false "Only requests assigned to this approver"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]approval.RequestResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /requests/pending [get]
func (h *RequestHandler) PendingQueue(c *gin.Context) {
	var query PendingQueueQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	filter := shared.Filter{Page: query.Page, PageSize: query.PageSize}
	result, err := h.requestService.PendingQueue(c.Request.Context(), query.Approver, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}


// Stats godoc
// @ID           getRequestStats
// @Summary      Get request statistics
// @Description  Summarize the creation request backlog per status
// @Tags         requests
// @Produce      json
// @Success      200 {object} APIResponse[approval.RequestStats]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /requests/stats [get]
func (h *RequestHandler) Stats(c *gin.Context) {
	stats, err := h.requestService.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}


// GetByID godoc
// @ID           getRequestById
// @Summary      Get a creation request
// @Description  Retrieve one creation request with its source snapshot and notification history
// @Tags         requests
// @Produce      json
// @Param        id path string true "Request ID" format(uuid)
// @Success      200 {object} APIResponse[approval.RequestDetail]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /requests/{id} [get]
func (h *RequestHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid request ID")
		return
	}

	detail, err := h.requestService.Detail(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, detail)
}


// Approve godoc
// @ID           approveRequest
// @Summary      Approve a creation request
// @Description  Approve a pending request, optionally overriding the target name or parent group, and hand it to the creation workers
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id path string true "Request ID" format(uuid)
// @Param        request body ApproveRequestRequest false "Approval overrides"
// @Success      200 {object} APIResponse[approval.RequestResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /requests/{id}/approve [post]
func (h *RequestHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid request ID")
		return
	}

	var req ApproveRequestRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "Invalid request body")
			return
		}
	}

	result, err := h.requestService.Approve(c.Request.Context(), id, approval.ApproveInput{
		ApprovedBy:     getUserName(c),
		ModifiedName:   req.ModifiedName,
		ModifiedParent: req.ModifiedParent,
	})
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	h.Success(c, result)
}


// Reject godoc
// @ID           rejectRequest
// @Summary      Reject a creation request
// @Description  Reject a pending request with a mandatory reason. No remote call is made.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id path string true "Request ID" format(uuid)
// @Param        request body RejectRequestRequest true "Rejection reason"
// @Success      200 {object} APIResponse[approval.RequestResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /requests/{id}/reject [post]
func (h *RequestHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid request ID")
		return
	}

	var req RejectRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.requestService.Reject(c.Request.Context(), id, approval.RejectInput{
		RejectedBy: getUserName(c),
		Reason:     req.Reason,
	})
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	h.Success(c, result)
}


// Retry godoc
// @ID           retryRequest
// @Summary      Retry a failed creation request
// @Description  Requeue a failed request for another creation attempt
// @Tags         requests
// @Produce      json
// @Param        id path string true "Request ID" format(uuid)
// @Success      200 {object} SuccessResponse
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /requests/{id}/retry [post]
func (h *RequestHandler) Retry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid request ID")
		return
	}

	if err := h.requestService.RetryFailed(c.Request.Context(), id); err != nil {
		h.handleRequestError(c, err)
		return
	}

	h.Success(c, dto.MessageResponse{Message: "Request queued for retry"})
}


// Docket godoc
// @ID           getRequestDocket
// @Summary      Download the approval docket
// @Description  Render the printable approval docket of a creation request as a PDF
// @Tags         requests
// @Produce      application/pdf
// @Param        id path string true "Request ID" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /requests/{id}/docket [get]
func (h *RequestHandler) Docket(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid request ID")
		return
	}

	file, err := h.docketService.RenderDocket(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename=\""+file.Name+"\"")
	c.Header("Content-Length", strconv.Itoa(len(file.Content)))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
