package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tallybridge/backend/internal/application/tallysync"
	"github.com/tallybridge/backend/internal/domain/shared"
)

// RetryJobHandler handles the retry job surface
type RetryJobHandler struct {
	BaseHandler
	syncLogService *tallysync.SyncLogService
	retryService   *tallysync.RetryService
}

// NewRetryJobHandler creates a new retry job handler
func NewRetryJobHandler(syncLogService *tallysync.SyncLogService, retryService *tallysync.RetryService) *RetryJobHandler {
	return &RetryJobHandler{
		syncLogService: syncLogService,
		retryService:   retryService,
	}
}


// List godoc
// @ID           listRetryJobs
// @Summary      List retry jobs
// @Description  Get a paginated list of scheduled retry jobs
// @Tags         retries
// @Produce      json
// @Param        status query string false "Filter by status" Enums(Pending, In Progress, Success, Failed)
// @Param        operation query string false "Filter by operation" Enums(create_master, push_voucher)
// @Param        document_type query string false "Filter by document type"
// @Param        document_name query string false "Filter by document name"
// @Param        search query string false "Search in document names"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        order_by query string false "Sort by field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]tallysync.RetryJobResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /retries [get]
func (h *RetryJobHandler) List(c *gin.Context) {
	var query RetryJobListQuery
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
	if query.Operation != "" {
		filter.Filters["operation"] = query.Operation
	}
	if query.DocumentType != "" {
		filter.Filters["document_type"] = query.DocumentType
	}
	if query.DocumentName != "" {
		filter.Filters["document_name"] = query.DocumentName
	}

	result, err := h.syncLogService.ListRetryJobs(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}


// Process godoc
// @ID           processDueRetries
// @Summary      Run the due retry jobs now
// @Description  Pick up due pending retry jobs and re-invoke the matching creation or voucher push, without waiting for the scheduler tick
// @Tags         retries
// @Produce      json
// @Success      200 {object} APIResponse[tallysync.RetryRunReport]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /retries/process [post]
func (h *RetryJobHandler) Process(c *gin.Context) {
	report, err := h.retryService.ProcessDue(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}
