package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tallybridge/backend/internal/application/report"
	"github.com/tallybridge/backend/internal/application/tallysync"
	"github.com/tallybridge/backend/internal/domain/shared"
)

// SyncLogHandler handles the transmission log surface
type SyncLogHandler struct {
	BaseHandler
	syncLogService *tallysync.SyncLogService
	exportService  *report.ExportService
}

// NewSyncLogHandler creates a new sync log handler
func NewSyncLogHandler(syncLogService *tallysync.SyncLogService, exportService *report.ExportService) *SyncLogHandler {
	return &SyncLogHandler{
		syncLogService: syncLogService,
		exportService:  exportService,
	}
}


// List godoc
// @ID           listSyncLogs
// @Summary      List transmission logs
// @Description  Get a paginated list of gateway transmissions. Payloads stay out of lists; the detail endpoint carries them.
// @Tags         sync-logs
// @Produce      json
// @Param        sync_type query string false "Filter by sync type" Enums(Master, Voucher)
// @Param        status query string false "Filter by status" Enums(QUEUED, IN PROGRESS, SUCCESS, FAILED)
// @Param        document_type query string false "Filter by document type"
// @Param        document_name query string false "Filter by document name"
// @Param        error_type query string false "Filter by error classification"
// @Param        company query string false "Filter by company"
// @Param        search query string false "Search in document names"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        order_by query string false "Sort by field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]tallysync.SyncLogResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sync-logs [get]
func (h *SyncLogHandler) List(c *gin.Context) {
	var query SyncLogListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.syncLogService.List(c.Request.Context(), buildSyncLogFilter(query))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}


// GetByID godoc
// @ID           getSyncLogById
// @Summary      Get a transmission log
// @Description  Retrieve one transmission with its verbatim request and response payloads
// @Tags         sync-logs
// @Produce      json
// @Param        id path string true "Sync log ID" format(uuid)
// @Success      200 {object} APIResponse[tallysync.SyncLogDetail]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sync-logs/{id} [get]
func (h *SyncLogHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sync log ID")
		return
	}

	detail, err := h.syncLogService.Detail(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, detail)
}


// Stats godoc
// @ID           getSyncLogStats
// @Summary      Get transmission statistics
// @Description  Summarize transmissions per status
// @Tags         sync-logs
// @Produce      json
// @Success      200 {object} APIResponse[tallysync.SyncLogStats]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sync-logs/stats [get]
func (h *SyncLogHandler) Stats(c *gin.Context) {
	stats, err := h.syncLogService.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}


// Export godoc
// @ID           exportSyncLogs
// @Summary      Export transmission logs as a workbook
// @Description  Download the transmission logs matching the filter as an xlsx workbook, newest first
// @Tags         sync-logs
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        sync_type query string false "Filter by sync type" Enums(Master, Voucher)
// @Param        status query string false "Filter by status" Enums(QUEUED, IN PROGRESS, SUCCESS, FAILED)
// @Param        document_type query string false "Filter by document type"
// @Param        company query string false "Filter by company"
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sync-logs/export [get]
func (h *SyncLogHandler) Export(c *gin.Context) {
	var query SyncLogListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	file, err := h.exportService.ExportSyncLogs(c.Request.Context(), buildSyncLogFilter(query))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+file.Name+"\"")
	c.Header("Content-Length", strconv.Itoa(len(file.Content)))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}


// buildSyncLogFilter maps the listing query onto a repository filter
func buildSyncLogFilter(query SyncLogListQuery) shared.Filter {
	filter := shared.Filter{
		Page:     query.Page,
		PageSize: query.PageSize,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
		Search:   query.Search,
		Filters:  make(map[string]interface{}),
	}
	if query.SyncType != "" {
		filter.Filters["sync_type"] = query.SyncType
	}
	if query.Status != "" {
		filter.Filters["status"] = query.Status
	}
	if query.DocumentType != "" {
		filter.Filters["document_type"] = query.DocumentType
	}
	if query.DocumentName != "" {
		filter.Filters["document_name"] = query.DocumentName
	}
	if query.ErrorType != "" {
		filter.Filters["error_type"] = query.ErrorType
	}
	if query.Company != "" {
		filter.Filters["company"] = query.Company
	}
	return filter
}
