package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tallybridge/backend/internal/application/masters"
	"github.com/tallybridge/backend/internal/domain/erp"
)

// DependencyHandler handles dependency resolution for ERP transactions
type DependencyHandler struct {
	BaseHandler
	dependencyService *masters.DependencyService
}

// NewDependencyHandler creates a new dependency handler
func NewDependencyHandler(dependencyService *masters.DependencyService) *DependencyHandler {
	return &DependencyHandler{
		dependencyService: dependencyService,
	}
}


// Check godoc
// @ID           checkDependencies
// @Summary      Check a transaction's master dependencies
// @Description  Resolve the party ledger and per-line stock items a transaction depends on, reporting which exist in Tally and which are missing
// @Tags         dependencies
// @Produce      json
// @Param        doctype query string true "Transaction doctype" Enums(Sales Order, Sales Invoice, Purchase Order, Purchase Invoice)
// @Param        docname query string true "Transaction name"
// @Param        company query string false "Company the transaction belongs to"
// @Success      200 {object} APIResponse[masters.DependencyReport]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /dependencies/check [get]
func (h *DependencyHandler) Check(c *gin.Context) {
	var query DependencyCheckQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	kind, err := erp.ParseTransactionKind(query.Doctype)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	report, err := h.dependencyService.CheckDependencies(c.Request.Context(), kind, query.Docname, query.Company)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}


// CreateMissing godoc
// @ID           createMissingRequests
// @Summary      Raise requests for missing masters
// @Description  Check the transaction and raise one creation request per confidently missing master. Masters already covered by an open request are reported, not duplicated.
// @Tags         dependencies
// @Accept       json
// @Produce      json
// @Param        request body CreateMissingRequest true "Transaction to cover"
// @Success      200 {object} APIResponse[masters.RequestBatch]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /dependencies/requests [post]
func (h *DependencyHandler) CreateMissing(c *gin.Context) {
	var req CreateMissingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	kind, err := erp.ParseTransactionKind(req.Doctype)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	batch, err := h.dependencyService.CreateRequestsForMissing(c.Request.Context(), kind, req.Docname, req.Company, getUserName(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}


// DocumentSubmitted godoc
// @ID           documentSubmitted
// @Summary      ERP document submit hook
// @Description  Intake for the ERP-side submit hook. Gates on the integration flag and raises requests for missing masters. Failures are reported in the result, never as an error, so a submit always succeeds on the ERP side.
// @Tags         dependencies
// @Accept       json
// @Produce      json
// @Param        request body DocumentSubmittedRequest true "Submitted document"
// @Success      200 {object} APIResponse[masters.SubmitIntake]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /hooks/document-submitted [post]
func (h *DependencyHandler) DocumentSubmitted(c *gin.Context) {
	var req DocumentSubmittedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	requestedBy := req.SubmittedBy
	if requestedBy == "" {
		requestedBy = getUserName(c)
	}

	intake := h.dependencyService.NotifySubmitted(c.Request.Context(), req.Doctype, req.Docname, req.Company, requestedBy)
	h.Success(c, intake)
}
