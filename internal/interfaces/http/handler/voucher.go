package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tallybridge/backend/internal/application/tallysync"
	"github.com/tallybridge/backend/internal/domain/sync"
	"github.com/tallybridge/backend/internal/interfaces/http/dto"
)

// VoucherHandler handles voucher pushes to the gateway
type VoucherHandler struct {
	BaseHandler
	voucherService *tallysync.VoucherService
}

// NewVoucherHandler creates a new voucher handler
func NewVoucherHandler(voucherService *tallysync.VoucherService) *VoucherHandler {
	return &VoucherHandler{
		voucherService: voucherService,
	}
}


// handleVoucherError maps the push pre-conditions onto their HTTP statuses
// before the generic error handling
func (h *VoucherHandler) handleVoucherError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sync.ErrTallyDisabled):
		h.ErrorWithCode(c, dto.ErrCodeUnavailable, "Tally integration is disabled")
	case errors.Is(err, sync.ErrVoucherNotSubmitted):
		h.ErrorWithCode(c, dto.ErrCodeInvalidState, err.Error())
	default:
		h.HandleError(c, err)
	}
}


// PushSalesInvoice godoc
// @ID           pushSalesInvoice
// @Summary      Push a sales invoice voucher
// @Description  Build and transmit the voucher for a submitted sales invoice. Pre-flight failures and gateway rejections come back in the result with the transmission logged; draft invoices, unknown invoices and a disabled integration are errors.
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Param        request body PushVoucherRequest true "Invoice to push"
// @Success      200 {object} APIResponse[tallysync.VoucherPushResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vouchers/sales-invoice [post]
func (h *VoucherHandler) PushSalesInvoice(c *gin.Context) {
	var req PushVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.voucherService.PushSalesInvoice(c.Request.Context(), req.InvoiceName)
	if err != nil {
		h.handleVoucherError(c, err)
		return
	}

	h.Success(c, result)
}
