package handler

// =====================
// Creation Request DTOs
// =====================

// CreateRequestRequest represents the request body for raising a creation request
// @Name HandlerCreateRequestRequest
type CreateRequestRequest struct {
	MasterType        string `json:"master_type" binding:"required,max=50"`
	MasterName        string `json:"master_name" binding:"required,max=500"`
	ParentGroup       string `json:"parent_group" binding:"omitempty,max=200"`
	Priority          string `json:"priority" binding:"omitempty,oneof=Low Normal High Urgent"`
	SourceDoctype     string `json:"source_doctype" binding:"omitempty,max=100"`
	SourceDocument    string `json:"source_document" binding:"omitempty,max=500"`
	AssignedTo        string `json:"assigned_to" binding:"omitempty,max=200"`
	LinkedDoctype     string `json:"linked_doctype" binding:"omitempty,max=100"`
	LinkedTransaction string `json:"linked_transaction" binding:"omitempty,max=500"`
}

// ApproveRequestRequest carries optional overrides applied at approval time
// @Name HandlerApproveRequestRequest
type ApproveRequestRequest struct {
	ModifiedName   string `json:"modified_name" binding:"omitempty,max=500"`
	ModifiedParent string `json:"modified_parent" binding:"omitempty,max=200"`
}

// RejectRequestRequest carries the mandatory rejection reason
// @Name HandlerRejectRequestRequest
type RejectRequestRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// RequestListQuery represents query parameters for listing creation requests
// @Name HandlerRequestListQuery
type RequestListQuery struct {
	Status         string `form:"status" binding:"omitempty,max=50"`
	MasterType     string `form:"master_type" binding:"omitempty,max=50"`
	Priority       string `form:"priority" binding:"omitempty,oneof=Low Normal High Urgent"`
	RequestedBy    string `form:"requested_by" binding:"omitempty,max=200"`
	AssignedTo     string `form:"assigned_to" binding:"omitempty,max=200"`
	SourceDocument string `form:"source_document" binding:"omitempty,max=500"`
	Open           *bool  `form:"open" binding:"omitempty"`
	Search         string `form:"search" binding:"omitempty,max=200"`
	Page           int    `form:"page" binding:"omitempty,min=1"`
	PageSize       int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy        string `form:"order_by" binding:"omitempty,max=50"`
	OrderDir       string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PendingQueueQuery represents query parameters for the approval queue. An
// empty approver lists the whole queue.
// @Name HandlerPendingQueueQuery
type PendingQueueQuery struct {
	Approver string `form:"approver" binding:"omitempty,max=200"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}
