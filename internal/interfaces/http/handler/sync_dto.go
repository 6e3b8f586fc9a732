package handler

// SyncLogListQuery filters the transmission log listing and export
type SyncLogListQuery struct {
	SyncType     string `form:"sync_type" binding:"omitempty,oneof=Master Voucher"`
	Status       string `form:"status" binding:"omitempty,max=50"`
	DocumentType string `form:"document_type" binding:"omitempty,max=100"`
	DocumentName string `form:"document_name" binding:"omitempty,max=500"`
	ErrorType    string `form:"error_type" binding:"omitempty,max=50"`
	Company      string `form:"company" binding:"omitempty,max=200"`
	Search       string `form:"search" binding:"omitempty,max=255"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by" binding:"omitempty,oneof=sync_type status document_type document_name company error_type voucher_number response_at created_at updated_at"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// RetryJobListQuery filters the retry job listing
type RetryJobListQuery struct {
	Status       string `form:"status" binding:"omitempty,max=50"`
	Operation    string `form:"operation" binding:"omitempty,oneof=create_master push_voucher"`
	DocumentType string `form:"document_type" binding:"omitempty,max=100"`
	DocumentName string `form:"document_name" binding:"omitempty,max=500"`
	Search       string `form:"search" binding:"omitempty,max=255"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by" binding:"omitempty,oneof=operation document_type document_name status retry_count next_retry_at last_attempt_at created_at updated_at"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PushVoucherRequest names the submitted sales invoice to push
type PushVoucherRequest struct {
	InvoiceName string `json:"invoice_name" binding:"required,max=500"`
}
