package handler

// DependencyCheckQuery identifies the ERP transaction to resolve
type DependencyCheckQuery struct {
	Doctype string `form:"doctype" binding:"required,max=100"`
	Docname string `form:"docname" binding:"required,max=500"`
	Company string `form:"company" binding:"omitempty,max=200"`
}

// CreateMissingRequest asks for creation requests covering a
// transaction's missing masters
type CreateMissingRequest struct {
	Doctype string `json:"doctype" binding:"required,max=100"`
	Docname string `json:"docname" binding:"required,max=500"`
	Company string `json:"company" binding:"omitempty,max=200"`
}

// DocumentSubmittedRequest is the ERP submit hook payload
type DocumentSubmittedRequest struct {
	Doctype     string `json:"doctype" binding:"required,max=100"`
	Docname     string `json:"docname" binding:"required,max=500"`
	Company     string `json:"company" binding:"omitempty,max=200"`
	SubmittedBy string `json:"submitted_by" binding:"omitempty,max=200"`
}
