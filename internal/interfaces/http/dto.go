package http

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Invoices  int    `json:"invoices"`
	Products  int    `json:"products"`
}

// InvoiceLineRequest is one requested line of a new invoice
type InvoiceLineRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0,lte=100000"`
}

// CreateInvoiceRequest is the body of POST /api/v1/invoices
type CreateInvoiceRequest struct {
	SchoolName string               `json:"school_name" binding:"required,max=200"`
	Items      []InvoiceLineRequest `json:"items" binding:"required,min=1,dive"`
	CreatedBy  string               `json:"created_by" binding:"max=100"`
}

// ApproveRequest is the body of POST /api/v1/invoices/:id/approve
type ApproveRequest struct {
	Role     string `json:"role" binding:"required,oneof=ACCOUNTS STOCK"`
	Approver string `json:"approver" binding:"required,max=100"`
}

// RejectRequest is the body of POST /api/v1/invoices/:id/reject
type RejectRequest struct {
	Role     string `json:"role" binding:"required,oneof=ACCOUNTS STOCK"`
	Approver string `json:"approver" binding:"required,max=100"`
	Reason   string `json:"reason" binding:"max=500"`
}

// AskRequest is the body of POST /api/v1/insights/ask
type AskRequest struct {
	Question string `json:"question" binding:"required,max=1000"`
}

// AnswerResponse wraps an insight answer
type AnswerResponse struct {
	Answer string `json:"answer"`
}
