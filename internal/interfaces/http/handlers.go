package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/luminate-erp/internal/application/workflow"
	"github.com/garyjia/luminate-erp/internal/domain/entity"
	"github.com/garyjia/luminate-erp/pkg/utils"
)

// Version is reported by the health check
const Version = "1.0.0"

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	useJSONFieldNames()
	return &Handlers{
		services: services,
		logger:   logger,
	}
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	ok(c, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
		Invoices:  len(h.services.Engine.ListInvoices(ctx)),
		Products:  len(h.services.Engine.ListProducts(ctx)),
	})
}

// ListProducts handles GET /api/v1/products
func (h *Handlers) ListProducts(c *gin.Context) {
	ok(c, http.StatusOK, h.services.Engine.ListProducts(c.Request.Context()))
}

// ListInvoices handles GET /api/v1/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	ok(c, http.StatusOK, h.services.Engine.ListInvoices(c.Request.Context()))
}

// GetInvoice handles GET /api/v1/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	inv, err := h.services.Engine.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, inv)
}

// GetHistory handles GET /api/v1/invoices/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := h.services.Engine.GetInvoice(ctx, id); err != nil {
		h.writeError(c, err)
		return
	}

	records, err := h.services.History.ForInvoice(ctx, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, records)
}

// CreateInvoice handles POST /api/v1/invoices
func (h *Handlers) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindingError(err))
		return
	}

	lines := make([]workflow.InvoiceLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, workflow.InvoiceLine{
			ProductID: strings.TrimSpace(item.ProductID),
			Quantity:  item.Quantity,
		})
	}

	inv, err := h.services.Engine.CreateInvoice(c.Request.Context(), workflow.CreateInvoiceInput{
		SchoolName: utils.NormalizeText(req.SchoolName),
		Lines:      lines,
		CreatedBy:  utils.NormalizeText(req.CreatedBy),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	ok(c, http.StatusCreated, inv)
}

// ApproveInvoice handles POST /api/v1/invoices/:id/approve
func (h *Handlers) ApproveInvoice(c *gin.Context) {
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindingError(err))
		return
	}

	inv, err := h.services.Engine.Approve(c.Request.Context(), workflow.ApproveInput{
		InvoiceID: c.Param("id"),
		Role:      entity.Role(req.Role),
		Approver:  utils.NormalizeText(req.Approver),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.Info("Invoice approved", "invoice_id", inv.ID, "role", req.Role, "status", inv.Status.String())
	ok(c, http.StatusOK, inv)
}

// RejectInvoice handles POST /api/v1/invoices/:id/reject
func (h *Handlers) RejectInvoice(c *gin.Context) {
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindingError(err))
		return
	}

	inv, err := h.services.Engine.Reject(c.Request.Context(), workflow.RejectInput{
		InvoiceID: c.Param("id"),
		Role:      entity.Role(req.Role),
		Approver:  utils.NormalizeText(req.Approver),
		Reason:    utils.NormalizeText(req.Reason),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.Info("Invoice rejected", "invoice_id", inv.ID, "role", req.Role)
	ok(c, http.StatusOK, inv)
}

// PendingQueue handles GET /api/v1/queues/:role
func (h *Handlers) PendingQueue(c *gin.Context) {
	role := entity.Role(strings.ToUpper(c.Param("role")))
	invoices, err := h.services.Engine.PendingFor(c.Request.Context(), role)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, invoices)
}

// ListLedger handles GET /api/v1/ledger
func (h *Handlers) ListLedger(c *gin.Context) {
	ok(c, http.StatusOK, h.services.Engine.ListLedger(c.Request.Context()))
}

// Dashboard handles GET /api/v1/dashboard
func (h *Handlers) Dashboard(c *gin.Context) {
	dashboard, err := h.services.Reports.Dashboard(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, dashboard)
}

// AskInsight handles POST /api/v1/insights/ask
func (h *Handlers) AskInsight(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindingError(err))
		return
	}

	answer, err := h.services.Insights.Ask(c.Request.Context(), utils.NormalizeText(req.Question))
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, AnswerResponse{Answer: answer})
}

// DetectAnomalies handles GET /api/v1/insights/anomalies
func (h *Handlers) DetectAnomalies(c *gin.Context) {
	anomalies, err := h.services.Insights.DetectAnomalies(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, anomalies)
}
