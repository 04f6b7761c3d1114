package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/luminate-erp/internal/domain/entity"
)

// SyncRecord is the row pushed to the external sheet for a finalized invoice
type SyncRecord struct {
	InvoiceID   string
	SchoolName  string
	Quantity    int
	Amount      decimal.Decimal
	Royalty     decimal.Decimal
	NetRevenue  decimal.Decimal
	FinalizedAt time.Time
}

// Row renders the record in sheet column order
func (r SyncRecord) Row() []interface{} {
	return []interface{}{
		r.InvoiceID,
		r.SchoolName,
		r.Quantity,
		r.Amount.StringFixed(2),
		r.Royalty.StringFixed(2),
		r.NetRevenue.StringFixed(2),
		r.FinalizedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

// SyncHeaders names the columns produced by SyncRecord.Row
var SyncHeaders = []interface{}{"Invoice ID", "School", "Quantity", "Amount", "Royalty (15%)", "Net Revenue", "Finalized At"}

// SyncTarget receives finalized invoices. Push failures never affect the
// invoice beyond its sync status.
type SyncTarget interface {
	Name() string
	Push(ctx context.Context, record SyncRecord) error
}

// InsightFacts is the business summary handed to the insight model
type InsightFacts struct {
	Question         string
	TotalInvoices    int
	PendingApprovals int
	LowStockItems    []string
	NetRevenue       decimal.Decimal
	RoyaltyPayable   decimal.Decimal
}

// Anomaly flags one invoice the model considers unusual
type Anomaly struct {
	InvoiceID string `json:"id"`
	Reason    string `json:"reason"`
}

// InsightProvider answers questions about the business. It only reads the
// data it is given.
type InsightProvider interface {
	Ask(ctx context.Context, facts InsightFacts) (string, error)
	DetectAnomalies(ctx context.Context, invoices []*entity.Invoice) ([]Anomaly, error)
}
