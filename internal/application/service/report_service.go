package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/garyjia/luminate-erp/internal/domain/entity"
	domainwf "github.com/garyjia/luminate-erp/internal/domain/workflow"
)

// DailyRevenue is the net revenue finalized on one invoice date
type DailyRevenue struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// Dashboard summarizes the business for the CEO view
type Dashboard struct {
	TotalNetRevenue   decimal.Decimal  `json:"total_net_revenue"`
	RoyaltyPayable    decimal.Decimal  `json:"royalty_payable"`
	PendingNetRevenue decimal.Decimal  `json:"pending_net_revenue"`
	PendingInvoices   int              `json:"pending_invoices"`
	FinalizedInvoices int              `json:"finalized_invoices"`
	RejectedInvoices  int              `json:"rejected_invoices"`
	LowStock          []entity.Product `json:"low_stock"`
	RevenueTrend      []DailyRevenue   `json:"revenue_trend"`
}

// ReportService computes read-only reports
type ReportService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type reportServiceImpl struct {
	reader StateReader
}

// NewReportService creates a new ReportService
func NewReportService(reader StateReader) ReportService {
	return &reportServiceImpl{reader: reader}
}

// Dashboard totals ledger revenue and groups finalized invoices by date
func (s *reportServiceImpl) Dashboard(ctx context.Context) (*Dashboard, error) {
	snap := s.reader.Snapshot(ctx)

	d := &Dashboard{
		TotalNetRevenue:   decimal.Zero,
		RoyaltyPayable:    decimal.Zero,
		PendingNetRevenue: decimal.Zero,
		LowStock:          []entity.Product{},
		RevenueTrend:      []DailyRevenue{},
	}

	for _, entry := range snap.Ledger {
		switch entry.Type {
		case entity.EntryTypeRevenue:
			d.TotalNetRevenue = d.TotalNetRevenue.Add(entry.Credit)
		case entity.EntryTypeRoyalty:
			d.RoyaltyPayable = d.RoyaltyPayable.Add(entry.Credit)
		}
	}

	byDate := make(map[string]decimal.Decimal)
	for _, inv := range snap.Invoices {
		switch inv.Status {
		case domainwf.StateFinalized:
			d.FinalizedInvoices++
			day := inv.Date.Format("2006-01-02")
			byDate[day] = byDate[day].Add(inv.NetRevenue)
		case domainwf.StateRejected:
			d.RejectedInvoices++
		default:
			d.PendingInvoices++
			d.PendingNetRevenue = d.PendingNetRevenue.Add(inv.NetRevenue)
		}
	}

	for day, amount := range byDate {
		d.RevenueTrend = append(d.RevenueTrend, DailyRevenue{Date: day, Amount: amount})
	}
	sort.Slice(d.RevenueTrend, func(i, j int) bool {
		return d.RevenueTrend[i].Date < d.RevenueTrend[j].Date
	})

	for _, p := range snap.Products {
		if p.IsLowStock() {
			d.LowStock = append(d.LowStock, p)
		}
	}

	return d, nil
}
