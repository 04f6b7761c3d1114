package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/luminate-erp/internal/application/workflow"
	"github.com/garyjia/luminate-erp/internal/domain/entity"
	domainwf "github.com/garyjia/luminate-erp/internal/domain/workflow"
)

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

type staticReader struct {
	snap workflow.Snapshot
}

func (r *staticReader) Snapshot(ctx context.Context) workflow.Snapshot {
	return r.snap
}

func invoiceOn(id string, day int, status domainwf.State, net int64) *entity.Invoice {
	return &entity.Invoice{
		ID:         id,
		SchoolName: "School " + id,
		Date:       time.Date(2026, 3, day, 10, 0, 0, 0, time.UTC),
		NetRevenue: decimal.NewFromInt(net),
		Status:     status,
	}
}

func sampleSnapshot() workflow.Snapshot {
	return workflow.Snapshot{
		Invoices: []*entity.Invoice{
			invoiceOn("INV-1", 3, domainwf.StateFinalized, 3825),
			invoiceOn("INV-2", 1, domainwf.StateFinalized, 1000),
			invoiceOn("INV-3", 3, domainwf.StateFinalized, 175),
			invoiceOn("INV-4", 4, domainwf.StatePendingApproval, 500),
			invoiceOn("INV-5", 4, domainwf.StateApprovedStock, 250),
			invoiceOn("INV-6", 4, domainwf.StateRejected, 9000),
		},
		Products: []entity.Product{
			{ID: "P001", Name: "Mathematics Textbook Gr 10", Stock: 400, ReorderLevel: 100},
			{ID: "P002", Name: "Science Lab Kit", Stock: 20, ReorderLevel: 20},
			{ID: "P004", Name: "Luminate Tablet", Stock: 15, ReorderLevel: 25},
		},
		Ledger: []entity.LedgerEntry{
			{InvoiceID: "INV-1", Type: entity.EntryTypeRevenue, Credit: decimal.NewFromInt(3825)},
			{InvoiceID: "INV-1", Type: entity.EntryTypeRoyalty, Credit: decimal.NewFromInt(675)},
			{InvoiceID: "INV-2", Type: entity.EntryTypeRevenue, Credit: decimal.NewFromInt(1000)},
			{InvoiceID: "INV-3", Type: entity.EntryTypeRevenue, Credit: decimal.NewFromInt(175)},
		},
	}
}
