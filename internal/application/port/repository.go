package port

import (
	"context"

	"github.com/garyjia/luminate-erp/internal/domain/entity"
)

// StateStore persists the whole ERP state. SaveAll replaces the previous
// snapshot and either fully succeeds or leaves it unchanged.
type StateStore interface {
	LoadInvoices(ctx context.Context) ([]*entity.Invoice, error)
	LoadProducts(ctx context.Context) ([]entity.Product, error)
	LoadLedger(ctx context.Context) ([]entity.LedgerEntry, error)
	SaveAll(ctx context.Context, invoices []*entity.Invoice, products []entity.Product, ledger []entity.LedgerEntry) error
}

// HistoryRepository stores the invoice audit trail
type HistoryRepository interface {
	Create(ctx context.Context, record *entity.TransitionRecord) error
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.TransitionRecord, error)
}
