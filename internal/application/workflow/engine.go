package workflow

import (
	"context"

	"github.com/garyjia/luminate-erp/internal/domain/entity"
)

// Engine is the single writer for invoices, the catalog and the ledger.
// Every mutation is persisted before it becomes visible.
type Engine interface {
	// Load reads the persisted state, seeding the catalog and rebuilding
	// the ledger when needed
	Load(ctx context.Context) error

	// CreateInvoice prices the lines from the catalog and stores a new
	// invoice awaiting approval
	CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*entity.Invoice, error)

	// Approve records an ACCOUNTS or STOCK approval and finalizes the
	// invoice once both are present
	Approve(ctx context.Context, in ApproveInput) (*entity.Invoice, error)

	// Reject moves a non-terminal invoice to REJECTED
	Reject(ctx context.Context, in RejectInput) (*entity.Invoice, error)

	// RecordSyncResult stores the outcome of the external sheet push
	RecordSyncResult(ctx context.Context, invoiceID string, status entity.SyncStatus) error

	GetInvoice(ctx context.Context, id string) (*entity.Invoice, error)
	ListInvoices(ctx context.Context) []*entity.Invoice
	ListProducts(ctx context.Context) []entity.Product
	ListLedger(ctx context.Context) []entity.LedgerEntry

	// PendingFor returns the invoices still waiting on role's approval
	PendingFor(ctx context.Context, role entity.Role) ([]*entity.Invoice, error)

	// Snapshot returns a consistent copy of the whole state
	Snapshot(ctx context.Context) Snapshot
}

// InvoiceLine requests quantity units of a catalog product
type InvoiceLine struct {
	ProductID string
	Quantity  int
}

// CreateInvoiceInput is the command for CreateInvoice
type CreateInvoiceInput struct {
	SchoolName string
	Lines      []InvoiceLine
	CreatedBy  string
}

// ApproveInput is the command for Approve
type ApproveInput struct {
	InvoiceID string
	Role      entity.Role
	Approver  string
}

// RejectInput is the command for Reject
type RejectInput struct {
	InvoiceID string
	Role      entity.Role
	Approver  string
	Reason    string
}

// Snapshot is a point-in-time copy of the engine state
type Snapshot struct {
	Invoices []*entity.Invoice
	Products []entity.Product
	Ledger   []entity.LedgerEntry
}
