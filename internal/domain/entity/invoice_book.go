package entity

import (
	"github.com/garyjia/luminate-erp/internal/apperrors"
	"github.com/garyjia/luminate-erp/internal/domain/workflow"
)

// InvoiceBook stores invoices in insertion order. Presentation layers
// reverse it for newest-first display.
type InvoiceBook struct {
	invoices []*Invoice
	index    map[string]int
}

// NewInvoiceBook builds a book holding copies of the given invoices
func NewInvoiceBook(invoices []*Invoice) *InvoiceBook {
	b := &InvoiceBook{
		invoices: make([]*Invoice, 0, len(invoices)),
		index:    make(map[string]int, len(invoices)),
	}
	for _, inv := range invoices {
		b.index[inv.ID] = len(b.invoices)
		b.invoices = append(b.invoices, inv.Clone())
	}
	return b
}

// Create appends a new invoice in PENDING_APPROVAL with no approvals. An
// invoice without an id takes one from nextID.
func (b *InvoiceBook) Create(inv *Invoice, nextID func() (string, error)) (*Invoice, error) {
	id := inv.ID
	if id == "" {
		if nextID == nil {
			return nil, apperrors.NewValidationError("id", "invoice id is required")
		}
		generated, err := nextID()
		if err != nil {
			return nil, err
		}
		id = generated
	}
	if _, exists := b.index[id]; exists {
		return nil, apperrors.NewValidationError("id", "duplicate invoice id "+id)
	}

	stored := inv.Clone()
	stored.ID = id
	stored.Status = workflow.StatePendingApproval
	stored.Approvals = Approvals{}
	stored.SyncStatus = nil

	b.index[stored.ID] = len(b.invoices)
	b.invoices = append(b.invoices, stored)
	return stored.Clone(), nil
}

// Find returns a copy of the invoice with the given ID
func (b *InvoiceBook) Find(id string) (*Invoice, error) {
	i, ok := b.index[id]
	if !ok {
		return nil, apperrors.NotFound("invoice", id)
	}
	return b.invoices[i].Clone(), nil
}

// Update applies fn to the stored invoice in place
func (b *InvoiceBook) Update(id string, fn func(inv *Invoice) error) error {
	i, ok := b.index[id]
	if !ok {
		return apperrors.NotFound("invoice", id)
	}
	return fn(b.invoices[i])
}

// List returns copies of all invoices
func (b *InvoiceBook) List() []*Invoice {
	out := make([]*Invoice, len(b.invoices))
	for i, inv := range b.invoices {
		out[i] = inv.Clone()
	}
	return out
}

// Len returns the number of invoices
func (b *InvoiceBook) Len() int {
	return len(b.invoices)
}

// Clone returns an independent copy
func (b *InvoiceBook) Clone() *InvoiceBook {
	return NewInvoiceBook(b.invoices)
}
