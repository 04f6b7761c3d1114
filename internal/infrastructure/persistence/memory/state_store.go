// Package memory keeps ERP state in process memory. It backs tests and
// ephemeral runs where nothing should touch disk.
package memory

import (
	"context"
	"sync"

	"github.com/garyjia/luminate-erp/internal/application/port"
	"github.com/garyjia/luminate-erp/internal/domain/entity"
)

// StateStore implements port.StateStore over copies held in memory
type StateStore struct {
	mu       sync.RWMutex
	invoices []*entity.Invoice
	products []entity.Product
	ledger   []entity.LedgerEntry
	saves    int
}

// NewStateStore returns an empty store
func NewStateStore() *StateStore {
	return &StateStore{}
}

func (s *StateStore) LoadInvoices(ctx context.Context) ([]*entity.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneInvoices(s.invoices), nil
}

func (s *StateStore) LoadProducts(ctx context.Context) ([]entity.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.Product(nil), s.products...), nil
}

func (s *StateStore) LoadLedger(ctx context.Context) ([]entity.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.LedgerEntry(nil), s.ledger...), nil
}

func (s *StateStore) SaveAll(ctx context.Context, invoices []*entity.Invoice, products []entity.Product, ledger []entity.LedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices = cloneInvoices(invoices)
	s.products = append([]entity.Product(nil), products...)
	s.ledger = append([]entity.LedgerEntry(nil), ledger...)
	s.saves++
	return nil
}

// Saves reports how many snapshots have been written
func (s *StateStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func cloneInvoices(in []*entity.Invoice) []*entity.Invoice {
	out := make([]*entity.Invoice, len(in))
	for i, inv := range in {
		out[i] = inv.Clone()
	}
	return out
}

var _ port.StateStore = (*StateStore)(nil)
