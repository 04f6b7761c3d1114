package memory

import (
	"context"
	"sync"

	"github.com/garyjia/luminate-erp/internal/application/port"
	"github.com/garyjia/luminate-erp/internal/domain/entity"
)

// HistoryRepository keeps the audit trail in insertion order
type HistoryRepository struct {
	mu      sync.RWMutex
	records []entity.TransitionRecord
}

// NewHistoryRepository returns an empty repository
func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

func (r *HistoryRepository) Create(ctx context.Context, record *entity.TransitionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

func (r *HistoryRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.TransitionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*entity.TransitionRecord{}
	for i := range r.records {
		if r.records[i].InvoiceID == invoiceID {
			rec := r.records[i]
			out = append(out, &rec)
		}
	}
	return out, nil
}

var _ port.HistoryRepository = (*HistoryRepository)(nil)
