package sqlite

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/luminate-erp/internal/application/port"
	"github.com/garyjia/luminate-erp/internal/domain/entity"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a transition record
func (r *HistoryRepository) Create(ctx context.Context, record *entity.TransitionRecord) error {
	_, err := r.db.conn(ctx).ExecContext(ctx, `
		INSERT INTO transition_history (
			id, invoice_id, actor, role, previous_status, new_status,
			action, detail, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.InvoiceID,
		record.Actor,
		string(record.Role),
		record.PreviousStatus,
		record.NewStatus,
		record.Action,
		record.Detail,
		record.Timestamp.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.String("invoice_id", record.InvoiceID), zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}
	return nil
}

// ListByInvoice returns the trail of one invoice, oldest first
func (r *HistoryRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.TransitionRecord, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, `
		SELECT id, invoice_id, actor, role, previous_status, new_status,
			action, detail, timestamp
		FROM transition_history
		WHERE invoice_id = ?
		ORDER BY timestamp ASC, rowid ASC
	`, invoiceID)
	if err != nil {
		r.logger.Error("Failed to get history by invoice ID", zap.String("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	records := []*entity.TransitionRecord{}
	for rows.Next() {
		var (
			record entity.TransitionRecord
			role   string
		)
		if err := rows.Scan(
			&record.ID,
			&record.InvoiceID,
			&record.Actor,
			&role,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.Action,
			&record.Detail,
			&record.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		record.Role = entity.Role(role)
		records = append(records, &record)
	}

	return records, rows.Err()
}

var _ port.HistoryRepository = (*HistoryRepository)(nil)
