package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/luminate-erp/internal/application/port"
	"github.com/garyjia/luminate-erp/internal/domain/entity"
	domainwf "github.com/garyjia/luminate-erp/internal/domain/workflow"
)

// StateStore implements port.StateStore on SQLite. SaveAll rewrites the
// snapshot tables in a single transaction.
type StateStore struct {
	db     *DB
	logger *zap.Logger
}

// NewStateStore creates a new SQLite state store
func NewStateStore(db *DB, logger *zap.Logger) *StateStore {
	return &StateStore{db: db, logger: logger}
}

func (s *StateStore) LoadProducts(ctx context.Context) ([]entity.Product, error) {
	rows, err := s.db.conn(ctx).QueryContext(ctx, `
		SELECT id, name, price, stock, reorder_level, category
		FROM products
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.ReorderLevel, &p.Category); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *StateStore) LoadInvoices(ctx context.Context) ([]*entity.Invoice, error) {
	exec := s.db.conn(ctx)

	rows, err := exec.QueryContext(ctx, `
		SELECT id, school_name, date, total_amount, royalty_fee, net_revenue,
			status, sync_status, created_by, updated_at
		FROM invoices
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	byID := make(map[string]*entity.Invoice)
	for rows.Next() {
		var (
			inv    entity.Invoice
			status string
			sync   sql.NullString
		)
		if err := rows.Scan(&inv.ID, &inv.SchoolName, &inv.Date, &inv.TotalAmount, &inv.RoyaltyFee,
			&inv.NetRevenue, &status, &sync, &inv.CreatedBy, &inv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		inv.Status = domainwf.State(status)
		if sync.Valid {
			inv.SetSyncStatus(entity.SyncStatus(sync.String))
		}
		invoices = append(invoices, &inv)
		byID[inv.ID] = &inv
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadItems(ctx, exec, byID); err != nil {
		return nil, err
	}
	if err := s.loadApprovals(ctx, exec, byID); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *StateStore) loadItems(ctx context.Context, exec querier, byID map[string]*entity.Invoice) error {
	rows, err := exec.QueryContext(ctx, `
		SELECT invoice_id, product_id, product_name, quantity, unit_price, total
		FROM invoice_items
		ORDER BY invoice_id, line_no
	`)
	if err != nil {
		return fmt.Errorf("failed to query invoice items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			invoiceID string
			item      entity.InvoiceItem
		)
		if err := rows.Scan(&invoiceID, &item.ProductID, &item.ProductName, &item.Quantity,
			&item.UnitPrice, &item.Total); err != nil {
			return fmt.Errorf("failed to scan invoice item: %w", err)
		}
		if inv, ok := byID[invoiceID]; ok {
			inv.Items = append(inv.Items, item)
		}
	}
	return rows.Err()
}

func (s *StateStore) loadApprovals(ctx context.Context, exec querier, byID map[string]*entity.Invoice) error {
	rows, err := exec.QueryContext(ctx, `
		SELECT invoice_id, role, approved, approved_by, approved_at, signature
		FROM invoice_approvals
	`)
	if err != nil {
		return fmt.Errorf("failed to query invoice approvals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			invoiceID string
			role      string
			ap        entity.Approval
		)
		if err := rows.Scan(&invoiceID, &role, &ap.Approved, &ap.By, &ap.Date, &ap.Signature); err != nil {
			return fmt.Errorf("failed to scan invoice approval: %w", err)
		}
		if inv, ok := byID[invoiceID]; ok {
			inv.Approvals.Set(entity.Role(role), ap)
		}
	}
	return rows.Err()
}

func (s *StateStore) LoadLedger(ctx context.Context) ([]entity.LedgerEntry, error) {
	rows, err := s.db.conn(ctx).QueryContext(ctx, `
		SELECT id, date, invoice_id, description, debit, credit, type
		FROM ledger_entries
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var entries []entity.LedgerEntry
	for rows.Next() {
		var (
			e   entity.LedgerEntry
			typ string
		)
		if err := rows.Scan(&e.ID, &e.Date, &e.InvoiceID, &e.Description, &e.Debit, &e.Credit, &typ); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Type = entity.EntryType(typ)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveAll replaces the stored snapshot. Any failure rolls the whole write back.
func (s *StateStore) SaveAll(ctx context.Context, invoices []*entity.Invoice, products []entity.Product, ledger []entity.LedgerEntry) error {
	err := s.db.replaceSnapshot(ctx, func(txCtx context.Context, exec querier) error {
		for i, p := range products {
			if _, err := exec.ExecContext(txCtx, `
				INSERT INTO products (id, position, name, price, stock, reorder_level, category)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, p.ID, i, p.Name, p.Price.String(), p.Stock, p.ReorderLevel, p.Category); err != nil {
				return fmt.Errorf("failed to insert product %s: %w", p.ID, err)
			}
		}

		for i, inv := range invoices {
			if err := insertInvoice(txCtx, exec, i, inv); err != nil {
				return err
			}
		}

		for i, e := range ledger {
			if _, err := exec.ExecContext(txCtx, `
				INSERT INTO ledger_entries (id, position, date, invoice_id, description, debit, credit, type)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, e.ID, i, e.Date.UTC(), e.InvoiceID, e.Description, e.Debit.String(), e.Credit.String(), string(e.Type)); err != nil {
				return fmt.Errorf("failed to insert ledger entry %s: %w", e.ID, err)
			}
		}

		return nil
	})
	if err != nil {
		s.logger.Error("Failed to save ERP state", zap.Error(err))
		return err
	}

	s.logger.Debug("ERP state saved",
		zap.Int("invoices", len(invoices)),
		zap.Int("products", len(products)),
		zap.Int("ledger_entries", len(ledger)))
	return nil
}

func insertInvoice(ctx context.Context, exec querier, position int, inv *entity.Invoice) error {
	var sync sql.NullString
	if inv.SyncStatus != nil {
		sync = sql.NullString{String: string(*inv.SyncStatus), Valid: true}
	}

	if _, err := exec.ExecContext(ctx, `
		INSERT INTO invoices (id, position, school_name, date, total_amount, royalty_fee, net_revenue,
			status, sync_status, created_by, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, inv.ID, position, inv.SchoolName, inv.Date.UTC(), inv.TotalAmount.String(), inv.RoyaltyFee.String(),
		inv.NetRevenue.String(), inv.Status.String(), sync, inv.CreatedBy, inv.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert invoice %s: %w", inv.ID, err)
	}

	for n, item := range inv.Items {
		if _, err := exec.ExecContext(ctx, `
			INSERT INTO invoice_items (invoice_id, line_no, product_id, product_name, quantity, unit_price, total)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, inv.ID, n, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice.String(), item.Total.String()); err != nil {
			return fmt.Errorf("failed to insert item %d of invoice %s: %w", n, inv.ID, err)
		}
	}

	for _, role := range []entity.Role{entity.RoleAccounts, entity.RoleStock} {
		ap := inv.Approvals.ForRole(role)
		if ap == nil {
			continue
		}
		if _, err := exec.ExecContext(ctx, `
			INSERT INTO invoice_approvals (invoice_id, role, approved, approved_by, approved_at, signature)
			VALUES (?, ?, ?, ?, ?, ?)
		`, inv.ID, role.String(), ap.Approved, ap.By, ap.Date.UTC(), ap.Signature); err != nil {
			return fmt.Errorf("failed to insert %s approval of invoice %s: %w", role, inv.ID, err)
		}
	}

	return nil
}

var _ port.StateStore = (*StateStore)(nil)
