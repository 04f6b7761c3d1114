package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/luminate-erp/internal/domain/entity"
	domainwf "github.com/garyjia/luminate-erp/internal/domain/workflow"
	"github.com/garyjia/luminate-erp/pkg/database"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zap.NewNop()

	sqlDB, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "erp.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.NewMigrator(sqlDB, logger).Run(context.Background(), Migrations()))
	return NewDB(sqlDB, logger)
}

func sampleState() ([]*entity.Invoice, []entity.Product, []entity.LedgerEntry) {
	textbook := entity.Product{ID: "P001", Name: "Mathematics Textbook Gr 10", Price: decimal.RequireFromString("45.00"), Stock: 400, ReorderLevel: 100, Category: "Books"}
	kit := entity.Product{ID: "P002", Name: "Science Lab Kit", Price: decimal.RequireFromString("120.00"), Stock: 50, ReorderLevel: 20, Category: "Equipment"}

	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	finalized := entity.NewInvoice("INV-2026-0001", "Lincoln High", day, []entity.InvoiceItem{
		entity.NewInvoiceItem(textbook, 100),
	})
	finalized.Status = domainwf.StateFinalized
	finalized.Approvals.Set(entity.RoleAccounts, entity.Approval{Approved: true, By: "Alice", Date: day, Signature: "sig_accounts_abc123def"})
	finalized.Approvals.Set(entity.RoleStock, entity.Approval{Approved: true, By: "Steve", Date: day.Add(time.Hour), Signature: "sig_stock_0123456789"})
	finalized.SetSyncStatus(entity.SyncStatusSynced)
	finalized.CreatedBy = "Sam"
	finalized.UpdatedAt = day.Add(time.Hour)

	pending := entity.NewInvoice("INV-2026-0002", "Roosevelt", day.AddDate(0, 0, 1), []entity.InvoiceItem{
		entity.NewInvoiceItem(kit, 2),
		entity.NewInvoiceItem(textbook, 3),
	})

	ledger := entity.PostingEntries(finalized)
	return []*entity.Invoice{finalized, pending}, []entity.Product{textbook, kit}, ledger
}

func TestStateStore_RoundTrip(t *testing.T) {
	store := NewStateStore(openTestDB(t), zap.NewNop())
	ctx := context.Background()
	invoices, products, ledger := sampleState()

	require.NoError(t, store.SaveAll(ctx, invoices, products, ledger))

	gotProducts, err := store.LoadProducts(ctx)
	require.NoError(t, err)
	require.Len(t, gotProducts, 2)
	assert.Equal(t, "P001", gotProducts[0].ID)
	assert.True(t, gotProducts[0].Price.Equal(decimal.NewFromInt(45)))
	assert.Equal(t, 400, gotProducts[0].Stock)
	assert.Equal(t, "Equipment", gotProducts[1].Category)

	gotInvoices, err := store.LoadInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, gotInvoices, 2)

	inv := gotInvoices[0]
	assert.Equal(t, "INV-2026-0001", inv.ID)
	assert.Equal(t, domainwf.StateFinalized, inv.Status)
	assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(4500)))
	assert.True(t, inv.RoyaltyFee.Equal(decimal.NewFromInt(675)))
	assert.True(t, inv.NetRevenue.Equal(decimal.NewFromInt(3825)))
	assert.True(t, inv.Date.Equal(invoices[0].Date))
	require.NotNil(t, inv.SyncStatus)
	assert.Equal(t, entity.SyncStatusSynced, *inv.SyncStatus)
	require.NotNil(t, inv.Approvals.Stock)
	assert.Equal(t, "sig_stock_0123456789", inv.Approvals.Stock.Signature)
	assert.True(t, inv.Approvals.Stock.Date.Equal(invoices[0].Approvals.Stock.Date))
	assert.True(t, inv.Approvals.Both())
	assert.NoError(t, inv.CheckTotals())

	second := gotInvoices[1]
	assert.Nil(t, second.SyncStatus)
	assert.Nil(t, second.Approvals.Accounts)
	require.Len(t, second.Items, 2)
	assert.Equal(t, "P002", second.Items[0].ProductID, "line order is preserved")
	assert.NoError(t, second.CheckTotals())

	gotLedger, err := store.LoadLedger(ctx)
	require.NoError(t, err)
	require.Len(t, gotLedger, 2)
	assert.Equal(t, entity.EntryTypeRevenue, gotLedger[0].Type)
	assert.True(t, gotLedger[0].Credit.Equal(decimal.NewFromInt(3825)))
	assert.Equal(t, entity.EntryTypeRoyalty, gotLedger[1].Type)
}

func TestStateStore_SaveAllReplacesSnapshot(t *testing.T) {
	store := NewStateStore(openTestDB(t), zap.NewNop())
	ctx := context.Background()
	invoices, products, ledger := sampleState()

	require.NoError(t, store.SaveAll(ctx, invoices, products, ledger))
	require.NoError(t, store.SaveAll(ctx, invoices[:1], products[:1], nil))

	gotInvoices, err := store.LoadInvoices(ctx)
	require.NoError(t, err)
	assert.Len(t, gotInvoices, 1)

	gotProducts, err := store.LoadProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, gotProducts, 1)

	gotLedger, err := store.LoadLedger(ctx)
	require.NoError(t, err)
	assert.Empty(t, gotLedger)
}

func TestStateStore_FailedSaveKeepsPreviousSnapshot(t *testing.T) {
	store := NewStateStore(openTestDB(t), zap.NewNop())
	ctx := context.Background()
	invoices, products, ledger := sampleState()
	require.NoError(t, store.SaveAll(ctx, invoices, products, ledger))

	// duplicate primary key aborts the transaction after the deletes ran
	dup := append([]entity.Product{}, products...)
	dup = append(dup, products[0])
	err := store.SaveAll(ctx, nil, dup, nil)
	require.Error(t, err)

	gotInvoices, err := store.LoadInvoices(ctx)
	require.NoError(t, err)
	assert.Len(t, gotInvoices, 2)

	gotLedger, err := store.LoadLedger(ctx)
	require.NoError(t, err)
	assert.Len(t, gotLedger, 2)
}

func TestStateStore_EmptyDatabase(t *testing.T) {
	store := NewStateStore(openTestDB(t), zap.NewNop())
	ctx := context.Background()

	products, err := store.LoadProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	invoices, err := store.LoadInvoices(ctx)
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func newMockStore(t *testing.T) (*StateStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return NewStateStore(NewDB(mockDB, zap.NewNop()), zap.NewNop()), mock
}

func TestStateStore_SaveAllRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM invoice_approvals").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM invoice_items").WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	err := store.SaveAll(context.Background(), nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invoice_items")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStateStore_SaveAllCommitFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	for _, table := range []string{"invoice_approvals", "invoice_items", "invoices", "products", "ledger_entries"} {
		mock.ExpectExec("DELETE FROM " + table).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit().WillReturnError(errors.New("disk I/O error"))

	err := store.SaveAll(context.Background(), nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStateStore_LoadProductsScanError(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "name", "price", "stock", "reorder_level", "category"}).
		AddRow("P001", "Textbook", "not-a-number", 10, 5, "Books")
	mock.ExpectQuery("SELECT id, name, price, stock, reorder_level, category").WillReturnRows(rows)

	_, err := store.LoadProducts(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStateStore_LoadProductsFromRows(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "name", "price", "stock", "reorder_level", "category"}).
		AddRow("P004", "Luminate Tablet", "350.00", 15, 25, "Electronics")
	mock.ExpectQuery("SELECT id, name, price, stock, reorder_level, category").WillReturnRows(rows)

	products, err := store.LoadProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(350)))
	assert.True(t, products[0].IsLowStock())
	assert.NoError(t, mock.ExpectationsWereMet())
}
