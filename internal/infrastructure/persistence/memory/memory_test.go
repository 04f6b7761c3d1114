package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/luminate-erp/internal/domain/entity"
)

func TestStateStore_SaveAllStoresCopies(t *testing.T) {
	store := NewStateStore()
	ctx := context.Background()

	product := entity.Product{ID: "P001", Name: "Textbook", Price: decimal.NewFromInt(45), Stock: 10, ReorderLevel: 2}
	inv := entity.NewInvoice("INV-2026-0001", "Lincoln High", time.Now(), []entity.InvoiceItem{entity.NewInvoiceItem(product, 2)})

	require.NoError(t, store.SaveAll(ctx, []*entity.Invoice{inv}, []entity.Product{product}, nil))
	inv.SchoolName = "mutated"

	invoices, err := store.LoadInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "Lincoln High", invoices[0].SchoolName)

	invoices[0].Items[0].Quantity = 99
	again, _ := store.LoadInvoices(ctx)
	assert.Equal(t, 2, again[0].Items[0].Quantity)

	products, err := store.LoadProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 1, store.Saves())
}

func TestStateStore_SaveAllHonoursCancelledContext(t *testing.T) {
	store := NewStateStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.SaveAll(ctx, nil, []entity.Product{{ID: "P001"}}, nil))
	products, _ := store.LoadProducts(context.Background())
	assert.Empty(t, products)
	assert.Zero(t, store.Saves())
}

func TestHistoryRepository_ListByInvoice(t *testing.T) {
	repo := NewHistoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.TransitionRecord{ID: "1", InvoiceID: "A", Action: "CREATE"}))
	require.NoError(t, repo.Create(ctx, &entity.TransitionRecord{ID: "2", InvoiceID: "B", Action: "CREATE"}))
	require.NoError(t, repo.Create(ctx, &entity.TransitionRecord{ID: "3", InvoiceID: "A", Action: "REJECT"}))

	got, err := repo.ListByInvoice(ctx, "A")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	none, err := repo.ListByInvoice(ctx, "C")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
