package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/luminate-erp/internal/domain/entity"
)

func TestHistoryRepository_CreateAndList(t *testing.T) {
	repo := NewHistoryRepository(openTestDB(t), zap.NewNop())
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	records := []*entity.TransitionRecord{
		{ID: "h1", InvoiceID: "INV-2026-0001", Actor: "Sam", Role: entity.RoleSales, NewStatus: "PENDING_APPROVAL", Action: "CREATE", Timestamp: base},
		{ID: "h2", InvoiceID: "INV-2026-0002", Actor: "Sam", Role: entity.RoleSales, NewStatus: "PENDING_APPROVAL", Action: "CREATE", Timestamp: base},
		{ID: "h3", InvoiceID: "INV-2026-0001", Actor: "Alice", Role: entity.RoleAccounts, PreviousStatus: "PENDING_APPROVAL", NewStatus: "APPROVED_ACCOUNTS", Action: "APPROVE", Timestamp: base.Add(time.Minute)},
		{ID: "h4", InvoiceID: "INV-2026-0001", Actor: "Steve", Role: entity.RoleStock, PreviousStatus: "APPROVED_ACCOUNTS", NewStatus: "REJECTED", Action: "REJECT", Detail: "damaged stock", Timestamp: base.Add(2 * time.Minute)},
	}
	for _, r := range records {
		require.NoError(t, repo.Create(ctx, r))
	}

	got, err := repo.ListByInvoice(ctx, "INV-2026-0001")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "h1", got[0].ID)
	assert.Equal(t, "h3", got[1].ID)
	assert.Equal(t, entity.RoleAccounts, got[1].Role)
	assert.Equal(t, "damaged stock", got[2].Detail)
	assert.True(t, got[2].Timestamp.Equal(base.Add(2*time.Minute)))
}

func TestHistoryRepository_ListUnknownInvoiceIsEmpty(t *testing.T) {
	repo := NewHistoryRepository(openTestDB(t), zap.NewNop())

	got, err := repo.ListByInvoice(context.Background(), "INV-1999-0001")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHistoryRepository_SurvivesSnapshotRewrite(t *testing.T) {
	db := openTestDB(t)
	repo := NewHistoryRepository(db, zap.NewNop())
	store := NewStateStore(db, zap.NewNop())
	ctx := context.Background()

	invoices, products, ledger := sampleState()
	require.NoError(t, store.SaveAll(ctx, invoices, products, ledger))
	require.NoError(t, repo.Create(ctx, &entity.TransitionRecord{
		ID: "h1", InvoiceID: "INV-2026-0001", Action: "FINALIZE", Timestamp: time.Now(),
	}))
	require.NoError(t, store.SaveAll(ctx, nil, products, nil))

	got, err := repo.ListByInvoice(ctx, "INV-2026-0001")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestHistoryRepository_CreateError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewHistoryRepository(NewDB(mockDB, zap.NewNop()), zap.NewNop())
	mock.ExpectExec("INSERT INTO transition_history").WillReturnError(errors.New("readonly database"))

	err = repo.Create(context.Background(), &entity.TransitionRecord{ID: "h1", InvoiceID: "INV-2026-0001", Action: "CREATE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "readonly database")
	assert.NoError(t, mock.ExpectationsWereMet())
}
