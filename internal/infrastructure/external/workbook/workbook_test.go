package workbook

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/luminate-erp/internal/application/port"
)

func record(id string, net int64) port.SyncRecord {
	return port.SyncRecord{
		InvoiceID:   id,
		SchoolName:  "Lincoln High",
		Quantity:    100,
		Amount:      decimal.NewFromInt(4500),
		Royalty:     decimal.NewFromInt(675),
		NetRevenue:  decimal.NewFromInt(net),
		FinalizedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestTarget_AppendsRowsWithHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "sync.xlsx")
	target := NewTarget(path, "", zap.NewNop())
	ctx := context.Background()

	require.NoError(t, target.Push(ctx, record("INV-2026-0001", 3825)))
	require.NoError(t, target.Push(ctx, record("INV-2026-0002", 100)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(DefaultSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Invoice ID", rows[0][0])
	assert.Equal(t, "Net Revenue", rows[0][5])
	assert.Equal(t, []string{"INV-2026-0001", "Lincoln High", "100", "4500.00", "675.00", "3825.00", "2026-03-02 10:00:00"}, rows[1])
	assert.Equal(t, "INV-2026-0002", rows[2][0])
}

func TestTarget_AddsSheetToExistingWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "existing.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "keep me"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	target := NewTarget(path, "Sales", zap.NewNop())
	require.NoError(t, target.Push(context.Background(), record("INV-2026-0001", 3825)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	kept, err := f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "keep me", kept)

	rows, err := f.GetRows("Sales")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestTarget_CancelledContext(t *testing.T) {
	target := NewTarget(filepath.Join(t.TempDir(), "x.xlsx"), "", zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, target.Push(ctx, record("INV-2026-0001", 1)))
	assert.Equal(t, "workbook", target.Name())
}
