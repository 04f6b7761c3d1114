// Package workbook appends finalized invoices to a local XLSX file
package workbook

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/luminate-erp/internal/application/port"
)

// DefaultSheet is the worksheet rows are appended to
const DefaultSheet = "Invoices"

// Target writes one row per finalized invoice
type Target struct {
	path   string
	sheet  string
	logger *zap.Logger

	mu sync.Mutex
}

// NewTarget creates a workbook target writing to path
func NewTarget(path, sheet string, logger *zap.Logger) *Target {
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &Target{path: path, sheet: sheet, logger: logger}
}

func (t *Target) Name() string {
	return "workbook"
}

// Push appends record below the last used row, writing headers first when
// the sheet is new
func (t *Target) Push(ctx context.Context, record port.SyncRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := t.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(t.sheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %s: %w", t.sheet, err)
	}

	next := len(rows) + 1
	if len(rows) == 0 {
		headers := append([]interface{}(nil), port.SyncHeaders...)
		if err := f.SetSheetRow(t.sheet, "A1", &headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
		next = 2
	}

	row := record.Row()
	cell, err := excelize.CoordinatesToCellName(1, next)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(t.sheet, cell, &row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := f.SaveAs(t.path); err != nil {
		t.logger.Error("Failed to save workbook", zap.String("path", t.path), zap.Error(err))
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	t.logger.Info("Invoice appended to workbook",
		zap.String("invoice_id", record.InvoiceID),
		zap.String("path", t.path),
		zap.Int("row", next))
	return nil
}

// open loads the workbook, or starts a new one, and makes sure the target
// sheet exists
func (t *Target) open() (*excelize.File, error) {
	var f *excelize.File
	if _, err := os.Stat(t.path); err == nil {
		f, err = excelize.OpenFile(t.path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
	} else {
		f = excelize.NewFile()
		if err := f.SetSheetName(f.GetSheetName(0), t.sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	idx, err := f.GetSheetIndex(t.sheet)
	if err != nil {
		f.Close()
		return nil, err
	}
	if idx == -1 {
		if _, err := f.NewSheet(t.sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to add sheet %s: %w", t.sheet, err)
		}
	}
	return f, nil
}

var _ port.SyncTarget = (*Target)(nil)
