package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/luminate-erp/internal/application/port"
	"github.com/garyjia/luminate-erp/internal/domain/entity"
)

// Snapshot file names
const (
	InvoicesKey = "erp_invoices.json"
	ProductsKey = "erp_products.json"
	LedgerKey   = "erp_ledger.json"
)

type document struct {
	key string
	v   interface{}
}

// JSONStateStore keeps the ERP state as three JSON documents. SaveAll
// encodes all three before writing any, and restores the previous
// documents when a later write fails.
type JSONStateStore struct {
	files  port.DocumentStore
	logger *zap.Logger
}

// NewJSONStateStore creates a store on top of files
func NewJSONStateStore(files port.DocumentStore, logger *zap.Logger) *JSONStateStore {
	return &JSONStateStore{files: files, logger: logger}
}

func (s *JSONStateStore) LoadInvoices(ctx context.Context) ([]*entity.Invoice, error) {
	var invoices []*entity.Invoice
	if err := s.load(ctx, InvoicesKey, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *JSONStateStore) LoadProducts(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	if err := s.load(ctx, ProductsKey, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *JSONStateStore) LoadLedger(ctx context.Context) ([]entity.LedgerEntry, error) {
	var ledger []entity.LedgerEntry
	if err := s.load(ctx, LedgerKey, &ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

// load decodes key into v. A missing key leaves v empty.
func (s *JSONStateStore) load(ctx context.Context, key string, v interface{}) error {
	if !s.files.Exists(ctx, key) {
		return nil
	}
	data, err := s.files.Read(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (s *JSONStateStore) SaveAll(ctx context.Context, invoices []*entity.Invoice, products []entity.Product, ledger []entity.LedgerEntry) error {
	if invoices == nil {
		invoices = []*entity.Invoice{}
	}
	if products == nil {
		products = []entity.Product{}
	}
	if ledger == nil {
		ledger = []entity.LedgerEntry{}
	}

	docs := []document{
		{InvoicesKey, invoices},
		{ProductsKey, products},
		{LedgerKey, ledger},
	}

	encoded := make([][]byte, len(docs))
	for i, d := range docs {
		data, err := json.MarshalIndent(d.v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", d.key, err)
		}
		encoded[i] = data
	}

	previous := make(map[string][]byte, len(docs))
	for _, d := range docs {
		if s.files.Exists(ctx, d.key) {
			data, err := s.files.Read(ctx, d.key)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", d.key, err)
			}
			previous[d.key] = data
		}
	}

	for i, d := range docs {
		if err := s.files.Save(ctx, d.key, encoded[i]); err != nil {
			s.restore(ctx, docs[:i], previous)
			s.logger.Error("Failed to save ERP state", zap.String("key", d.key), zap.Error(err))
			return fmt.Errorf("failed to write %s: %w", d.key, err)
		}
	}

	s.logger.Debug("ERP state saved",
		zap.Int("invoices", len(invoices)),
		zap.Int("products", len(products)),
		zap.Int("ledger_entries", len(ledger)))
	return nil
}

// restore puts back the documents already overwritten by a failed SaveAll
func (s *JSONStateStore) restore(ctx context.Context, written []document, previous map[string][]byte) {
	ctx = context.WithoutCancel(ctx)
	for _, d := range written {
		var err error
		if data, ok := previous[d.key]; ok {
			err = s.files.Save(ctx, d.key, data)
		} else {
			err = s.files.Delete(ctx, d.key)
		}
		if err != nil {
			s.logger.Error("Failed to restore snapshot document", zap.String("key", d.key), zap.Error(err))
		}
	}
}

var _ port.StateStore = (*JSONStateStore)(nil)
