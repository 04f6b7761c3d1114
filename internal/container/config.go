// Package container provides dependency injection and lifecycle management
// for the Luminate ERP service.
package container

import (
	"fmt"

	"github.com/garyjia/luminate-erp/internal/domain/entity"
	"github.com/garyjia/luminate-erp/internal/infrastructure/external/lark"
	"github.com/garyjia/luminate-erp/internal/infrastructure/external/sheets"
	"github.com/garyjia/luminate-erp/internal/infrastructure/external/workbook"
	"github.com/garyjia/luminate-erp/internal/infrastructure/worker"
	httpapi "github.com/garyjia/luminate-erp/internal/interfaces/http"
	"github.com/garyjia/luminate-erp/pkg/database"
)

// Storage backends understood by ProvideStateStore
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
	BackendMemory = "memory"
)

// Sync targets understood by ProvideSyncTarget
const (
	SyncNone     = "none"
	SyncWorkbook = "workbook"
	SyncSheets   = "sheets"
	SyncLark     = "lark"
)

// Config holds all configuration for the Container.
type Config struct {
	Server   httpapi.ServerConfig
	Database database.Config
	Storage  StorageConfig
	Sync     SyncConfig
	Insight  InsightConfig

	// Catalog is installed when the store holds no products
	Catalog []entity.Product

	// SeedInvoices are installed with the catalog on first run
	SeedInvoices []*entity.Invoice
}

// StorageConfig selects the state store.
type StorageConfig struct {
	// Backend is one of sqlite, json, memory
	Backend string

	// DataDir holds the JSON documents for the json backend
	DataDir string
}

// SyncConfig selects and tunes the sync side channel.
type SyncConfig struct {
	Target   string
	Worker   worker.SyncWorkerConfig
	Workbook WorkbookConfig
	Sheets   sheets.Config
	Lark     lark.Config
}

// WorkbookConfig holds the local XLSX target settings.
type WorkbookConfig struct {
	Path  string
	Sheet string
}

// InsightConfig holds the LLM provider settings.
type InsightConfig struct {
	// APIKey enables the provider when set
	APIKey      string
	BaseURL     string
	Model       string
	PromptsPath string
}

// DefaultConfig returns a Config with sensible defaults: an in-memory
// store, no sync target and no insight provider.
func DefaultConfig() *Config {
	return &Config{
		Server: httpapi.DefaultServerConfig(),
		Database: database.Config{
			Path:         "data/erp.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
			DataDir: "data",
		},
		Sync: SyncConfig{
			Target: SyncNone,
			Worker: worker.DefaultSyncWorkerConfig(),
			Workbook: WorkbookConfig{
				Path:  "data/invoices.xlsx",
				Sheet: workbook.DefaultSheet,
			},
		},
		Insight: InsightConfig{
			Model: "gpt-4o-mini",
		},
	}
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for the sqlite backend")
		}
	case BackendJSON:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("data dir is required for the json backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Sync.Target {
	case SyncNone, SyncWorkbook, SyncSheets, SyncLark:
	default:
		return fmt.Errorf("unknown sync target %q", c.Sync.Target)
	}

	if c.Sync.Worker.QueueSize <= 0 || c.Sync.Worker.MaxAttempts <= 0 {
		return fmt.Errorf("sync worker queue size and max attempts must be positive")
	}
	return nil
}
