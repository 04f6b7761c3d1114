package config

import (
	"github.com/garyjia/luminate-erp/internal/container"
	"github.com/garyjia/luminate-erp/internal/infrastructure/external/lark"
	"github.com/garyjia/luminate-erp/internal/infrastructure/external/sheets"
	"github.com/garyjia/luminate-erp/internal/infrastructure/worker"
	httpapi "github.com/garyjia/luminate-erp/internal/interfaces/http"
	"github.com/garyjia/luminate-erp/pkg/database"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() (*container.Config, error) {
	products, err := c.Catalog.SeedProducts()
	if err != nil {
		return nil, err
	}
	invoices, err := c.Catalog.SeedInvoices(products)
	if err != nil {
		return nil, err
	}

	return &container.Config{
		Server: httpapi.ServerConfig{
			Host:           c.Server.Host,
			Port:           c.Server.Port,
			ReadTimeout:    c.Server.ReadTimeout,
			WriteTimeout:   c.Server.WriteTimeout,
			AllowedOrigins: c.Server.AllowedOrigins,
		},
		Database: database.Config{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Storage: container.StorageConfig{
			Backend: c.Storage.Backend,
			DataDir: c.Storage.DataDir,
		},
		Sync: container.SyncConfig{
			Target: c.Sync.Target,
			Worker: worker.SyncWorkerConfig{
				QueueSize:    c.Sync.QueueSize,
				PushTimeout:  c.Sync.PushTimeout,
				MaxAttempts:  c.Sync.MaxAttempts,
				RetryBackoff: c.Sync.RetryBackoff,
			},
			Workbook: container.WorkbookConfig{
				Path:  c.Sync.Workbook.Path,
				Sheet: c.Sync.Workbook.Sheet,
			},
			Sheets: sheets.Config{
				SpreadsheetID:   c.Sync.Sheets.SpreadsheetID,
				SheetName:       c.Sync.Sheets.SheetName,
				CredentialsFile: c.Sync.Sheets.CredentialsFile,
				CredentialsJSON: c.Sync.Sheets.CredentialsJSON,
			},
			Lark: lark.Config{
				AppID:         c.Sync.Lark.AppID,
				AppSecret:     c.Sync.Lark.AppSecret,
				ReceiveID:     c.Sync.Lark.ReceiveID,
				ReceiveIDType: c.Sync.Lark.ReceiveIDType,
			},
		},
		Insight: container.InsightConfig{
			APIKey:      c.Insight.APIKey,
			BaseURL:     c.Insight.BaseURL,
			Model:       c.Insight.Model,
			PromptsPath: c.Insight.PromptsPath,
		},
		Catalog:      products,
		SeedInvoices: invoices,
	}, nil
}
