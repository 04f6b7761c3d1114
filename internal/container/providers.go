package container

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/garyjia/luminate-erp/internal/application/dispatcher"
	"github.com/garyjia/luminate-erp/internal/application/port"
	"github.com/garyjia/luminate-erp/internal/application/service"
	"github.com/garyjia/luminate-erp/internal/application/workflow"
	"github.com/garyjia/luminate-erp/internal/domain/entity"
	"github.com/garyjia/luminate-erp/internal/infrastructure/external/lark"
	"github.com/garyjia/luminate-erp/internal/infrastructure/external/openai"
	"github.com/garyjia/luminate-erp/internal/infrastructure/external/sheets"
	"github.com/garyjia/luminate-erp/internal/infrastructure/external/workbook"
	"github.com/garyjia/luminate-erp/internal/infrastructure/persistence/memory"
	"github.com/garyjia/luminate-erp/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/luminate-erp/internal/infrastructure/storage"
	"github.com/garyjia/luminate-erp/internal/infrastructure/worker"
	"github.com/garyjia/luminate-erp/pkg/database"
)

// StoreBundle holds the persistence components for one backend.
type StoreBundle struct {
	State   port.StateStore
	History port.HistoryRepository

	// SqlDB is set for the sqlite backend only
	SqlDB *sql.DB
}

// ServiceBundle groups the read-only collaborators.
type ServiceBundle struct {
	History  service.HistoryService
	Reports  service.ReportService
	Insights service.InsightService
}

// ProvideStateStore opens the configured backend. The sqlite backend runs
// pending migrations before returning.
func ProvideStateStore(ctx context.Context, cfg *Config, logger *zap.Logger) (*StoreBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Storage.Backend {
	case BackendSQLite:
		if dir := filepath.Dir(cfg.Database.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}

		sqlDB, err := database.Open(cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		if err := database.NewMigrator(sqlDB, logger).Run(ctx, sqlite.Migrations()); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		db := sqlite.NewDB(sqlDB, logger)
		return &StoreBundle{
			State:   sqlite.NewStateStore(db, logger),
			History: sqlite.NewHistoryRepository(db, logger),
			SqlDB:   sqlDB,
		}, nil

	case BackendJSON:
		files := storage.NewLocalFileStorage(cfg.Storage.DataDir, logger)
		logger.Info("Using JSON document store", zap.String("data_dir", cfg.Storage.DataDir))
		return &StoreBundle{
			State:   storage.NewJSONStateStore(files, logger),
			History: memory.NewHistoryRepository(),
		}, nil

	case BackendMemory:
		logger.Info("Using in-memory store, state is lost on exit")
		return &StoreBundle{
			State:   memory.NewStateStore(),
			History: memory.NewHistoryRepository(),
		}, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(dispatcher.WithLogger(&zapLoggerAdapter{logger: logger.Named("dispatcher")}))
}

// ProvideWorkflowEngine creates the engine and loads the persisted state.
func ProvideWorkflowEngine(ctx context.Context, store port.StateStore, disp dispatcher.Dispatcher, catalog []entity.Product, invoices []*entity.Invoice, logger *zap.Logger) (workflow.Engine, error) {
	engine := workflow.NewEngine(store,
		workflow.WithDispatcher(disp),
		workflow.WithLogger(&zapLoggerAdapter{logger: logger.Named("engine")}),
		workflow.WithSeedCatalog(catalog),
		workflow.WithSeedInvoices(invoices),
	)
	if err := engine.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return engine, nil
}

// ProvideInsightProvider returns nil when no API key is configured.
func ProvideInsightProvider(cfg *InsightConfig, logger *zap.Logger) (port.InsightProvider, error) {
	if cfg.APIKey == "" {
		logger.Info("Insight provider disabled, no API key configured")
		return nil, nil
	}

	prompts := openai.DefaultPrompts()
	if cfg.PromptsPath != "" {
		loaded, err := openai.LoadPrompts(cfg.PromptsPath)
		if err != nil {
			return nil, err
		}
		prompts = loaded
	}

	logger.Info("Insight provider enabled", zap.String("model", cfg.Model))
	return openai.NewAdvisor(cfg.APIKey, cfg.BaseURL, cfg.Model, prompts, logger.Named("insight")), nil
}

// ProvideServices creates the collaborators and subscribes the history
// service to invoice events.
func ProvideServices(engine workflow.Engine, history port.HistoryRepository, provider port.InsightProvider, disp dispatcher.Dispatcher, logger *zap.Logger) *ServiceBundle {
	adapter := &zapLoggerAdapter{logger: logger.Named("service")}

	historySvc := service.NewHistoryService(history, adapter)
	historySvc.Register(disp)

	return &ServiceBundle{
		History:  historySvc,
		Reports:  service.NewReportService(engine),
		Insights: service.NewInsightService(engine, provider, adapter),
	}
}

// ProvideSyncTarget builds the configured target. SyncNone yields NopTarget.
func ProvideSyncTarget(ctx context.Context, cfg *SyncConfig, logger *zap.Logger) (port.SyncTarget, error) {
	switch cfg.Target {
	case SyncNone, "":
		return worker.NopTarget{}, nil
	case SyncWorkbook:
		return workbook.NewTarget(cfg.Workbook.Path, cfg.Workbook.Sheet, logger.Named("workbook")), nil
	case SyncSheets:
		return sheets.NewTarget(ctx, cfg.Sheets, logger.Named("sheets"))
	case SyncLark:
		return lark.NewTarget(cfg.Lark, logger.Named("lark"))
	}
	return nil, fmt.Errorf("unknown sync target %q", cfg.Target)
}

// ProvideWorkers creates the worker manager with the sync worker
// registered on the dispatcher. Workers are not started.
func ProvideWorkers(cfg *SyncConfig, engine workflow.Engine, target port.SyncTarget, disp dispatcher.Dispatcher, logger *zap.Logger) (*worker.WorkerManager, *worker.SyncWorker) {
	syncWorker := worker.NewSyncWorker(cfg.Worker, engine, target, logger.Named("sync"))
	syncWorker.Register(disp)

	manager := worker.NewWorkerManager(logger)
	manager.Register(syncWorker)
	return manager, syncWorker
}
