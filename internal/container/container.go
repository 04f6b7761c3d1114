package container

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/luminate-erp/internal/application/dispatcher"
	"github.com/garyjia/luminate-erp/internal/application/port"
	"github.com/garyjia/luminate-erp/internal/application/workflow"
	"github.com/garyjia/luminate-erp/internal/infrastructure/worker"
	httpapi "github.com/garyjia/luminate-erp/internal/interfaces/http"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	sqlDB   *sql.DB
	store   port.StateStore
	history port.HistoryRepository

	// Application
	dispatcher dispatcher.Dispatcher
	engine     workflow.Engine
	services   *ServiceBundle

	// Sync side channel
	syncTarget port.SyncTarget
	syncWorker *worker.SyncWorker
	workers    *worker.WorkerManager

	// Interfaces
	server *httpapi.Server

	// Lifecycle
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components and begins processing.
// Components are initialized in dependency order:
// 1. State store and history repository
// 2. Event dispatcher
// 3. Workflow engine (loads persisted state)
// 4. Application services
// 5. Sync target and workers
// 6. HTTP server (built, not listening)
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	// Step 1: Initialize storage
	stores, err := ProvideStateStore(c.ctx, c.config, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.sqlDB = stores.SqlDB
	c.store = stores.State
	c.history = stores.History
	c.logger.Info("Storage initialized", zap.String("backend", c.config.Storage.Backend))

	// Step 2: Initialize dispatcher
	c.dispatcher = ProvideDispatcher(c.logger)

	// Step 3: Initialize workflow engine
	c.engine, err = ProvideWorkflowEngine(c.ctx, c.store, c.dispatcher, c.config.Catalog, c.config.SeedInvoices, c.logger)
	if err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize workflow engine: %w", err)
	}
	c.logger.Info("Workflow engine initialized")

	// Step 4: Initialize application services
	provider, err := ProvideInsightProvider(&c.config.Insight, c.logger)
	if err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize insight provider: %w", err)
	}
	c.services = ProvideServices(c.engine, c.history, provider, c.dispatcher, c.logger)
	c.logger.Info("Application services initialized")

	// Step 5: Initialize and start workers
	c.syncTarget, err = ProvideSyncTarget(c.ctx, &c.config.Sync, c.logger)
	if err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize sync target: %w", err)
	}
	c.workers, c.syncWorker = ProvideWorkers(&c.config.Sync, c.engine, c.syncTarget, c.dispatcher, c.logger)
	if err := c.workers.StartAll(c.ctx); err != nil {
		c.teardown()
		return fmt.Errorf("failed to start workers: %w", err)
	}
	c.logger.Info("Workers initialized and started", zap.String("sync_target", c.syncTarget.Name()))

	// Step 6: Build HTTP server
	c.server = httpapi.NewServer(c.config.Server, httpapi.Services{
		Engine:   c.engine,
		Reports:  c.services.Reports,
		History:  c.services.History,
		Insights: c.services.Insights,
	}, &zapLoggerAdapter{logger: c.logger.Named("http")})

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	errs := c.teardown()

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// teardown releases whatever Start managed to build. Callers hold c.mu.
func (c *Container) teardown() []error {
	var errs []error

	// Cancel context to signal all goroutines
	if c.cancel != nil {
		c.cancel()
	}

	// Step 1: Stop HTTP server
	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop http server: %w", err))
		}
		c.server = nil
	}

	// Step 2: Stop workers
	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		} else {
			c.logger.Info("Workers stopped")
		}
		c.workers = nil
	}

	// Step 3: Close dispatcher, waiting for in-flight handlers
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
		c.dispatcher = nil
	}

	// Step 4: Close database
	if c.sqlDB != nil {
		if err := c.sqlDB.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
		c.sqlDB = nil
	}

	return errs
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	set := func(name string, healthy bool, msg string) {
		status.Components[name] = ComponentHealth{Healthy: healthy, Message: msg}
		if !healthy {
			status.Overall = false
		}
	}

	// Check storage
	switch {
	case c.store == nil:
		set("storage", false, "not initialized")
	case c.sqlDB != nil:
		if err := c.sqlDB.Ping(); err != nil {
			set("storage", false, fmt.Sprintf("ping failed: %v", err))
		} else {
			set("storage", true, c.config.Storage.Backend)
		}
	default:
		set("storage", true, c.config.Storage.Backend)
	}

	// Check engine
	if c.engine != nil {
		set("engine", true, "")
	} else {
		set("engine", false, "not initialized")
	}

	// Check workers
	if c.workers != nil {
		synced, failed := c.syncWorker.Stats()
		set("workers", c.workers.IsRunning(),
			fmt.Sprintf("target: %s, synced: %d, failed: %d", c.syncTarget.Name(), synced, failed))
	} else {
		set("workers", false, "not initialized")
	}

	return status
}

// Engine returns the workflow engine.
func (c *Container) Engine() workflow.Engine {
	return c.engine
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.WorkerManager {
	return c.workers
}

// Server returns the HTTP server. It is nil before Start.
func (c *Container) Server() *httpapi.Server {
	return c.server
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// zapLoggerAdapter adapts zap.Logger to the key/value Logger interfaces
// of the application packages.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
