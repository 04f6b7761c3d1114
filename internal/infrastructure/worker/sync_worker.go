package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/luminate-erp/internal/application/dispatcher"
	"github.com/garyjia/luminate-erp/internal/application/port"
	"github.com/garyjia/luminate-erp/internal/domain/entity"
	"github.com/garyjia/luminate-erp/internal/domain/event"
	domainwf "github.com/garyjia/luminate-erp/internal/domain/workflow"
)

// SyncEngine is the part of the workflow engine the sync worker uses
type SyncEngine interface {
	GetInvoice(ctx context.Context, id string) (*entity.Invoice, error)
	ListInvoices(ctx context.Context) []*entity.Invoice
	RecordSyncResult(ctx context.Context, invoiceID string, status entity.SyncStatus) error
}

// SyncWorkerConfig holds configuration for the sync worker
type SyncWorkerConfig struct {
	QueueSize    int
	PushTimeout  time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
}

// DefaultSyncWorkerConfig returns default configuration
func DefaultSyncWorkerConfig() SyncWorkerConfig {
	return SyncWorkerConfig{
		QueueSize:    64,
		PushTimeout:  10 * time.Second,
		MaxAttempts:  3,
		RetryBackoff: 500 * time.Millisecond,
	}
}

// SyncWorker pushes finalized invoices to the configured target and
// records SYNCED or FAILED on the invoice
type SyncWorker struct {
	config SyncWorkerConfig
	engine SyncEngine
	target port.SyncTarget
	logger *zap.Logger
	queue  chan string

	mu          sync.RWMutex
	cancel      context.CancelFunc
	isRunning   bool
	wg          sync.WaitGroup
	syncedCount int
	failedCount int
}

// NewSyncWorker creates a sync worker. A nil target behaves like NopTarget.
func NewSyncWorker(config SyncWorkerConfig, engine SyncEngine, target port.SyncTarget, logger *zap.Logger) *SyncWorker {
	defaults := DefaultSyncWorkerConfig()
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.PushTimeout <= 0 {
		config.PushTimeout = defaults.PushTimeout
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.RetryBackoff < 0 {
		config.RetryBackoff = 0
	}
	if target == nil {
		target = NopTarget{}
	}

	return &SyncWorker{
		config: config,
		engine: engine,
		target: target,
		logger: logger,
		queue:  make(chan string, config.QueueSize),
	}
}

// Name returns the worker name for identification
func (w *SyncWorker) Name() string {
	return "SyncWorker"
}

// Register subscribes the worker to finalized invoices
func (w *SyncWorker) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeInvoiceFinalized, "sync:"+w.target.Name(), w.HandleFinalized)
}

// HandleFinalized queues the invoice of a finalized event
func (w *SyncWorker) HandleFinalized(ctx context.Context, evt *event.Event) error {
	if evt.InvoiceID == "" {
		return nil
	}
	w.Enqueue(ctx, evt.InvoiceID)
	return nil
}

// Enqueue adds an invoice without blocking. When the queue is full the
// invoice is marked FAILED right away.
func (w *SyncWorker) Enqueue(ctx context.Context, invoiceID string) {
	select {
	case w.queue <- invoiceID:
	default:
		w.logger.Warn("Sync queue full, marking invoice as failed",
			zap.String("invoice_id", invoiceID),
			zap.Int("queue_size", w.config.QueueSize))
		w.record(ctx, invoiceID, entity.SyncStatusFailed)
	}
}

// Start launches the push loop and re-queues invoices left PENDING by a
// previous run
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("sync worker already running")
	}

	var loopCtx context.Context
	loopCtx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.loop(loopCtx)

	resumed := 0
	for _, inv := range w.engine.ListInvoices(ctx) {
		if isAwaitingSync(inv) {
			w.Enqueue(ctx, inv.ID)
			resumed++
		}
	}

	w.logger.Info("SyncWorker started",
		zap.String("target", w.target.Name()),
		zap.Int("queue_size", w.config.QueueSize),
		zap.Int("resumed", resumed))
	return nil
}

// Stop cancels the loop and waits for the in-flight push to finish.
// Queued invoices stay PENDING and are resumed on the next Start.
func (w *SyncWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel := w.cancel
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()

	w.mu.RLock()
	w.logger.Info("SyncWorker stopped",
		zap.Int("synced_count", w.syncedCount),
		zap.Int("failed_count", w.failedCount))
	w.mu.RUnlock()
	return nil
}

// Stats returns how many invoices were synced and failed
func (w *SyncWorker) Stats() (synced, failed int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.syncedCount, w.failedCount
}

func (w *SyncWorker) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case id := <-w.queue:
			w.process(ctx, id)
		}
	}
}

// process pushes one invoice with bounded retries
func (w *SyncWorker) process(ctx context.Context, invoiceID string) {
	inv, err := w.engine.GetInvoice(ctx, invoiceID)
	if err != nil {
		w.logger.Error("Failed to load invoice for sync", zap.String("invoice_id", invoiceID), zap.Error(err))
		return
	}
	if !isAwaitingSync(inv) {
		return
	}

	record := RecordFromInvoice(inv)
	status := entity.SyncStatusFailed

	for attempt := 1; attempt <= w.config.MaxAttempts; attempt++ {
		pushCtx, cancel := context.WithTimeout(ctx, w.config.PushTimeout)
		err = w.target.Push(pushCtx, record)
		cancel()
		if err == nil {
			status = entity.SyncStatusSynced
			break
		}

		w.logger.Warn("Sync push failed",
			zap.String("invoice_id", invoiceID),
			zap.String("target", w.target.Name()),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt == w.config.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.config.RetryBackoff * time.Duration(attempt)):
		}
	}

	w.record(context.WithoutCancel(ctx), invoiceID, status)
}

func (w *SyncWorker) record(ctx context.Context, invoiceID string, status entity.SyncStatus) {
	if err := w.engine.RecordSyncResult(ctx, invoiceID, status); err != nil {
		w.logger.Error("Failed to record sync result",
			zap.String("invoice_id", invoiceID),
			zap.String("status", string(status)),
			zap.Error(err))
		return
	}

	w.mu.Lock()
	if status == entity.SyncStatusSynced {
		w.syncedCount++
	} else {
		w.failedCount++
	}
	w.mu.Unlock()
}

func isAwaitingSync(inv *entity.Invoice) bool {
	return inv.Status == domainwf.StateFinalized &&
		(inv.SyncStatus == nil || *inv.SyncStatus == entity.SyncStatusPending)
}

// RecordFromInvoice builds the external row for a finalized invoice
func RecordFromInvoice(inv *entity.Invoice) port.SyncRecord {
	return port.SyncRecord{
		InvoiceID:   inv.ID,
		SchoolName:  inv.SchoolName,
		Quantity:    inv.TotalQuantity(),
		Amount:      inv.TotalAmount,
		Royalty:     inv.RoyaltyFee,
		NetRevenue:  inv.NetRevenue,
		FinalizedAt: inv.UpdatedAt,
	}
}

// NopTarget accepts every record. It backs the "none" sync target.
type NopTarget struct{}

func (NopTarget) Name() string { return "none" }

func (NopTarget) Push(ctx context.Context, record port.SyncRecord) error { return nil }

var (
	_ Worker          = (*SyncWorker)(nil)
	_ port.SyncTarget = NopTarget{}
)
