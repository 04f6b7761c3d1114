package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/garyjia/luminate-erp/internal/application/dispatcher"
	"github.com/garyjia/luminate-erp/internal/application/port"
	"github.com/garyjia/luminate-erp/internal/apperrors"
	"github.com/garyjia/luminate-erp/internal/domain/entity"
	"github.com/garyjia/luminate-erp/internal/domain/event"
	domainwf "github.com/garyjia/luminate-erp/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// state is everything the engine persists in one SaveAll
type state struct {
	catalog  *entity.Catalog
	invoices *entity.InvoiceBook
	ledger   *entity.Ledger
	seq      invoiceSequence
}

func newState() *state {
	return &state{
		catalog:  entity.NewCatalog(nil),
		invoices: entity.NewInvoiceBook(nil),
		ledger:   entity.NewLedger(nil),
		seq:      make(invoiceSequence),
	}
}

func (s *state) clone() *state {
	return &state{
		catalog:  s.catalog.Clone(),
		invoices: s.invoices.Clone(),
		ledger:   s.ledger.Clone(),
		seq:      s.seq.clone(),
	}
}

// engineImpl is the concrete implementation of Engine
type engineImpl struct {
	store      port.StateStore
	dispatcher dispatcher.Dispatcher
	logger     Logger
	seed       []entity.Product
	seedBook   []*entity.Invoice
	now        func() time.Time

	mu    sync.RWMutex
	state *state
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithLogger sets the engine logger
func WithLogger(l Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = l
	}
}

// WithSeedCatalog sets the products installed when the store has none
func WithSeedCatalog(products []entity.Product) EngineOption {
	return func(e *engineImpl) {
		e.seed = products
	}
}

// WithSeedInvoices sets the invoices installed alongside the seed catalog
// on first run, when the store has neither products nor invoices
func WithSeedInvoices(invoices []*entity.Invoice) EngineOption {
	return func(e *engineImpl) {
		e.seedBook = invoices
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new workflow engine with empty state. Call Load
// before serving requests.
func NewEngine(store port.StateStore, opts ...EngineOption) Engine {
	e := &engineImpl{
		store:  store,
		logger: nopLogger{},
		now:    time.Now,
		state:  newState(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *engineImpl) Load(ctx context.Context) error {
	products, err := e.store.LoadProducts(ctx)
	if err != nil {
		return fmt.Errorf("load products: %w: %w", apperrors.ErrPersistence, err)
	}
	invoices, err := e.store.LoadInvoices(ctx)
	if err != nil {
		return fmt.Errorf("load invoices: %w: %w", apperrors.ErrPersistence, err)
	}
	ledger, err := e.store.LoadLedger(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w: %w", apperrors.ErrPersistence, err)
	}

	firstRun := len(products) == 0 && len(invoices) == 0
	if firstRun && len(e.seed) > 0 && len(e.seedBook) > 0 {
		invoices = e.seedBook
	}

	for _, inv := range invoices {
		if !inv.Status.IsValid() {
			return fmt.Errorf("load invoices: %w: invoice %s has unknown status %q",
				apperrors.ErrPersistence, inv.ID, inv.Status)
		}
	}

	loaded := &state{
		catalog:  entity.NewCatalog(products),
		invoices: entity.NewInvoiceBook(invoices),
		ledger:   entity.NewLedger(ledger),
		seq:      newInvoiceSequence(invoices),
	}

	changed := false
	var events []*event.Event

	if loaded.catalog.Len() == 0 && len(e.seed) > 0 {
		for _, p := range e.seed {
			loaded.catalog.Add(p)
		}
		changed = true
		e.logger.Info("Seeded catalog", "products", len(e.seed), "invoices", loaded.invoices.Len())
	}

	// Rebuild postings only; stock was already deducted when these were finalized
	if loaded.ledger.Len() == 0 && loaded.invoices.Len() > 0 {
		replayed := 0
		for _, inv := range loaded.invoices.List() {
			if inv.Status != domainwf.StateFinalized {
				continue
			}
			if len(loaded.ledger.PostInvoice(inv)) > 0 {
				replayed++
			}
		}
		if replayed > 0 {
			changed = true
			events = append(events, event.NewEvent(event.TypeLedgerRebuilt, "", map[string]interface{}{
				"invoices": replayed,
			}))
			e.logger.Info("Rebuilt ledger from finalized invoices", "invoices", replayed)
		}
	}

	for _, inv := range loaded.invoices.List() {
		if err := inv.CheckTotals(); err != nil {
			e.logger.Error("Loaded invoice has inconsistent totals", "invoice_id", inv.ID, "error", err)
		}
	}

	if err := e.install(ctx, loaded, changed); err != nil {
		return err
	}

	e.logger.Info("Engine state loaded",
		"products", loaded.catalog.Len(),
		"invoices", loaded.invoices.Len(),
		"ledger_entries", loaded.ledger.Len(),
	)
	e.publish(ctx, events)
	return nil
}

// install swaps in freshly loaded state, persisting it first when Load changed it
func (e *engineImpl) install(ctx context.Context, loaded *state, persist bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if persist {
		if err := e.flush(ctx, loaded); err != nil {
			return err
		}
	}
	e.state = loaded
	return nil
}

func (e *engineImpl) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*entity.Invoice, error) {
	school := strings.TrimSpace(in.SchoolName)
	verr := &apperrors.ValidationError{}
	if school == "" {
		verr.Add("school_name", "school name is required")
	}
	if len(in.Lines) == 0 {
		verr.Add("items", "at least one line item is required")
	}
	for i, line := range in.Lines {
		if strings.TrimSpace(line.ProductID) == "" {
			verr.Add(fmt.Sprintf("items[%d].product_id", i), "product is required")
		}
		if line.Quantity <= 0 {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "quantity must be positive")
		} else if line.Quantity > entity.MaxLineQuantity {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("quantity must not exceed %d", entity.MaxLineQuantity))
		}
	}
	if verr.HasErrors() {
		return nil, verr
	}

	var created *entity.Invoice
	err := e.mutate(ctx, func(s *state) ([]*event.Event, error) {
		items := make([]entity.InvoiceItem, 0, len(in.Lines))
		for _, line := range in.Lines {
			product, err := s.catalog.Get(strings.TrimSpace(line.ProductID))
			if err != nil {
				return nil, err
			}
			items = append(items, entity.NewInvoiceItem(product, line.Quantity))
		}

		now := e.now()
		inv := entity.NewInvoice("", school, now, items)
		inv.CreatedBy = in.CreatedBy

		stored, err := s.invoices.Create(inv, func() (string, error) {
			return s.seq.next(now.Year())
		})
		if err != nil {
			return nil, err
		}
		created = stored

		evt := event.NewTransition(event.TypeInvoiceCreated, stored.ID, in.CreatedBy, "",
			"", stored.Status.String())
		evt = evt.WithPayload("total_amount", stored.TotalAmount.StringFixed(2))
		return []*event.Event{evt}, nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Invoice created",
		"invoice_id", created.ID,
		"school", created.SchoolName,
		"total", created.TotalAmount.StringFixed(2),
	)
	return created, nil
}

func (e *engineImpl) Approve(ctx context.Context, in ApproveInput) (*entity.Invoice, error) {
	if err := validateActor(in.InvoiceID, in.Role, in.Approver); err != nil {
		return nil, err
	}

	var approved *entity.Invoice
	err := e.mutate(ctx, func(s *state) ([]*event.Event, error) {
		inv, err := s.invoices.Find(in.InvoiceID)
		if err != nil {
			return nil, err
		}
		if inv.Status.IsTerminal() {
			return nil, terminalError(inv)
		}

		if in.Role == entity.RoleStock {
			if shortages := s.catalog.Shortages(inv.Items); len(shortages) > 0 {
				return nil, &apperrors.InsufficientStockError{InvoiceID: inv.ID, Shortages: shortages}
			}
		}

		now := e.now()
		inv.Approvals.Set(in.Role, entity.Approval{
			Approved:  true,
			By:        in.Approver,
			Date:      now,
			Signature: signatureToken(in.Role),
		})

		tr, err := BuildInvoiceStateMachine(inv).Fire(ctx, approvalTrigger(in.Role))
		if err != nil {
			return nil, fmt.Errorf("approve invoice %s: %w", inv.ID, err)
		}
		inv.Status = tr.To
		inv.UpdatedAt = now

		events := []*event.Event{
			event.NewTransition(event.TypeInvoiceApproved, inv.ID, in.Approver, in.Role.String(),
				tr.From.String(), tr.To.String()),
		}

		if tr.Finalizes() {
			if err := s.finalize(inv); err != nil {
				return nil, err
			}
			finalized := event.NewTransition(event.TypeInvoiceFinalized, inv.ID, in.Approver, in.Role.String(),
				tr.From.String(), tr.To.String()).WithCorrelation(events[0].CorrelationID)
			events = append(events, finalized)
		}

		if err := s.replace(inv); err != nil {
			return nil, err
		}
		approved = inv
		return events, nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Invoice approved",
		"invoice_id", approved.ID,
		"role", in.Role,
		"approver", in.Approver,
		"status", approved.Status,
	)
	return approved.Clone(), nil
}

// finalize deducts stock and posts the ledger entries. Availability is
// checked again across all lines so nothing is applied on shortage.
func (s *state) finalize(inv *entity.Invoice) error {
	if shortages := s.catalog.Shortages(inv.Items); len(shortages) > 0 {
		return &apperrors.InsufficientStockError{InvoiceID: inv.ID, Shortages: shortages}
	}
	for _, item := range inv.Items {
		if err := s.catalog.Deduct(item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	s.ledger.PostInvoice(inv)
	inv.SetSyncStatus(entity.SyncStatusPending)
	return nil
}

func (s *state) replace(inv *entity.Invoice) error {
	return s.invoices.Update(inv.ID, func(stored *entity.Invoice) error {
		*stored = *inv.Clone()
		return nil
	})
}

func (e *engineImpl) Reject(ctx context.Context, in RejectInput) (*entity.Invoice, error) {
	if err := validateActor(in.InvoiceID, in.Role, in.Approver); err != nil {
		return nil, err
	}

	var rejected *entity.Invoice
	err := e.mutate(ctx, func(s *state) ([]*event.Event, error) {
		inv, err := s.invoices.Find(in.InvoiceID)
		if err != nil {
			return nil, err
		}
		if inv.Status.IsTerminal() {
			return nil, terminalError(inv)
		}

		tr, err := BuildInvoiceStateMachine(inv).Fire(ctx, domainwf.TriggerReject)
		if err != nil {
			return nil, fmt.Errorf("reject invoice %s: %w", inv.ID, err)
		}
		inv.Status = tr.To
		inv.UpdatedAt = e.now()

		if err := s.replace(inv); err != nil {
			return nil, err
		}
		rejected = inv

		evt := event.NewTransition(event.TypeInvoiceRejected, inv.ID, in.Approver, in.Role.String(),
			tr.From.String(), tr.To.String()).WithPayload("reason", in.Reason)
		return []*event.Event{evt}, nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Invoice rejected",
		"invoice_id", rejected.ID,
		"role", in.Role,
		"approver", in.Approver,
	)
	return rejected.Clone(), nil
}

func (e *engineImpl) RecordSyncResult(ctx context.Context, invoiceID string, status entity.SyncStatus) error {
	if status != entity.SyncStatusSynced && status != entity.SyncStatusFailed {
		return apperrors.NewValidationError("sync_status", "must be SYNCED or FAILED")
	}

	return e.mutate(ctx, func(s *state) ([]*event.Event, error) {
		inv, err := s.invoices.Find(invoiceID)
		if err != nil {
			return nil, err
		}
		if inv.Status != domainwf.StateFinalized {
			return nil, apperrors.NewValidationError("status", "only finalized invoices are synchronized")
		}

		inv.SetSyncStatus(status)
		if err := s.replace(inv); err != nil {
			return nil, err
		}

		evt := event.NewEvent(event.TypeInvoiceSynced, inv.ID, map[string]interface{}{
			"sync_status": string(status),
		})
		evt.Actor = "system"
		evt.PreviousStatus = inv.Status.String()
		evt.NewStatus = inv.Status.String()
		return []*event.Event{evt}, nil
	})
}

func (e *engineImpl) GetInvoice(ctx context.Context, id string) (*entity.Invoice, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.invoices.Find(id)
}

func (e *engineImpl) ListInvoices(ctx context.Context) []*entity.Invoice {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.invoices.List()
}

func (e *engineImpl) ListProducts(ctx context.Context) []entity.Product {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.catalog.List()
}

func (e *engineImpl) ListLedger(ctx context.Context) []entity.LedgerEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.ledger.All()
}

func (e *engineImpl) PendingFor(ctx context.Context, role entity.Role) ([]*entity.Invoice, error) {
	var waitingIn domainwf.State
	switch role {
	case entity.RoleAccounts:
		waitingIn = domainwf.StateApprovedStock
	case entity.RoleStock:
		waitingIn = domainwf.StateApprovedAccounts
	default:
		return nil, apperrors.NewValidationError("role", "approval queues exist for ACCOUNTS and STOCK only")
	}

	out := []*entity.Invoice{}
	for _, inv := range e.ListInvoices(ctx) {
		if inv.Approvals.IsApproved(role) {
			continue
		}
		if inv.Status == domainwf.StatePendingApproval || inv.Status == waitingIn {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (e *engineImpl) Snapshot(ctx context.Context) Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{
		Invoices: e.state.invoices.List(),
		Products: e.state.catalog.List(),
		Ledger:   e.state.ledger.All(),
	}
}

// mutate applies fn to a working copy of the state and swaps it in only
// after the store accepted it. Events are published after the lock is released.
func (e *engineImpl) mutate(ctx context.Context, fn func(s *state) ([]*event.Event, error)) error {
	events, err := e.commit(ctx, fn)
	if err != nil {
		return err
	}
	e.publish(ctx, events)
	return nil
}

// commit holds the write lock for one mutation. The lock is released even
// when fn panics.
func (e *engineImpl) commit(ctx context.Context, fn func(s *state) ([]*event.Event, error)) ([]*event.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.state.clone()
	events, err := fn(work)
	if err != nil {
		return nil, err
	}
	if err := e.flush(ctx, work); err != nil {
		return nil, err
	}
	e.state = work
	return events, nil
}

func (e *engineImpl) flush(ctx context.Context, s *state) error {
	if err := e.store.SaveAll(ctx, s.invoices.List(), s.catalog.List(), s.ledger.All()); err != nil {
		e.logger.Error("State flush failed", "error", err)
		if errors.Is(err, apperrors.ErrPersistence) {
			return err
		}
		return fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}
	return nil
}

func (e *engineImpl) publish(ctx context.Context, events []*event.Event) {
	if e.dispatcher == nil {
		return
	}
	for _, evt := range events {
		e.dispatcher.DispatchAsync(ctx, evt)
	}
}

func validateActor(invoiceID string, role entity.Role, actor string) error {
	verr := &apperrors.ValidationError{}
	if strings.TrimSpace(invoiceID) == "" {
		verr.Add("invoice_id", "invoice id is required")
	}
	if !role.CanApprove() {
		verr.Add("role", fmt.Sprintf("role %q cannot approve or reject invoices", role))
	}
	if strings.TrimSpace(actor) == "" {
		verr.Add("approver", "approver name is required")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func terminalError(inv *entity.Invoice) error {
	return fmt.Errorf("invoice %s is %s: %w: %w", inv.ID, inv.Status, apperrors.ErrInvoiceTerminal, domainwf.ErrInvalidTransition)
}
