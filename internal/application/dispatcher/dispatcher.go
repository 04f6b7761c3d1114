package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/luminate-erp/internal/domain/event"
)

// ErrClosed is returned when dispatching on a closed dispatcher
var ErrClosed = errors.New("dispatcher is closed")

// Handler reacts to an event the engine has already persisted
type Handler func(ctx context.Context, evt *event.Event) error

type subscription struct {
	Name      string
	EventType event.Type
	Handler   Handler
}

// Dispatcher fans engine events out to subscribers
type Dispatcher interface {
	// Subscribe registers a handler under an auto-generated name
	Subscribe(eventType event.Type, handler Handler)

	// SubscribeNamed registers a handler with a name used in logs
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	// Dispatch runs handlers in registration order and stops at the first error
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync runs every handler on its own goroutine.
	// Handlers are detached from the caller's cancellation.
	DispatchAsync(ctx context.Context, evt *event.Event)

	// Handlers lists handler names for an event type
	Handlers(eventType event.Type) []string

	// Close rejects new events and waits for async handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]subscription
	logger   Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]subscription),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.register(eventType, fmt.Sprintf("%s#%d", eventType, len(d.handlers[eventType])), handler)
}

func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.register(eventType, name, handler)
}

// register must be called with mu held
func (d *eventDispatcher) register(eventType event.Type, name string, handler Handler) {
	d.handlers[eventType] = append(d.handlers[eventType], subscription{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	})
	d.info("Handler registered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) snapshot(eventType event.Type) []subscription {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]subscription(nil), d.handlers[eventType]...)
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return ErrClosed
	}

	for _, h := range d.snapshot(evt.Type) {
		if err := d.safeExecute(ctx, evt, h); err != nil {
			d.error("Handler failed",
				"event_type", evt.Type,
				"invoice_id", evt.InvoiceID,
				"handler_name", h.Name,
				"error", err,
			)
			return fmt.Errorf("handler %s: %w", h.Name, err)
		}
	}
	return nil
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	if d.closed.Load() {
		d.error("Dropping event, dispatcher is closed", "event_type", evt.Type, "invoice_id", evt.InvoiceID)
		return
	}

	ctx = context.WithoutCancel(ctx)
	for _, h := range d.snapshot(evt.Type) {
		d.wg.Add(1)
		go func(h subscription) {
			defer d.wg.Done()
			if err := d.safeExecute(ctx, evt, h); err != nil {
				d.error("Async handler failed",
					"event_type", evt.Type,
					"invoice_id", evt.InvoiceID,
					"handler_name", h.Name,
					"error", err,
				)
			}
		}(h)
	}
}

func (d *eventDispatcher) Handlers(eventType event.Type) []string {
	infos := d.snapshot(eventType)
	names := make([]string, len(infos))
	for i, h := range infos {
		names[i] = h.Name
	}
	return names
}

func (d *eventDispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	d.wg.Wait()
	d.info("Dispatcher closed")
	return nil
}

func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, h subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handler(ctx, evt)
}

func (d *eventDispatcher) info(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, kv...)
	}
}

func (d *eventDispatcher) error(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, kv...)
	}
}
