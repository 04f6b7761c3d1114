package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/garyjia/luminate-erp/internal/application/dispatcher"
	"github.com/garyjia/luminate-erp/internal/application/port"
	"github.com/garyjia/luminate-erp/internal/domain/entity"
	"github.com/garyjia/luminate-erp/internal/domain/event"
)

var historyActions = map[event.Type]string{
	event.TypeInvoiceCreated:   "CREATE",
	event.TypeInvoiceApproved:  "APPROVE",
	event.TypeInvoiceFinalized: "FINALIZE",
	event.TypeInvoiceRejected:  "REJECT",
	event.TypeInvoiceSynced:    "SYNC",
}

// HistoryService keeps the invoice audit trail
type HistoryService interface {
	// Register subscribes the service to every invoice event
	Register(d dispatcher.Dispatcher)

	// Record stores one event as a transition record
	Record(ctx context.Context, evt *event.Event) error

	// ForInvoice lists the trail of one invoice, oldest first
	ForInvoice(ctx context.Context, invoiceID string) ([]*entity.TransitionRecord, error)
}

type historyServiceImpl struct {
	repo   port.HistoryRepository
	logger Logger
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(repo port.HistoryRepository, logger Logger) HistoryService {
	return &historyServiceImpl{repo: repo, logger: logger}
}

func (s *historyServiceImpl) Register(d dispatcher.Dispatcher) {
	for eventType := range historyActions {
		d.SubscribeNamed(eventType, "history:"+eventType.String(), s.Record)
	}
}

func (s *historyServiceImpl) Record(ctx context.Context, evt *event.Event) error {
	action, ok := historyActions[evt.Type]
	if !ok || evt.InvoiceID == "" {
		return nil
	}

	detail := evt.GetPayloadString("reason")
	if evt.Type == event.TypeInvoiceSynced {
		detail = evt.GetPayloadString("sync_status")
	}

	record := &entity.TransitionRecord{
		ID:             uuid.NewString(),
		InvoiceID:      evt.InvoiceID,
		Actor:          evt.Actor,
		Role:           entity.Role(evt.Role),
		PreviousStatus: evt.PreviousStatus,
		NewStatus:      evt.NewStatus,
		Action:         action,
		Detail:         detail,
		Timestamp:      evt.Timestamp,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error("Failed to record history", "error", err, "invoice_id", evt.InvoiceID, "action", action)
		return fmt.Errorf("create history: %w", err)
	}
	return nil
}

func (s *historyServiceImpl) ForInvoice(ctx context.Context, invoiceID string) ([]*entity.TransitionRecord, error) {
	records, err := s.repo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		s.logger.Error("Failed to list history", "error", err, "invoice_id", invoiceID)
		return nil, fmt.Errorf("list history: %w", err)
	}
	return records, nil
}
