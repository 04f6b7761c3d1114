package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event published after an engine mutation commits
type Event struct {
	ID             string                 `json:"id"`
	Type           Type                   `json:"type"`
	InvoiceID      string                 `json:"invoice_id"`
	Actor          string                 `json:"actor"`
	Role           string                 `json:"role,omitempty"`
	PreviousStatus string                 `json:"previous_status,omitempty"`
	NewStatus      string                 `json:"new_status,omitempty"`
	Payload        map[string]interface{} `json:"payload"`
	Timestamp      time.Time              `json:"timestamp"`
	CorrelationID  string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with generated ID and timestamp
func NewEvent(eventType Type, invoiceID string, payload map[string]interface{}) *Event {
	id := uuid.NewString()
	return &Event{
		ID:            id,
		Type:          eventType,
		InvoiceID:     invoiceID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: id,
	}
}

// NewTransition creates an event describing a status change made by actor
func NewTransition(eventType Type, invoiceID, actor, role, previous, next string) *Event {
	evt := NewEvent(eventType, invoiceID, nil)
	evt.Actor = actor
	evt.Role = role
	evt.PreviousStatus = previous
	evt.NewStatus = next
	return evt
}

// WithCorrelation returns a copy linked to an existing correlation chain
func (e *Event) WithCorrelation(correlationID string) *Event {
	cp := e.WithPayload()
	cp.CorrelationID = correlationID
	return cp
}

// WithPayload returns a copy with the given key/value pairs added to the payload
func (e *Event) WithPayload(keysAndValues ...interface{}) *Event {
	payload := make(map[string]interface{}, len(e.Payload)+len(keysAndValues)/2)
	for k, v := range e.Payload {
		payload[k] = v
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			payload[key] = keysAndValues[i+1]
		}
	}

	cp := *e
	cp.Payload = payload
	return &cp
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
