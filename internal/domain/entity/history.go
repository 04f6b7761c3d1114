package entity

import "time"

// TransitionRecord is one row of the invoice audit trail
type TransitionRecord struct {
	ID             string    `json:"id"`
	InvoiceID      string    `json:"invoice_id"`
	Actor          string    `json:"actor"`
	Role           Role      `json:"role,omitempty"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Action         string    `json:"action"`
	Detail         string    `json:"detail,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
