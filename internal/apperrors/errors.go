package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates that a requested invoice or product does not exist.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrInsufficientStock indicates that a stock approval failed its availability check.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrInvoiceTerminal indicates an attempt to move an invoice that is already FINALIZED or REJECTED.
var ErrInvoiceTerminal = errors.New("invoice is in a terminal state")

// ErrPersistence indicates that the durable store rejected a state flush.
var ErrPersistence = errors.New("persistence failure")

// NotFound builds an ErrNotFound naming the missing resource.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned before any state is touched when a command is malformed.
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Add appends another field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Shortage identifies a product that cannot cover the requested quantity.
type Shortage struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// InsufficientStockError is recoverable: the caller may retry once stock is replenished.
type InsufficientStockError struct {
	InvoiceID string     `json:"invoice_id"`
	Shortages []Shortage `json:"shortages"`
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", s.ProductID, s.Requested, s.Available))
	}
	return fmt.Sprintf("insufficient stock for invoice %s: %s", e.InvoiceID, strings.Join(parts, ", "))
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
