package event

// Type identifies the type of domain event
type Type string

const (
	TypeInvoiceCreated   Type = "invoice.created"
	TypeInvoiceApproved  Type = "invoice.approved"
	TypeInvoiceFinalized Type = "invoice.finalized"
	TypeInvoiceRejected  Type = "invoice.rejected"
	TypeInvoiceSynced    Type = "invoice.synced"
	TypeLedgerRebuilt    Type = "ledger.rebuilt"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeInvoiceCreated,
		TypeInvoiceApproved,
		TypeInvoiceFinalized,
		TypeInvoiceRejected,
		TypeInvoiceSynced,
		TypeLedgerRebuilt:
		return true
	default:
		return false
	}
}
