package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is a write-once accounting line. Exactly one of Debit/Credit is non-zero.
type LedgerEntry struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	InvoiceID   string          `json:"invoice_id"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Type        EntryType       `json:"type"`
}

// Ledger is an append-only sequence of entries
type Ledger struct {
	entries []LedgerEntry
}

// NewLedger builds a ledger from existing entries
func NewLedger(entries []LedgerEntry) *Ledger {
	return &Ledger{entries: append([]LedgerEntry(nil), entries...)}
}

// Append adds entries at the end
func (l *Ledger) Append(entries ...LedgerEntry) {
	l.entries = append(l.entries, entries...)
}

// All returns a copy of every entry in order
func (l *Ledger) All() []LedgerEntry {
	out := make([]LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries
func (l *Ledger) Len() int {
	return len(l.entries)
}

// HasInvoice reports whether any entry references the invoice
func (l *Ledger) HasInvoice(invoiceID string) bool {
	for _, e := range l.entries {
		if e.InvoiceID == invoiceID {
			return true
		}
	}
	return false
}

// Clone returns an independent copy
func (l *Ledger) Clone() *Ledger {
	return NewLedger(l.entries)
}

// PostingEntries builds the two entries recorded when an invoice is
// finalized: REVENUE credit of net revenue, then ROYALTY credit of the fee.
// IDs are derived from the invoice so replaying a posting is detectable.
func PostingEntries(inv *Invoice) []LedgerEntry {
	return []LedgerEntry{
		{
			ID:          fmt.Sprintf("LED-%s-1", inv.ID),
			Date:        inv.Date,
			InvoiceID:   inv.ID,
			Description: "Invoice Revenue - " + inv.SchoolName,
			Debit:       decimal.Zero,
			Credit:      inv.NetRevenue,
			Type:        EntryTypeRevenue,
		},
		{
			ID:          fmt.Sprintf("LED-%s-2", inv.ID),
			Date:        inv.Date,
			InvoiceID:   inv.ID,
			Description: "Royalty Fee 15% - " + inv.SchoolName,
			Debit:       decimal.Zero,
			Credit:      inv.RoyaltyFee,
			Type:        EntryTypeRoyalty,
		},
	}
}

// PostInvoice appends the finalization entries for inv unless the invoice
// is already posted. It returns the entries it appended.
func (l *Ledger) PostInvoice(inv *Invoice) []LedgerEntry {
	if l.HasInvoice(inv.ID) {
		return nil
	}
	entries := PostingEntries(inv)
	l.Append(entries...)
	return entries
}
