package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/luminate-erp/internal/domain/workflow"
)

// RoyaltyRate is the fixed share of every invoice total owed as royalty
var RoyaltyRate = decimal.NewFromFloat(0.15)

// InvoiceItem is a point-in-time snapshot of a catalog line
type InvoiceItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// NewInvoiceItem snapshots the product's name and price
func NewInvoiceItem(p Product, qty int) InvoiceItem {
	return InvoiceItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    qty,
		UnitPrice:   p.Price,
		Total:       p.Price.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// Approval is one role's sign-off. The signature is an opaque token, not
// cryptographic evidence.
type Approval struct {
	Approved  bool      `json:"approved"`
	By        string    `json:"by"`
	Date      time.Time `json:"date"`
	Signature string    `json:"signature"`
}

// Approvals holds at most one approval per approving role. A nil entry
// means the role has not approved yet.
type Approvals struct {
	Accounts *Approval `json:"accounts,omitempty"`
	Stock    *Approval `json:"stock,omitempty"`
}

// ForRole returns the approval recorded for role, or nil
func (a Approvals) ForRole(role Role) *Approval {
	switch role {
	case RoleAccounts:
		return a.Accounts
	case RoleStock:
		return a.Stock
	}
	return nil
}

// Set records an approval for role, replacing any previous one
func (a *Approvals) Set(role Role, approval Approval) {
	switch role {
	case RoleAccounts:
		a.Accounts = &approval
	case RoleStock:
		a.Stock = &approval
	}
}

// IsApproved reports whether role has a recorded approval
func (a Approvals) IsApproved(role Role) bool {
	ap := a.ForRole(role)
	return ap != nil && ap.Approved
}

// Both reports whether accounts and stock have both approved
func (a Approvals) Both() bool {
	return a.IsApproved(RoleAccounts) && a.IsApproved(RoleStock)
}

func (a Approvals) clone() Approvals {
	var out Approvals
	if a.Accounts != nil {
		ap := *a.Accounts
		out.Accounts = &ap
	}
	if a.Stock != nil {
		ap := *a.Stock
		out.Stock = &ap
	}
	return out
}

// Invoice is a sales invoice moving through dual approval. Money fields are
// fixed at creation and never recomputed.
type Invoice struct {
	ID          string          `json:"id"`
	SchoolName  string          `json:"school_name"`
	Date        time.Time       `json:"date"`
	Items       []InvoiceItem   `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	RoyaltyFee  decimal.Decimal `json:"royalty_fee"`
	NetRevenue  decimal.Decimal `json:"net_revenue"`
	Status      workflow.State  `json:"status"`
	Approvals   Approvals       `json:"approvals"`
	SyncStatus  *SyncStatus     `json:"sync_status,omitempty"`
	CreatedBy   string          `json:"created_by,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ComputeTotals returns total, royalty (rounded to cents) and net revenue
func ComputeTotals(items []InvoiceItem) (total, royalty, net decimal.Decimal) {
	total = decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total)
	}
	royalty = total.Mul(RoyaltyRate).Round(2)
	net = total.Sub(royalty)
	return total, royalty, net
}

// NewInvoice builds an invoice from priced items with its totals fixed
func NewInvoice(id, schoolName string, date time.Time, items []InvoiceItem) *Invoice {
	total, royalty, net := ComputeTotals(items)
	return &Invoice{
		ID:          id,
		SchoolName:  schoolName,
		Date:        date,
		Items:       items,
		TotalAmount: total,
		RoyaltyFee:  royalty,
		NetRevenue:  net,
		Status:      workflow.StatePendingApproval,
		UpdatedAt:   date,
	}
}

// TotalQuantity sums the quantities of all items
func (inv *Invoice) TotalQuantity() int {
	n := 0
	for _, item := range inv.Items {
		n += item.Quantity
	}
	return n
}

// CheckTotals verifies the money invariants of the invoice
func (inv *Invoice) CheckTotals() error {
	sum := decimal.Zero
	for _, item := range inv.Items {
		sum = sum.Add(item.Total)
	}
	if !sum.Equal(inv.TotalAmount) {
		return fmt.Errorf("invoice %s: total %s != sum of items %s", inv.ID, inv.TotalAmount, sum)
	}
	if royalty := inv.TotalAmount.Mul(RoyaltyRate).Round(2); !royalty.Equal(inv.RoyaltyFee) {
		return fmt.Errorf("invoice %s: royalty %s != %s", inv.ID, inv.RoyaltyFee, royalty)
	}
	if net := inv.TotalAmount.Sub(inv.RoyaltyFee); !net.Equal(inv.NetRevenue) {
		return fmt.Errorf("invoice %s: net revenue %s != %s", inv.ID, inv.NetRevenue, net)
	}
	return nil
}

// SetSyncStatus records the synchronization outcome
func (inv *Invoice) SetSyncStatus(s SyncStatus) {
	inv.SyncStatus = &s
}

// Clone returns a deep copy
func (inv *Invoice) Clone() *Invoice {
	out := *inv
	out.Items = append([]InvoiceItem(nil), inv.Items...)
	out.Approvals = inv.Approvals.clone()
	if inv.SyncStatus != nil {
		s := *inv.SyncStatus
		out.SyncStatus = &s
	}
	return &out
}
