package entity

// MaxLineQuantity caps the units on a single invoice line
const MaxLineQuantity = 100000

// Role identifies who is acting on an invoice
type Role string

const (
	RoleCEO      Role = "CEO"
	RoleSales    Role = "SALES"
	RoleAccounts Role = "ACCOUNTS"
	RoleStock    Role = "STOCK"
)

// CanApprove reports whether the role takes part in dual approval
func (r Role) CanApprove() bool {
	return r == RoleAccounts || r == RoleStock
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleCEO, RoleSales, RoleAccounts, RoleStock:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// SyncStatus tracks the best-effort push of a finalized invoice to the external sheet
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "PENDING"
	SyncStatusSynced  SyncStatus = "SYNCED"
	SyncStatusFailed  SyncStatus = "FAILED"
)

// IsValid reports whether s is a known sync status
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusPending, SyncStatusSynced, SyncStatusFailed:
		return true
	}
	return false
}

// EntryType classifies a ledger entry
type EntryType string

const (
	EntryTypeRevenue EntryType = "REVENUE"
	EntryTypeRoyalty EntryType = "ROYALTY"
	EntryTypeExpense EntryType = "EXPENSE"
)
