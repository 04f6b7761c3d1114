package workflow

// Trigger is a command that moves an invoice between statuses
type Trigger string

const (
	TriggerSubmit          Trigger = "SUBMIT"
	TriggerApproveAccounts Trigger = "APPROVE_ACCOUNTS"
	TriggerApproveStock    Trigger = "APPROVE_STOCK"
	TriggerReject          Trigger = "REJECT"
)

// IsApproval reports whether the trigger records a role sign-off
func (t Trigger) IsApproval() bool {
	return t == TriggerApproveAccounts || t == TriggerApproveStock
}

func (t Trigger) String() string {
	return string(t)
}
