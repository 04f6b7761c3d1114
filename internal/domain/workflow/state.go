package workflow

// State represents an invoice status in the approval lifecycle
type State string

const (
	StateDraft            State = "DRAFT"
	StatePendingApproval  State = "PENDING_APPROVAL"
	StateApprovedAccounts State = "APPROVED_ACCOUNTS"
	StateApprovedStock    State = "APPROVED_STOCK"
	StateFinalized        State = "FINALIZED"
	StateRejected         State = "REJECTED"
)

var validStates = map[State]bool{
	StateDraft:            true,
	StatePendingApproval:  true,
	StateApprovedAccounts: true,
	StateApprovedStock:    true,
	StateFinalized:        true,
	StateRejected:         true,
}

var terminalStates = map[State]bool{
	StateFinalized: true,
	StateRejected:  true,
}

// NonTerminalStates lists every state an invoice can still leave, in lifecycle order
func NonTerminalStates() []State {
	return []State{StateDraft, StatePendingApproval, StateApprovedAccounts, StateApprovedStock}
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}
