package workflow

import "context"

// Transition is the status change produced by one trigger
type Transition struct {
	From    State
	To      State
	Trigger Trigger
}

// Finalizes reports whether the transition closed the dual approval
func (t Transition) Finalizes() bool {
	return t.To == StateFinalized && t.From != StateFinalized
}

// StateMachine walks one invoice through its lifecycle
type StateMachine interface {
	// State returns the invoice status the machine is positioned at
	State() State

	// Allows reports whether any route is wired for the trigger. Guards are not evaluated.
	Allows(trigger Trigger) bool

	// Fire moves the machine along the first route whose guard passes
	Fire(ctx context.Context, trigger Trigger) (Transition, error)

	// Available lists the triggers wired from the current status, sorted by name
	Available() []Trigger
}
