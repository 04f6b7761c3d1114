package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition means the trigger is not wired from the invoice's current status
	ErrInvalidTransition = errors.New("invalid invoice transition")

	// ErrTerminalState means the invoice is FINALIZED or REJECTED and accepts no trigger
	ErrTerminalState = fmt.Errorf("%w: invoice is closed", ErrInvalidTransition)

	// ErrGuardFailed means every guarded route for the trigger was refused
	ErrGuardFailed = errors.New("transition guard refused")
)
