package engine

import "errors"

var (
	ErrMapNotFound        = errors.New("map not found")
	ErrInvalidMap         = errors.New("invalid map")
	ErrNoAgent            = errors.New("map has no agent start")
	ErrNoTarget           = errors.New("map has no target cell")
	ErrBoxTargetMismatch  = errors.New("box count does not match target count")
	ErrInvalidProblem     = errors.New("invalid problem")
	ErrStateSpaceTooLarge = errors.New("state space too large")

	// ErrInvariantViolation means a transition produced a state the builder never
	// admitted. It is fatal to the current invocation.
	ErrInvariantViolation = errors.New("state table invariant violated")
	ErrIllegalAction      = errors.New("illegal action")
	ErrUnknownState       = errors.New("state is not in the state table")
)
