package workshop

import "errors"

// Sentinel errors for workshop mutations. A mutator that returns one of these
// leaves the state untouched.
var (
	ErrInvalidPhase     = errors.New("invalid phase")
	ErrTerminalPhase    = errors.New("already at the final phase")
	ErrFirstPhase       = errors.New("already at the first phase")
	ErrInvalidReference = errors.New("invalid reference")
	ErrInvalidBucket    = errors.New("invalid bucket")
	ErrInvalidProvider  = errors.New("invalid provider")
	ErrInvalidDuration  = errors.New("duration must be positive")
)

// errNoChange tells mutate that the operation was a valid no-op.
var errNoChange = errors.New("no change")
