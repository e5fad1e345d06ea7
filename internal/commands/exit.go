package commands

import (
	"errors"

	"bankrecon/internal/core"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitInput     = 3
	ExitInvariant = 4
	ExitBudget    = 5
	ExitIO        = 6
)

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, core.ErrInvariantViolation):
		return ExitInvariant
	case errors.Is(err, core.ErrNoticeLengthExceeded):
		return ExitBudget
	case errors.Is(err, core.ErrMalformedRecord),
		errors.Is(err, core.ErrMissingField),
		errors.Is(err, core.ErrDateFormat):
		return ExitInput
	case errors.Is(err, core.ErrExternalIO):
		return ExitIO
	default:
		return ExitFailure
	}
}
