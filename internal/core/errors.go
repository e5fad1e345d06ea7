package core

import (
	"errors"
	"fmt"
)

// Every error below is fatal to the current run.
var (
	ErrMalformedRecord      = errors.New("malformed record")
	ErrMissingField         = errors.New("missing field")
	ErrDateFormat           = errors.New("date format error")
	ErrInvariantViolation   = errors.New("invariant violation")
	ErrNoticeLengthExceeded = errors.New("notice length exceeded")
	ErrExternalIO           = errors.New("external I/O failure")
)

// MissingFieldError reports a required ledger column that is absent or blank.
type MissingFieldError struct {
	Column string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %s", e.Column)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// NoticeLengthExceededError reports a merged settlement notice over budget.
type NoticeLengthExceededError struct {
	Length int
	Limit  int
	Notice string
}

func (e *NoticeLengthExceededError) Error() string {
	return fmt.Sprintf("notice length %d exceeds limit %d: %q", e.Length, e.Limit, e.Notice)
}

func (e *NoticeLengthExceededError) Unwrap() error { return ErrNoticeLengthExceeded }

// ExternalIO marks err as a collaborator failure (database, network, file system).
func ExternalIO(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrExternalIO, err)
}
