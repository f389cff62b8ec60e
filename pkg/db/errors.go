package db

import (
	"errors"
	"fmt"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

// The boundary error taxonomy. Callers branch on these with errors.As /
// errors.Is rather than string matching:
//
//   - ValidationError: blocking rule violations; the operation was refused
//     before anything was persisted. Carries the full violation list.
//   - NotFoundError: the entity vanished between read and write (concurrent
//     delete by another operator). The caller's view is known stale.
//   - TransportError: timeout or connectivity failure. The true outcome of
//     a commit is unknown; callers must reload rather than guess.

// ValidationError is returned when severity=error violations refuse a commit
type ValidationError struct {
	Violations []model.RuleViolation
	Warnings   []model.RuleViolation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("placement refused: %d rule violation(s)", len(e.Violations))
}

// AsValidation extracts a ValidationError when err carries one
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}

// NotFoundError is returned when the target entity no longer exists
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// IsNotFound reports whether err is a concurrent-modification NotFound
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// TransportError is returned on timeout or connectivity failure. Retryable;
// it never implies the operation either succeeded or failed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a transport failure
func IsTransport(err error) bool {
	var terr *TransportError
	return errors.As(err, &terr)
}
