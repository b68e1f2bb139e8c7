// Package apperr defines the error taxonomy shared by the console's
// components. Callers match with errors.Is / errors.As; the HTTP layer maps
// each kind to a status code.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthRequired means no operator could be resolved from the session.
	ErrAuthRequired = errors.New("an authenticated user is required")
	// ErrAlreadyClosed means the (local, work date, cycle) slot was closed earlier.
	ErrAlreadyClosed = errors.New("this shift was already closed for today")
	// ErrNoOpenShift means an operation needs an active shift and there is none.
	ErrNoOpenShift = errors.New("no open shift")
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAuthSync means the sync server rejected the bearer token (401/403).
	ErrAuthSync = errors.New("sync rejected: re-authentication required")
)

// ValidationError is a structural or field-level problem with an event
// payload. It is raised before anything is written.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a *ValidationError.
func Validation(msg string) error { return &ValidationError{Msg: msg} }

// BusinessRuleError is a valid payload that breaks an operational rule,
// such as two consecutive check-ins.
type BusinessRuleError struct {
	Msg string
}

func (e *BusinessRuleError) Error() string { return e.Msg }

// BusinessRule builds a *BusinessRuleError.
func BusinessRule(msg string) error { return &BusinessRuleError{Msg: msg} }

// StorageError wraps a local persistence failure. The triggering action must
// be treated as not recorded.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a *StorageError unless it is nil or already one.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// SyncError is a transient delivery failure. StatusCode is 0 for transport
// errors (no response).
type SyncError struct {
	StatusCode int
	Err        error
}

func (e *SyncError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("sync: %v", e.Err)
	}
	return fmt.Sprintf("sync: server returned %d: %v", e.StatusCode, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// IsOperatorError reports whether err is a locally recoverable rejection
// the operator should see and fix (validation or business rule).
func IsOperatorError(err error) bool {
	var ve *ValidationError
	var be *BusinessRuleError
	return errors.As(err, &ve) || errors.As(err, &be)
}
