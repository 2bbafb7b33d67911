package application

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique constraint rejects a new record.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when authentication input cannot be matched to an account.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when the matched account is disabled.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrAccountLocked is returned when repeated failures locked the account.
	ErrAccountLocked = errors.New("application: account locked")
	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token has been revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// AuthorizationError reports that the principal may not perform the operation
// on the named entity. It unwraps to ErrUnauthorized.
type AuthorizationError struct {
	Entity    string
	Operation string
}

// Error implements the error interface.
func (e *AuthorizationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("not authorized to %s %s", e.Operation, e.Entity)
}

// Unwrap exposes the unauthorized sentinel for errors.Is checks.
func (e *AuthorizationError) Unwrap() error {
	return ErrUnauthorized
}

// NotFoundError reports a missing record by entity and ID. It unwraps to
// ErrNotFound.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Unwrap exposes the not-found sentinel for errors.Is checks.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// StateError reports an operation attempted from a lifecycle state that does
// not permit it.
type StateError struct {
	Entity    string
	State     string
	Operation string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s in state %s does not permit %s", e.Entity, e.State, e.Operation)
}

// TimingError reports an operation attempted outside its permitted time
// window.
type TimingError struct {
	Rule     string
	Instant  time.Time
	Deadline time.Time
}

// Error implements the error interface.
func (e *TimingError) Error() string {
	if e == nil {
		return ""
	}
	return e.Rule
}

// ConflictError reports that a requested interval collides with existing
// reservations or maintenance windows, or that a concurrent edit won.
type ConflictError struct {
	Reservations []ReservationConflict
	Maintenance  []MaintenanceConflict
	StaleVersion bool
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	if e.StaleVersion {
		return "record was modified concurrently"
	}
	return fmt.Sprintf("requested interval conflicts with %d reservation(s) and %d maintenance window(s)",
		len(e.Reservations), len(e.Maintenance))
}
