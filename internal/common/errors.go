// Package common defines shared sentinel errors and typed domain errors used
// across the storage, service and transport layers. Callers should match them
// with errors.Is (sentinels) or errors.As (typed errors carrying a payload).
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound        = errors.New("not found")
	ErrorUniqueViolation = errors.New("unique constraint violation")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorValidation   = errors.New("validation error")
	ErrDuplicateEmail = errors.New("duplicate email")

	// Access errors, produced by the access policy and principal resolution only.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
)

// UserNotFoundError reports that no user matched the given identifier
// (an id, or an email during principal resolution).
type UserNotFoundError struct {
	ID string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user %s not found", e.ID)
}

func (e *UserNotFoundError) Is(target error) bool {
	return target == ErrorNotFound
}

// DuplicateEmailError reports that a create or update would give a second
// user the same email. It is always derived from the store's conflict signal.
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("email %s is already registered", e.Email)
}

func (e *DuplicateEmailError) Is(target error) bool {
	return target == ErrDuplicateEmail
}

// ValidationError reports malformed input that reached a service despite
// upstream checks.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}
