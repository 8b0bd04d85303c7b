// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is / errors.As to match them.
package common

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Validation errors.
	ErrValidation = errors.New("validation error")

	// Account errors.
	ErrEmailTaken      = errors.New("email already in use")
	ErrAccountDisabled = errors.New("account disabled")
	ErrAccountLocked   = errors.New("account locked")
	ErrWrongPassword   = errors.New("current password is incorrect")
	ErrSamePassword    = errors.New("new password must differ from the current one")
)

// LockoutError reports a login refused because of too many failed attempts.
// It matches ErrAccountLocked with errors.Is.
type LockoutError struct {
	LockedUntil      time.Time
	MinutesRemaining int
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("account locked for %d more minute(s)", e.MinutesRemaining)
}

func (e *LockoutError) Is(target error) bool {
	return target == ErrAccountLocked
}

// AttemptsError reports invalid credentials together with the number of
// attempts left before lockout. It matches ErrorUnauthorized with errors.Is.
type AttemptsError struct {
	Remaining int
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("invalid credentials, %d attempt(s) remaining", e.Remaining)
}

func (e *AttemptsError) Is(target error) bool {
	return target == ErrorUnauthorized
}

// ValidationError describes which input was rejected. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
