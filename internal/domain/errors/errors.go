package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrInsufficientCredit = errors.New("insufficient credit")
	ErrValidation         = errors.New("validation failed")
	ErrLockTimeout        = errors.New("account lock timeout")
)

// InsufficientCreditError reports a debit that would drive balance below zero.
type InsufficientCreditError struct {
	AccountID int64
	Requested int64
	Available int64
}

func (e *InsufficientCreditError) Error() string {
	return fmt.Sprintf("Cannot remove %d cents of credit from user %d; they only have %d available.",
		e.Requested, e.AccountID, e.Available)
}

func (e *InsufficientCreditError) Is(target error) bool {
	return target == ErrInsufficientCredit
}

// ValidationError describes malformed input rejected before any lock is taken.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConcurrencyTimeoutError is returned when an account lock was not acquired in time.
type ConcurrencyTimeoutError struct {
	AccountID int64
	Wait      time.Duration
	Err       error
}

func (e *ConcurrencyTimeoutError) Error() string {
	return fmt.Sprintf("could not lock credit account %d within %s", e.AccountID, e.Wait)
}

func (e *ConcurrencyTimeoutError) Unwrap() error {
	return e.Err
}

func (e *ConcurrencyTimeoutError) Is(target error) bool {
	return target == ErrLockTimeout
}

// Retryable reports that the operation may succeed if repeated.
func (e *ConcurrencyTimeoutError) Retryable() bool {
	return true
}

// IsRetryable reports whether err is a transient failure the caller may retry.
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}
