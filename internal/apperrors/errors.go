package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInternal is returned when an unexpected internal failure should not leak details to callers.
var ErrInternal = errors.New("internal error")

// ErrInsufficientBalance indicates a billing decline: the account does not exist or cannot cover the charge.
// It is a user-facing condition, never retried automatically.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrCancelled indicates that the caller disconnected or a server-enforced deadline fired.
var ErrCancelled = errors.New("operation cancelled")

// ErrProviderExhausted indicates that every provider in a chain failed.
var ErrProviderExhausted = errors.New("all providers failed")

// ErrStorageUnavailable marks an infrastructure fault in the backing store. Callers must retry later.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrDuplicateEvent marks an inbound event that was already processed. It reports a success whose
// effects were applied earlier; callers acknowledge it rather than fail.
var ErrDuplicateEvent = errors.New("event already processed")

// ErrIdempotencyMismatch indicates that an idempotency key was reused for a different request.
var ErrIdempotencyMismatch = errors.New("idempotency key reused with a different request")

// ErrInvalidTransition is returned when a job cannot move to the requested status.
var ErrInvalidTransition = errors.New("invalid status transition")

// AppError carries an HTTP-like status code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Storage wraps a store failure so that it matches ErrStorageUnavailable while keeping the cause.
func Storage(message string, err error) error {
	if err == nil {
		return nil
	}
	return NewAppError(503, message, fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
}

// IsBillingDeclined reports whether err is a user-facing billing decline.
func IsBillingDeclined(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// IsRetryable reports whether the operation failed for a reason that may clear up on its own.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrProviderExhausted)
}
