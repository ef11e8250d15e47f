package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/SscSPs/usage_billing_app/internal/apperrors"
)

// Class is the fallback policy's verdict on a provider failure.
type Class int

const (
	ClassFatal Class = iota
	ClassRetryable
	ClassCancelled
)

func (c Class) String() string {
	switch c {
	case ClassRetryable:
		return "retryable"
	case ClassCancelled:
		return "cancelled"
	default:
		return "fatal"
	}
}

// ErrEmptyChain is the cause reported when Execute is called without providers.
var ErrEmptyChain = errors.New("provider chain is empty")

// ProviderError is a non-success answer from an upstream provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	// GeoBlocked marks a provider refusing service from the caller's region.
	GeoBlocked bool
}

func (e *ProviderError) Error() string {
	if e.GeoBlocked {
		return fmt.Sprintf("provider %s unavailable in region (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s returned status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// NewProviderError builds a ProviderError from an HTTP status and body, detecting regional blocks.
func NewProviderError(provider string, statusCode int, message string) *ProviderError {
	geo := statusCode == http.StatusUnavailableForLegalReasons ||
		(statusCode == http.StatusForbidden && strings.Contains(strings.ToLower(message), "unsupported_country"))
	return &ProviderError{Provider: provider, StatusCode: statusCode, Message: message, GeoBlocked: geo}
}

// FatalError stops the chain: the remaining providers would fail the same way.
type FatalError struct {
	Provider string
	Err      error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("provider %s failed permanently: %v", e.Provider, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// ExhaustedError reports that every provider in the chain failed with a retryable error.
type ExhaustedError struct {
	Attempts []Attempt
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%v after %d attempt(s): %v", apperrors.ErrProviderExhausted, len(e.Attempts), e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Is lets errors.Is(err, apperrors.ErrProviderExhausted) match.
func (e *ExhaustedError) Is(target error) bool {
	return target == apperrors.ErrProviderExhausted
}

var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:     true,
	http.StatusConflict:           true,
	http.StatusTooEarly:           true,
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// Classify decides how the chain reacts to err. parent is the shared request context: once it is
// done every failure is a cancellation, while a deadline on a single attempt is retryable.
func Classify(parent context.Context, err error) Class {
	if parent.Err() != nil || errors.Is(err, apperrors.ErrCancelled) {
		return ClassCancelled
	}
	if errors.Is(err, context.Canceled) {
		return ClassCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassRetryable
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.GeoBlocked || retryableStatus[pe.StatusCode] {
			return ClassRetryable
		}
		return ClassFatal
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return ClassRetryable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassRetryable
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassRetryable
	}
	return ClassFatal
}

func cancelled(cause error) error {
	if errors.Is(cause, apperrors.ErrCancelled) {
		return cause
	}
	return fmt.Errorf("%w: %w", apperrors.ErrCancelled, cause)
}
