package services

import (
	"context"

	"github.com/SscSPs/usage_billing_app/internal/core/domain"
)

// EventGuardSvc gates side effects of inbound events so each event is finalized once.
type EventGuardSvc interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string, eventType string) error

	// Process runs handle unless eventID was already processed, and marks the event only after
	// handle returned nil.
	//
	// An already processed event skips handle and returns apperrors.ErrDuplicateEvent. That error is
	// a success outcome, not a failure: the event's effects are already in place. Callers that only
	// care whether the effects exist test it with errors.Is and treat it as nil; the callback handlers
	// acknowledge it with 200. It is neither retryable nor a billing decline.
	Process(ctx context.Context, eventID string, eventType string, handle func(ctx context.Context) error) error
}

// PaymentSvc applies payment processor confirmations.
type PaymentSvc interface {
	HandleConfirmation(ctx context.Context, event domain.PaymentEvent) error
}
