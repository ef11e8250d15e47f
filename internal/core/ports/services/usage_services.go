package services

import (
	"context"

	"github.com/SscSPs/usage_billing_app/internal/core/domain"
)

// UsageSvc performs paid operations. A result is returned only after its charge succeeded.
// An empty idempotencyKey selects the plain conditional deduction. A key already settled for the
// same input returns the stored result without calling a provider; for a different input it
// returns apperrors.ErrIdempotencyMismatch.
type UsageSvc interface {
	Translate(ctx context.Context, accountID string, idempotencyKey string, in domain.TranslateInput) (*domain.TranslateOutput, error)
	Transcribe(ctx context.Context, accountID string, idempotencyKey string, in domain.TranscribeInput) (*domain.Transcript, error)
	Synthesize(ctx context.Context, accountID string, idempotencyKey string, in domain.SpeechInput) (*domain.SpeechOutput, error)
}
