// Package gateways declares the outbound collaborators the core depends on.
package gateways

import (
	"context"
	"time"

	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Provider is an upstream service identified by name. The name tags results for pricing.
type Provider interface {
	Name() string
}

// Translator translates text.
type Translator interface {
	Provider
	Translate(ctx context.Context, in domain.TranslateInput) (*domain.TranslateOutput, error)
}

// Transcriber transcribes one audio segment.
type Transcriber interface {
	Provider
	Transcribe(ctx context.Context, language string, segment domain.AudioSegment) (*domain.TranscriptSegment, error)
}

// Synthesizer turns text into audio.
type Synthesizer interface {
	Provider
	Synthesize(ctx context.Context, in domain.SpeechInput) (*domain.SpeechOutput, error)
}

// Relay runs long transcriptions out of band and reports back through a callback.
type Relay interface {
	Submit(ctx context.Context, req domain.RelayRequest) error
}

// ObjectStorage holds large uploads. Presigned URL issuance itself is delegated.
type ObjectStorage interface {
	UploadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Pricer converts provider usage into a cost in credits. The result may be fractional.
type Pricer interface {
	Cost(usage domain.Usage) (decimal.Decimal, error)
}

// AnalyticsTracker receives product analytics events.
type AnalyticsTracker interface {
	Enqueue(distinctID string, event string, properties map[string]any)
}
