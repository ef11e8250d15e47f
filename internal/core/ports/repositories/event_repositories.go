package repositories

import (
	"context"

	"github.com/SscSPs/usage_billing_app/internal/core/domain"
)

// EventRepository persists processed-event markers.
type EventRepository interface {
	// ExistsProcessedEvent reports whether eventID was already finalized.
	ExistsProcessedEvent(ctx context.Context, eventID string) (bool, error)

	// SaveProcessedEvent records the event. Saving an existing eventID is a no-op.
	SaveProcessedEvent(ctx context.Context, event domain.ProcessedEvent) error
}
