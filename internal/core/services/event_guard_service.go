package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/usage_billing_app/internal/apperrors"
	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/usage_billing_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/usage_billing_app/internal/core/ports/services"
	"github.com/SscSPs/usage_billing_app/internal/platform/metrics"
)

type eventGuardService struct {
	BaseService
	repo portsrepo.EventRepository
}

// NewEventGuardService creates the processed-event gate.
func NewEventGuardService(repo portsrepo.EventRepository) portssvc.EventGuardSvc {
	return &eventGuardService{repo: repo}
}

var _ portssvc.EventGuardSvc = (*eventGuardService)(nil)

func (s *eventGuardService) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	return s.repo.ExistsProcessedEvent(ctx, eventID)
}

func (s *eventGuardService) MarkProcessed(ctx context.Context, eventID string, eventType string) error {
	return s.repo.SaveProcessedEvent(ctx, domain.ProcessedEvent{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: s.now(),
	})
}

// Process checks, handles, then marks. Marking happens only after handle's own writes committed,
// so a crash in between leads to redelivery, which handle must tolerate. A repeat returns
// ErrDuplicateEvent, which callers acknowledge as success.
func (s *eventGuardService) Process(ctx context.Context, eventID string, eventType string, handle func(ctx context.Context) error) error {
	if eventID == "" {
		return fmt.Errorf("%w: event ID is required", apperrors.ErrValidation)
	}
	logger := s.GetLogger(ctx).With(slog.String("event_id", eventID), slog.String("event_type", eventType))

	processed, err := s.IsProcessed(ctx, eventID)
	if err != nil {
		metrics.EventsProcessed.WithLabelValues(eventType, "error").Inc()
		logger.Error("Failed to check processed event", slog.String("error", err.Error()))
		return err
	}
	if processed {
		metrics.EventsProcessed.WithLabelValues(eventType, "duplicate").Inc()
		logger.Info("Event already processed, skipping")
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicateEvent, eventID)
	}

	if err := handle(ctx); err != nil {
		metrics.EventsProcessed.WithLabelValues(eventType, "error").Inc()
		logger.Warn("Event handling failed, leaving unmarked for redelivery", slog.String("error", err.Error()))
		return err
	}

	if err := s.MarkProcessed(ctx, eventID, eventType); err != nil {
		metrics.EventsProcessed.WithLabelValues(eventType, "error").Inc()
		logger.Error("Event handled but marker not saved", slog.String("error", err.Error()))
		return err
	}

	metrics.EventsProcessed.WithLabelValues(eventType, "processed").Inc()
	logger.Info("Event processed")
	return nil
}
