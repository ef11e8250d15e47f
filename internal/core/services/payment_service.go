package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/usage_billing_app/internal/apperrors"
	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	portssvc "github.com/SscSPs/usage_billing_app/internal/core/ports/services"
)

type paymentService struct {
	BaseService
	guard  portssvc.EventGuardSvc
	ledger portssvc.LedgerWriterSvc
}

// NewPaymentService creates the service that turns payment confirmations into credit grants.
func NewPaymentService(guard portssvc.EventGuardSvc, ledger portssvc.LedgerWriterSvc) portssvc.PaymentSvc {
	return &paymentService{guard: guard, ledger: ledger}
}

var _ portssvc.PaymentSvc = (*paymentService)(nil)

// HandleConfirmation grants the purchased pack once per payment event. Events in any status
// other than paid are acknowledged without a grant.
func (s *paymentService) HandleConfirmation(ctx context.Context, event domain.PaymentEvent) error {
	if event.AccountID == "" {
		return fmt.Errorf("%w: account ID is required", apperrors.ErrValidation)
	}
	if event.Status == domain.PaymentStatusPaid && event.Credits <= 0 {
		return fmt.Errorf("%w: paid event must carry a positive credit amount", apperrors.ErrValidation)
	}

	return s.guard.Process(ctx, event.EventID, domain.EventTypePaymentConfirmed, func(ctx context.Context) error {
		if event.Status != domain.PaymentStatusPaid {
			s.LogInfo(ctx, "Ignoring payment event that is not paid",
				slog.String("event_id", event.EventID),
				slog.String("status", event.Status))
			return nil
		}
		_, err := s.ledger.Grant(ctx, event.AccountID, event.Credits, domain.ReasonGrantPack, domain.Metadata{
			"event_id": event.EventID,
			"pack_id":  event.PackID,
		})
		return err
	})
}
