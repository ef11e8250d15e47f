package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/usage_billing_app/internal/apperrors"
	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	"github.com/SscSPs/usage_billing_app/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/usage_billing_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/usage_billing_app/internal/core/ports/services"
	"github.com/SscSPs/usage_billing_app/internal/platform/metrics"
	"github.com/google/uuid"
)

const (
	defaultEntriesLimit = 50
	maxEntriesLimit     = 200
)

// ledgerService implements the LedgerSvcFacade interface
type ledgerService struct {
	BaseService
	repo      portsrepo.LedgerRepositoryFacade
	analytics gateways.AnalyticsTracker
}

// LedgerServiceOption is a functional option for configuring the ledger service
type LedgerServiceOption func(*ledgerService)

// WithLedgerAnalytics reports grants and charges to an analytics tracker.
func WithLedgerAnalytics(tracker gateways.AnalyticsTracker) LedgerServiceOption {
	return func(s *ledgerService) {
		s.analytics = tracker
	}
}

// WithLedgerClock overrides the time source used for entry timestamps.
func WithLedgerClock(now func() time.Time) LedgerServiceOption {
	return func(s *ledgerService) {
		s.Now = now
	}
}

// NewLedgerService creates a new ledger service with the provided options
func NewLedgerService(repo portsrepo.LedgerRepositoryFacade, options ...LedgerServiceOption) portssvc.LedgerSvcFacade {
	svc := &ledgerService{repo: repo}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure ledgerService implements the LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func (s *ledgerService) GetBalance(ctx context.Context, accountID string) (int64, error) {
	acc, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to read balance", slog.String("account_id", accountID))
		}
		return 0, err
	}
	return acc.Balance, nil
}

func (s *ledgerService) ListEntries(ctx context.Context, accountID string, limit int, offset int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = defaultEntriesLimit
	}
	if limit > maxEntriesLimit {
		limit = maxEntriesLimit
	}
	if offset < 0 {
		offset = 0
	}
	entries, err := s.repo.ListEntries(ctx, accountID, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list ledger entries", slog.String("account_id", accountID))
		return nil, err
	}
	return entries, nil
}

// Reconcile compares the live balance with the sum of the ledger.
func (s *ledgerService) Reconcile(ctx context.Context, accountID string) (*domain.Reconciliation, error) {
	acc, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	sum, count, err := s.repo.SumDeltas(ctx, accountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum ledger", slog.String("account_id", accountID))
		return nil, err
	}
	rec := &domain.Reconciliation{
		AccountID:  accountID,
		Balance:    acc.Balance,
		LedgerSum:  sum,
		EntryCount: count,
		Consistent: acc.Balance == sum,
	}
	if !rec.Consistent {
		s.LogWarn(ctx, "Ledger does not match balance",
			slog.String("account_id", accountID),
			slog.Int64("balance", acc.Balance),
			slog.Int64("ledger_sum", sum))
	}
	return rec, nil
}

func (s *ledgerService) FindCharge(ctx context.Context, key domain.ChargeKey) (*domain.ChargeRecord, error) {
	rec, err := s.repo.FindChargeRecord(ctx, key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to read charge record", slog.String("key", key.String()))
		}
		return nil, err
	}
	return rec, nil
}

// Charge settles a deduction. See LedgerWriterSvc.Charge for the result contract.
func (s *ledgerService) Charge(ctx context.Context, req domain.ChargeRequest) (bool, error) {
	if req.Amount <= 0 {
		metrics.ChargesTotal.WithLabelValues(string(req.Reason), string(domain.ChargeSkipped)).Inc()
		return true, nil
	}
	if req.AccountID == "" {
		return false, fmt.Errorf("%w: account ID is required", apperrors.ErrValidation)
	}
	if !req.Reason.IsCharge() {
		return false, fmt.Errorf("%w: %q is not a charge reason", apperrors.ErrValidation, req.Reason)
	}

	logger := s.GetLogger(ctx).With(
		slog.String("account_id", req.AccountID),
		slog.String("reason", string(req.Reason)),
		slog.Int64("amount", req.Amount),
	)

	now := s.now()
	entry := domain.LedgerEntry{
		EntryID:   uuid.NewString(),
		AccountID: req.AccountID,
		Delta:     -req.Amount,
		Reason:    req.Reason,
		Metadata:  req.Metadata,
		CreatedAt: now,
	}

	var outcome domain.ChargeOutcome
	var err error
	if req.IdempotencyKey == "" {
		outcome, err = s.repo.Debit(ctx, entry)
	} else {
		logger = logger.With(slog.String("idempotency_key", req.IdempotencyKey))
		entry.Metadata = req.Metadata.Clone()
		entry.Metadata["idempotency_key"] = req.IdempotencyKey
		outcome, err = s.chargeIdempotent(ctx, req, entry, now)
	}
	if err != nil {
		metrics.ChargesTotal.WithLabelValues(string(req.Reason), "error").Inc()
		if errors.Is(err, apperrors.ErrIdempotencyMismatch) {
			logger.Warn("Idempotency key reused for a different request")
			return false, err
		}
		if !errors.Is(err, apperrors.ErrStorageUnavailable) && !errors.Is(err, apperrors.ErrValidation) {
			err = apperrors.Storage("charge failed", err)
		}
		logger.Error("Charge failed", slog.String("error", err.Error()))
		return false, err
	}

	metrics.ChargesTotal.WithLabelValues(string(req.Reason), string(outcome)).Inc()
	switch outcome {
	case domain.ChargeDeclined:
		logger.Info("Charge declined: insufficient balance")
		return false, fmt.Errorf("%w: account cannot cover %d credits", apperrors.ErrInsufficientBalance, req.Amount)
	case domain.ChargeAlreadySettled:
		logger.Info("Charge already settled, skipping")
		return true, nil
	}

	metrics.CreditsCharged.WithLabelValues(string(req.Reason)).Add(float64(req.Amount))
	logger.Info("Charge applied")
	s.track(req.AccountID, "credits_charged", map[string]any{
		"reason":  string(req.Reason),
		"credits": req.Amount,
	})
	return true, nil
}

func (s *ledgerService) chargeIdempotent(ctx context.Context, req domain.ChargeRequest, entry domain.LedgerEntry, now time.Time) (domain.ChargeOutcome, error) {
	existing, err := s.repo.FindChargeRecord(ctx, req.Key())
	if err == nil {
		return s.settled(existing, req)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return "", err
	}

	record := domain.ChargeRecord{
		ChargeKey:   req.Key(),
		Spend:       req.Amount,
		Metadata:    entry.Metadata,
		RequestHash: req.RequestHash,
		Response:    req.Response,
		CreatedAt:   now,
	}
	outcome, err := s.repo.DebitIdempotent(ctx, record, entry)
	if err != nil || outcome != domain.ChargeAlreadySettled {
		return outcome, err
	}
	// Lost the insert race: the winner's record decides whether this request may reuse the key.
	existing, err = s.repo.FindChargeRecord(ctx, req.Key())
	if err != nil {
		return "", err
	}
	return s.settled(existing, req)
}

func (s *ledgerService) settled(existing *domain.ChargeRecord, req domain.ChargeRequest) (domain.ChargeOutcome, error) {
	if !existing.Matches(req.RequestHash) {
		return "", fmt.Errorf("%w: key %q", apperrors.ErrIdempotencyMismatch, req.IdempotencyKey)
	}
	return domain.ChargeAlreadySettled, nil
}

// Grant credits an account. Callers deduplicate grants, e.g. through the event guard.
func (s *ledgerService) Grant(ctx context.Context, accountID string, amount int64, reason domain.LedgerReason, metadata domain.Metadata) (*domain.Account, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account ID is required", apperrors.ErrValidation)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: grant amount must be positive", apperrors.ErrValidation)
	}
	if !reason.IsGrant() {
		return nil, fmt.Errorf("%w: %q is not a grant reason", apperrors.ErrValidation, reason)
	}

	entry := domain.LedgerEntry{
		EntryID:   uuid.NewString(),
		AccountID: accountID,
		Delta:     amount,
		Reason:    reason,
		Metadata:  metadata,
		CreatedAt: s.now(),
	}
	acc, err := s.repo.Grant(ctx, entry)
	if err != nil {
		s.LogError(ctx, err, "Failed to grant credits", slog.String("account_id", accountID), slog.Int64("amount", amount))
		return nil, err
	}

	metrics.CreditsGranted.WithLabelValues(string(reason)).Add(float64(amount))
	s.LogInfo(ctx, "Credits granted",
		slog.String("account_id", accountID),
		slog.Int64("amount", amount),
		slog.String("reason", string(reason)),
		slog.Int64("balance", acc.Balance))
	s.track(accountID, "credits_granted", map[string]any{"reason": string(reason), "credits": amount})
	return acc, nil
}

// ResetBalance sets an account to newBalance, recording the difference in the ledger.
func (s *ledgerService) ResetBalance(ctx context.Context, accountID string, newBalance int64, metadata domain.Metadata) (*domain.LedgerEntry, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account ID is required", apperrors.ErrValidation)
	}
	if newBalance < 0 {
		return nil, fmt.Errorf("%w: balance cannot be negative", apperrors.ErrValidation)
	}

	entry := domain.LedgerEntry{
		EntryID:   uuid.NewString(),
		AccountID: accountID,
		Reason:    domain.ReasonAdminReset,
		Metadata:  metadata,
		CreatedAt: s.now(),
	}
	saved, err := s.repo.Reset(ctx, entry, newBalance)
	if err != nil {
		s.LogError(ctx, err, "Failed to reset balance", slog.String("account_id", accountID))
		return nil, err
	}
	s.LogInfo(ctx, "Balance reset",
		slog.String("account_id", accountID),
		slog.Int64("new_balance", newBalance),
		slog.Int64("delta", saved.Delta))
	return saved, nil
}

func (s *ledgerService) track(accountID, event string, props map[string]any) {
	if s.analytics == nil {
		return
	}
	s.analytics.Enqueue(accountID, event, props)
}
