package services

import (
	"context"

	"github.com/SscSPs/usage_billing_app/internal/core/domain"
)

// LedgerReaderSvc defines read operations on balances and the ledger.
type LedgerReaderSvc interface {
	// GetBalance returns apperrors.ErrNotFound for unknown accounts.
	GetBalance(ctx context.Context, accountID string) (int64, error)
	ListEntries(ctx context.Context, accountID string, limit int, offset int) ([]domain.LedgerEntry, error)
	Reconcile(ctx context.Context, accountID string) (*domain.Reconciliation, error)

	// FindCharge returns the record settled under key, or apperrors.ErrNotFound.
	FindCharge(ctx context.Context, key domain.ChargeKey) (*domain.ChargeRecord, error)
}

// LedgerWriterSvc defines balance mutations.
type LedgerWriterSvc interface {
	// Charge settles a deduction. It returns true when the charge is paid (including a zero amount
	// and a key that was already settled). A decline returns false with apperrors.ErrInsufficientBalance;
	// a store fault returns false with apperrors.ErrStorageUnavailable. A key already settled for a
	// request with a different RequestHash returns false with apperrors.ErrIdempotencyMismatch.
	Charge(ctx context.Context, req domain.ChargeRequest) (bool, error)

	Grant(ctx context.Context, accountID string, amount int64, reason domain.LedgerReason, metadata domain.Metadata) (*domain.Account, error)
	ResetBalance(ctx context.Context, accountID string, newBalance int64, metadata domain.Metadata) (*domain.LedgerEntry, error)
}

// LedgerSvcFacade combines all ledger service interfaces.
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}
