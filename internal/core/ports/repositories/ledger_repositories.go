package repositories

import (
	"context"

	"github.com/SscSPs/usage_billing_app/internal/core/domain"
)

// LedgerReader defines read operations over balances, ledger entries and charge records.
type LedgerReader interface {
	// FindAccountByID returns apperrors.ErrNotFound when the account has never been granted credits.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// ListEntries returns ledger entries newest first.
	ListEntries(ctx context.Context, accountID string, limit int, offset int) ([]domain.LedgerEntry, error)

	// SumDeltas returns the sum of all deltas and the number of entries for an account.
	SumDeltas(ctx context.Context, accountID string) (sum int64, count int64, err error)

	// FindChargeRecord returns apperrors.ErrNotFound when the key was never settled.
	FindChargeRecord(ctx context.Context, key domain.ChargeKey) (*domain.ChargeRecord, error)
}

// LedgerWriter defines the balance mutations. Each call is one atomic unit in the store.
type LedgerWriter interface {
	// Grant credits entry.Delta (> 0) to the account, creating it if needed, and appends entry.
	Grant(ctx context.Context, entry domain.LedgerEntry) (*domain.Account, error)

	// Reset sets the balance to newBalance and appends an admin_reset entry carrying the difference.
	Reset(ctx context.Context, entry domain.LedgerEntry, newBalance int64) (*domain.LedgerEntry, error)

	// Debit decrements the balance by -entry.Delta only if it can be covered and appends entry.
	// Returns ChargeApplied or ChargeDeclined.
	Debit(ctx context.Context, entry domain.LedgerEntry) (domain.ChargeOutcome, error)

	// DebitIdempotent inserts record, decrements and appends entry in one transaction.
	// A decline rolls the record back. An existing record yields ChargeAlreadySettled.
	DebitIdempotent(ctx context.Context, record domain.ChargeRecord, entry domain.LedgerEntry) (domain.ChargeOutcome, error)
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}
