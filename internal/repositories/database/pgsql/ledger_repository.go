package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/usage_billing_app/internal/apperrors"
	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/usage_billing_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	upsertGrantSQL = `
		INSERT INTO accounts (account_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (account_id) DO UPDATE
		SET balance = accounts.balance + EXCLUDED.balance, updated_at = EXCLUDED.updated_at
		RETURNING account_id, balance, created_at, updated_at;`

	insertEntrySQL = `
		INSERT INTO ledger_entries (entry_id, account_id, delta, reason, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);`

	// debitSQL decrements and appends in one statement. Zero rows affected means the account
	// is missing or cannot cover the amount, and nothing was written.
	debitSQL = `
		WITH debited AS (
			UPDATE accounts
			SET balance = balance - $2::bigint, updated_at = $6
			WHERE account_id = $1 AND balance >= $2::bigint
			RETURNING account_id
		)
		INSERT INTO ledger_entries (entry_id, account_id, delta, reason, metadata, created_at)
		SELECT $3, account_id, -$2::bigint, $4, $5, $6 FROM debited;`

	insertChargeRecordSQL = `
		INSERT INTO charge_records (account_id, reason, idempotency_key, spend, metadata, request_hash, response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for balances and ledger entries.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// FindAccountByID retrieves an account by its device token.
func (r *PgxLedgerRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT account_id, balance, created_at, updated_at FROM accounts WHERE account_id = $1;`

	var acc domain.Account
	err := r.Pool.QueryRow(ctx, query, accountID).Scan(&acc.AccountID, &acc.Balance, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Storage(fmt.Sprintf("failed to find account %s", accountID), err)
	}
	return &acc, nil
}

// ListEntries returns a page of ledger entries, newest first.
func (r *PgxLedgerRepository) ListEntries(ctx context.Context, accountID string, limit int, offset int) ([]domain.LedgerEntry, error) {
	query := `
		SELECT entry_id, account_id, delta, reason, metadata, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, entry_id
		LIMIT $2 OFFSET $3;`

	rows, err := r.Pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, apperrors.Storage("failed to query ledger entries", err)
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0, limit)
	for rows.Next() {
		var e domain.LedgerEntry
		var rawMeta []byte
		if err := rows.Scan(&e.EntryID, &e.AccountID, &e.Delta, &e.Reason, &rawMeta, &e.CreatedAt); err != nil {
			return nil, apperrors.Storage("failed to scan ledger entry", err)
		}
		e.Metadata = unmarshalMetadata(rawMeta)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("error iterating ledger entries", err)
	}
	return entries, nil
}

// SumDeltas totals the ledger for an account.
func (r *PgxLedgerRepository) SumDeltas(ctx context.Context, accountID string) (int64, int64, error) {
	query := `SELECT COALESCE(SUM(delta), 0)::bigint, COUNT(*) FROM ledger_entries WHERE account_id = $1;`

	var sum, count int64
	if err := r.Pool.QueryRow(ctx, query, accountID).Scan(&sum, &count); err != nil {
		return 0, 0, apperrors.Storage("failed to sum ledger entries", err)
	}
	return sum, count, nil
}

// FindChargeRecord looks up a settled charge by its key triple.
func (r *PgxLedgerRepository) FindChargeRecord(ctx context.Context, key domain.ChargeKey) (*domain.ChargeRecord, error) {
	query := `
		SELECT account_id, reason, idempotency_key, spend, metadata, request_hash, response, created_at
		FROM charge_records
		WHERE account_id = $1 AND reason = $2 AND idempotency_key = $3;`

	var rec domain.ChargeRecord
	var rawMeta, rawResponse []byte
	err := r.Pool.QueryRow(ctx, query, key.AccountID, key.Reason, key.IdempotencyKey).Scan(
		&rec.AccountID,
		&rec.Reason,
		&rec.IdempotencyKey,
		&rec.Spend,
		&rawMeta,
		&rec.RequestHash,
		&rawResponse,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Storage("failed to find charge record", err)
	}
	rec.Metadata = unmarshalMetadata(rawMeta)
	if len(rawResponse) > 0 {
		rec.Response = rawResponse
	}
	return &rec, nil
}

// Grant upserts the balance and appends the entry in one transaction.
func (r *PgxLedgerRepository) Grant(ctx context.Context, entry domain.LedgerEntry) (*domain.Account, error) {
	meta, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata is not serializable: %v", apperrors.ErrValidation, err)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	batch := &pgx.Batch{}
	batch.Queue(upsertGrantSQL, entry.AccountID, entry.Delta, entry.CreatedAt)
	batch.Queue(insertEntrySQL, entry.EntryID, entry.AccountID, entry.Delta, entry.Reason, meta, entry.CreatedAt)

	br := tx.SendBatch(ctx, batch)
	var acc domain.Account
	if err := br.QueryRow().Scan(&acc.AccountID, &acc.Balance, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
		_ = br.Close()
		return nil, apperrors.Storage(fmt.Sprintf("failed to credit account %s", entry.AccountID), err)
	}
	if _, err := br.Exec(); err != nil {
		_ = br.Close()
		return nil, apperrors.Storage("failed to append ledger entry", err)
	}
	if err := br.Close(); err != nil {
		return nil, apperrors.Storage("failed to close grant batch", err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &acc, nil
}

// Reset sets the balance under a row lock and appends the difference as one entry.
func (r *PgxLedgerRepository) Reset(ctx context.Context, entry domain.LedgerEntry, newBalance int64) (*domain.LedgerEntry, error) {
	meta, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata is not serializable: %v", apperrors.ErrValidation, err)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO accounts (account_id, balance, created_at, updated_at) VALUES ($1, 0, $2, $2) ON CONFLICT (account_id) DO NOTHING;`,
		entry.AccountID, entry.CreatedAt,
	); err != nil {
		return nil, apperrors.Storage("failed to ensure account row", err)
	}

	var current int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE account_id = $1 FOR UPDATE;`, entry.AccountID).Scan(&current); err != nil {
		return nil, apperrors.Storage("failed to lock account", err)
	}

	entry.Delta = newBalance - current

	batch := &pgx.Batch{}
	batch.Queue(`UPDATE accounts SET balance = $2, updated_at = $3 WHERE account_id = $1;`, entry.AccountID, newBalance, entry.CreatedAt)
	batch.Queue(insertEntrySQL, entry.EntryID, entry.AccountID, entry.Delta, entry.Reason, meta, entry.CreatedAt)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, apperrors.Storage("failed to reset balance", err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Debit performs the conditional decrement and append as a single statement.
func (r *PgxLedgerRepository) Debit(ctx context.Context, entry domain.LedgerEntry) (domain.ChargeOutcome, error) {
	meta, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return "", fmt.Errorf("%w: metadata is not serializable: %v", apperrors.ErrValidation, err)
	}

	tag, err := r.Pool.Exec(ctx, debitSQL, entry.AccountID, -entry.Delta, entry.EntryID, entry.Reason, meta, entry.CreatedAt)
	if err != nil {
		return "", apperrors.Storage(fmt.Sprintf("failed to debit account %s", entry.AccountID), err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ChargeDeclined, nil
	}
	return domain.ChargeApplied, nil
}

// DebitIdempotent settles a keyed charge. The charge record, the decrement and the ledger entry
// commit together or not at all.
func (r *PgxLedgerRepository) DebitIdempotent(ctx context.Context, record domain.ChargeRecord, entry domain.LedgerEntry) (domain.ChargeOutcome, error) {
	meta, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return "", fmt.Errorf("%w: metadata is not serializable: %v", apperrors.ErrValidation, err)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	batch := &pgx.Batch{}
	batch.Queue(insertChargeRecordSQL, record.AccountID, record.Reason, record.IdempotencyKey, record.Spend, meta,
		record.RequestHash, nullableJSON(record.Response), record.CreatedAt)
	batch.Queue(debitSQL, entry.AccountID, -entry.Delta, entry.EntryID, entry.Reason, meta, entry.CreatedAt)

	br := tx.SendBatch(ctx, batch)
	if _, err := br.Exec(); err != nil {
		_ = br.Close()
		if isUniqueViolation(err) {
			// Settled by a concurrent or earlier attempt.
			return domain.ChargeAlreadySettled, nil
		}
		return "", apperrors.Storage("failed to insert charge record", err)
	}
	tag, err := br.Exec()
	if err != nil {
		_ = br.Close()
		return "", apperrors.Storage(fmt.Sprintf("failed to debit account %s", entry.AccountID), err)
	}
	if err := br.Close(); err != nil {
		return "", apperrors.Storage("failed to close charge batch", err)
	}

	if tag.RowsAffected() == 0 {
		// Deferred rollback discards the charge record so the key can be retried after a top-up.
		return domain.ChargeDeclined, nil
	}

	if err := r.Commit(ctx, tx); err != nil {
		return "", err
	}
	return domain.ChargeApplied, nil
}
