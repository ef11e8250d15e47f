package pgsql

import (
	"context"

	"github.com/SscSPs/usage_billing_app/internal/apperrors"
	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/usage_billing_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxEventRepository struct {
	pool *pgxpool.Pool
}

func newPgxEventRepository(pool *pgxpool.Pool) portsrepo.EventRepository {
	return &PgxEventRepository{pool: pool}
}

var _ portsrepo.EventRepository = (*PgxEventRepository)(nil)

func (r *PgxEventRepository) ExistsProcessedEvent(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = $1);`, eventID).Scan(&exists)
	if err != nil {
		return false, apperrors.Storage("failed to check processed event", err)
	}
	return exists, nil
}

func (r *PgxEventRepository) SaveProcessedEvent(ctx context.Context, event domain.ProcessedEvent) error {
	query := `
		INSERT INTO processed_events (event_id, event_type, processed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING;`

	if _, err := r.pool.Exec(ctx, query, event.EventID, event.EventType, event.ProcessedAt); err != nil {
		return apperrors.Storage("failed to save processed event", err)
	}
	return nil
}
