package pgsql

import (
	portsrepo "github.com/SscSPs/usage_billing_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		LedgerRepo: newPgxLedgerRepository(dbPool),
		EventRepo:  newPgxEventRepository(dbPool),
		JobRepo:    newPgxJobRepository(dbPool),
	}
}
