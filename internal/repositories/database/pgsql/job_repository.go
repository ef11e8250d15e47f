package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/usage_billing_app/internal/apperrors"
	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/usage_billing_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectJobColumns = `job_id, account_id, status, input_ref, result, error, created_at, updated_at`

type PgxJobRepository struct {
	BaseRepository
}

func newPgxJobRepository(pool *pgxpool.Pool) portsrepo.JobRepositoryFacade {
	return &PgxJobRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxJobRepository implements portsrepo.JobRepositoryFacade
var _ portsrepo.JobRepositoryFacade = (*PgxJobRepository)(nil)

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	var result []byte
	if err := row.Scan(
		&job.JobID,
		&job.AccountID,
		&job.Status,
		&job.InputRef,
		&result,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(result) > 0 {
		job.Result = result
	}
	return &job, nil
}

// SaveJob inserts a new job.
func (r *PgxJobRepository) SaveJob(ctx context.Context, job domain.Job) error {
	query := `
		INSERT INTO jobs (job_id, account_id, status, input_ref, result, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	var result []byte
	if len(job.Result) > 0 {
		result = job.Result
	}
	_, err := r.Pool.Exec(ctx, query, job.JobID, job.AccountID, job.Status, job.InputRef, result, job.Error, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: job with ID %s already exists", apperrors.ErrDuplicate, job.JobID)
		}
		return apperrors.Storage(fmt.Sprintf("failed to save job %s", job.JobID), err)
	}
	return nil
}

// FindJobByID retrieves a job by its ID.
func (r *PgxJobRepository) FindJobByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `SELECT ` + selectJobColumns + ` FROM jobs WHERE job_id = $1;`

	job, err := scanJob(r.Pool.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Storage(fmt.Sprintf("failed to find job %s", jobID), err)
	}
	return job, nil
}

// ListStaleJobs returns the oldest jobs stuck in status since before cutoff.
func (r *PgxJobRepository) ListStaleJobs(ctx context.Context, status domain.JobStatus, cutoff time.Time, limit int) ([]domain.Job, error) {
	query := `SELECT ` + selectJobColumns + `
		FROM jobs
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at
		LIMIT $3;`

	rows, err := r.Pool.Query(ctx, query, status, cutoff, limit)
	if err != nil {
		return nil, apperrors.Storage("failed to query stale jobs", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, apperrors.Storage("failed to scan job", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("error iterating jobs", err)
	}
	return jobs, nil
}

// UpdateJobWithLock serializes transitions of one job across instances with a row lock.
func (r *PgxJobRepository) UpdateJobWithLock(ctx context.Context, jobID string, mutate portsrepo.JobMutation) (*domain.JobTransition, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	query := `SELECT ` + selectJobColumns + ` FROM jobs WHERE job_id = $1 FOR UPDATE;`
	job, err := scanJob(tx.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Storage(fmt.Sprintf("failed to lock job %s", jobID), err)
	}

	changed, err := mutate(job)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &domain.JobTransition{Job: job, Applied: false}, nil
	}

	var result []byte
	if len(job.Result) > 0 {
		result = job.Result
	}
	_, err = tx.Exec(ctx,
		`UPDATE jobs SET status = $2, result = $3, error = $4, updated_at = $5 WHERE job_id = $1;`,
		job.JobID, job.Status, result, job.Error, job.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.Storage(fmt.Sprintf("failed to update job %s", jobID), err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &domain.JobTransition{Job: job, Applied: true}, nil
}
