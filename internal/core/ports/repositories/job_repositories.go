package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/usage_billing_app/internal/core/domain"
)

// JobMutation inspects a locked job and mutates it in place.
// Returning false leaves the row untouched.
type JobMutation func(job *domain.Job) (bool, error)

// JobReader defines read operations for jobs.
type JobReader interface {
	FindJobByID(ctx context.Context, jobID string) (*domain.Job, error)

	// ListStaleJobs returns jobs in status whose last update is before cutoff.
	ListStaleJobs(ctx context.Context, status domain.JobStatus, cutoff time.Time, limit int) ([]domain.Job, error)
}

// JobWriter defines write operations for jobs.
type JobWriter interface {
	SaveJob(ctx context.Context, job domain.Job) error

	// UpdateJobWithLock loads the job with SELECT ... FOR UPDATE, applies mutate and persists the
	// result in the same transaction when mutate reports a change.
	UpdateJobWithLock(ctx context.Context, jobID string, mutate JobMutation) (*domain.JobTransition, error)
}

// JobRepositoryFacade combines all job-related repository interfaces.
type JobRepositoryFacade interface {
	JobReader
	JobWriter
}
