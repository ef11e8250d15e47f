package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/SscSPs/usage_billing_app/internal/core/domain"
)

// JobReaderSvc defines read operations for jobs.
type JobReaderSvc interface {
	Get(ctx context.Context, jobID string) (*domain.Job, error)
}

// JobWriterSvc drives the job state machine. Transitions on a terminal job are logged no-ops
// returning Applied=false; transitions that skip a state return apperrors.ErrInvalidTransition.
type JobWriterSvc interface {
	Create(ctx context.Context, accountID string, inputRef string) (*domain.Job, error)
	MarkProcessing(ctx context.Context, jobID string) (*domain.JobTransition, error)
	Complete(ctx context.Context, jobID string, result json.RawMessage) (*domain.JobTransition, error)
	Fail(ctx context.Context, jobID string, message string) (*domain.JobTransition, error)

	// ForceFail overwrites a completed job whose result could not be paid for.
	ForceFail(ctx context.Context, jobID string, message string) (*domain.JobTransition, error)

	// ExpireStale fails pending_input jobs not updated within olderThan and returns how many were failed.
	ExpireStale(ctx context.Context, olderThan time.Duration) (int, error)

	// Cleanup removes the uploaded input of a terminal job. Failures are logged, not returned.
	Cleanup(ctx context.Context, job *domain.Job)
}

// JobSvcFacade combines all job service interfaces.
type JobSvcFacade interface {
	JobReaderSvc
	JobWriterSvc
}

// SettlementSvc runs asynchronous transcription jobs end to end.
type SettlementSvc interface {
	CreateJob(ctx context.Context, accountID string) (*domain.Job, string, error)
	StartJob(ctx context.Context, accountID string, jobID string, language string) (*domain.Job, error)
	GetJob(ctx context.Context, accountID string, jobID string) (*domain.Job, error)
	HandleRelayCallback(ctx context.Context, event domain.RelayEvent) error

	// CompleteAndCharge charges for the job with the job ID as idempotency key, then completes it.
	// A declined charge fails the job. A store fault leaves the job processing with no result.
	CompleteAndCharge(ctx context.Context, jobID string, result json.RawMessage, usage domain.Usage) (*domain.Job, error)
}
