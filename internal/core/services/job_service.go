package services

import (
	"context"
	"encoding/json"
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

const staleJobBatch = 100

// jobService implements the job state machine on top of a locking job store.
type jobService struct {
	BaseService
	repo    portsrepo.JobRepositoryFacade
	storage gateways.ObjectStorage
}

// JobServiceOption is a functional option for configuring the job service
type JobServiceOption func(*jobService)

// WithJobStorage enables removal of uploaded inputs once a job is terminal.
func WithJobStorage(storage gateways.ObjectStorage) JobServiceOption {
	return func(s *jobService) {
		s.storage = storage
	}
}

// WithJobClock overrides the time source used for job timestamps.
func WithJobClock(now func() time.Time) JobServiceOption {
	return func(s *jobService) {
		s.Now = now
	}
}

// NewJobService creates a new job service with the provided options
func NewJobService(repo portsrepo.JobRepositoryFacade, options ...JobServiceOption) portssvc.JobSvcFacade {
	svc := &jobService{repo: repo}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.JobSvcFacade = (*jobService)(nil)

func (s *jobService) Create(ctx context.Context, accountID string, inputRef string) (*domain.Job, error) {
	if accountID == "" || inputRef == "" {
		return nil, fmt.Errorf("%w: account ID and input reference are required", apperrors.ErrValidation)
	}
	now := s.now()
	job := domain.Job{
		JobID:     uuid.NewString(),
		AccountID: accountID,
		Status:    domain.JobPendingInput,
		InputRef:  inputRef,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.SaveJob(ctx, job); err != nil {
		s.LogError(ctx, err, "Failed to create job", slog.String("account_id", accountID))
		return nil, err
	}
	metrics.JobTransitions.WithLabelValues(string(domain.JobPendingInput)).Inc()
	s.LogInfo(ctx, "Job created", slog.String("job_id", job.JobID), slog.String("account_id", accountID))
	return &job, nil
}

func (s *jobService) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, apperrors.ErrNotFound
	}
	return s.repo.FindJobByID(ctx, jobID)
}

func (s *jobService) MarkProcessing(ctx context.Context, jobID string) (*domain.JobTransition, error) {
	return s.transition(ctx, jobID, domain.JobProcessing, nil)
}

func (s *jobService) Complete(ctx context.Context, jobID string, result json.RawMessage) (*domain.JobTransition, error) {
	return s.transition(ctx, jobID, domain.JobCompleted, func(job *domain.Job) {
		job.Result = result
		job.Error = ""
	})
}

func (s *jobService) Fail(ctx context.Context, jobID string, message string) (*domain.JobTransition, error) {
	return s.transition(ctx, jobID, domain.JobFailed, func(job *domain.Job) {
		job.Result = nil
		job.Error = message
	})
}

// ForceFail overwrites a completed job. A job that already failed is left alone.
func (s *jobService) ForceFail(ctx context.Context, jobID string, message string) (*domain.JobTransition, error) {
	now := s.now()
	tr, err := s.repo.UpdateJobWithLock(ctx, jobID, func(job *domain.Job) (bool, error) {
		switch job.Status {
		case domain.JobFailed:
			return false, nil
		case domain.JobCompleted:
			job.ForceFail(message, now)
			return true, nil
		default:
			return false, fmt.Errorf("%w: cannot force-fail a job in status %s", apperrors.ErrInvalidTransition, job.Status)
		}
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to force-fail job", slog.String("job_id", jobID))
		return nil, err
	}
	if tr.Applied {
		metrics.JobTransitions.WithLabelValues("force_failed").Inc()
		s.LogWarn(ctx, "Completed job overwritten as failed", slog.String("job_id", jobID), slog.String("reason", message))
	}
	return tr, nil
}

// transition moves a job to target under a row lock. Duplicate and out-of-order deliveries that find
// the job already at target or terminal are logged no-ops.
func (s *jobService) transition(ctx context.Context, jobID string, target domain.JobStatus, apply func(job *domain.Job)) (*domain.JobTransition, error) {
	now := s.now()
	tr, err := s.repo.UpdateJobWithLock(ctx, jobID, func(job *domain.Job) (bool, error) {
		if job.Status.IsTerminal() || job.Status == target {
			return false, nil
		}
		if !job.ApplyTransition(target, now) {
			return false, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, job.Status, target)
		}
		if apply != nil {
			apply(job)
		}
		return true, nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) || errors.Is(err, apperrors.ErrNotFound) {
			s.LogWarn(ctx, "Job transition rejected", slog.String("job_id", jobID), slog.String("target", string(target)), slog.String("error", err.Error()))
		} else {
			s.LogError(ctx, err, "Job transition failed", slog.String("job_id", jobID), slog.String("target", string(target)))
		}
		return nil, err
	}

	if !tr.Applied {
		s.LogInfo(ctx, "Ignoring job transition",
			slog.String("job_id", jobID),
			slog.String("current", string(tr.Job.Status)),
			slog.String("target", string(target)))
		return tr, nil
	}

	metrics.JobTransitions.WithLabelValues(string(target)).Inc()
	s.LogInfo(ctx, "Job transitioned", slog.String("job_id", jobID), slog.String("status", string(target)))
	if target.IsTerminal() {
		s.Cleanup(ctx, tr.Job)
	}
	return tr, nil
}

// ExpireStale fails jobs whose upload never arrived.
func (s *jobService) ExpireStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)
	jobs, err := s.repo.ListStaleJobs(ctx, domain.JobPendingInput, cutoff, staleJobBatch)
	if err != nil {
		s.LogError(ctx, err, "Failed to list stale jobs")
		return 0, err
	}

	expired := 0
	for _, job := range jobs {
		tr, err := s.Fail(ctx, job.JobID, "upload not received before expiry")
		if err != nil {
			return expired, err
		}
		if tr.Applied {
			expired++
		}
	}
	if expired > 0 {
		s.LogInfo(ctx, "Expired stale jobs", slog.Int("count", expired))
	}
	return expired, nil
}

// Cleanup deletes the uploaded input. Failures are only logged: the job outcome stands either way.
func (s *jobService) Cleanup(ctx context.Context, job *domain.Job) {
	if s.storage == nil || job == nil || job.InputRef == "" || !job.Status.IsTerminal() {
		return
	}
	if err := s.storage.Delete(ctx, job.InputRef); err != nil {
		s.LogWarn(ctx, "Failed to clean up job input",
			slog.String("job_id", job.JobID),
			slog.String("input_ref", job.InputRef),
			slog.String("error", err.Error()))
	}
}
