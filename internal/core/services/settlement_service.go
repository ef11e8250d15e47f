package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/usage_billing_app/internal/apperrors"
	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	"github.com/SscSPs/usage_billing_app/internal/core/ports/gateways"
	portssvc "github.com/SscSPs/usage_billing_app/internal/core/ports/services"
	"github.com/google/uuid"
)

const (
	billingDeclinedMessage = "billing failed: insufficient balance"
	billingPricingMessage  = "billing failed: usage could not be priced"
	defaultJobFailure      = "transcription failed"
)

// RelayProviderName prices relay work that does not name the provider it used.
const RelayProviderName = "relay"

// settlementService drives large-file transcription: upload, dispatch to the relay, and
// settlement when the relay reports back.
type settlementService struct {
	BaseService
	jobs        portssvc.JobSvcFacade
	ledger      portssvc.LedgerSvcFacade
	guard       portssvc.EventGuardSvc
	pricer      gateways.Pricer
	relay       gateways.Relay
	storage     gateways.ObjectStorage
	uploadTTL   time.Duration
	callbackURL string
}

// SettlementServiceOption is a functional option for configuring the settlement service
type SettlementServiceOption func(*settlementService)

// WithRelay sets the relay that runs dispatched jobs.
func WithRelay(relay gateways.Relay, callbackURL string) SettlementServiceOption {
	return func(s *settlementService) {
		s.relay = relay
		s.callbackURL = callbackURL
	}
}

// WithUploadStorage sets where job inputs are uploaded and how long upload URLs stay valid.
func WithUploadStorage(storage gateways.ObjectStorage, ttl time.Duration) SettlementServiceOption {
	return func(s *settlementService) {
		s.storage = storage
		s.uploadTTL = ttl
	}
}

// NewSettlementService creates a new settlement service with the provided options
func NewSettlementService(
	jobs portssvc.JobSvcFacade,
	ledger portssvc.LedgerSvcFacade,
	guard portssvc.EventGuardSvc,
	pricer gateways.Pricer,
	options ...SettlementServiceOption,
) portssvc.SettlementSvc {
	svc := &settlementService{
		jobs:      jobs,
		ledger:    ledger,
		guard:     guard,
		pricer:    pricer,
		uploadTTL: time.Hour,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.SettlementSvc = (*settlementService)(nil)

// CreateJob admits the account, creates a pending job and returns an upload URL for its input.
func (s *settlementService) CreateJob(ctx context.Context, accountID string) (*domain.Job, string, error) {
	if s.storage == nil {
		return nil, "", fmt.Errorf("%w: upload storage is not configured", apperrors.ErrInternal)
	}
	if err := admit(ctx, s.ledger, accountID); err != nil {
		return nil, "", err
	}

	inputRef := fmt.Sprintf("uploads/%s/%s", accountID, uuid.NewString())
	job, err := s.jobs.Create(ctx, accountID, inputRef)
	if err != nil {
		return nil, "", err
	}

	uploadURL, err := s.storage.UploadURL(ctx, inputRef, s.uploadTTL)
	if err != nil {
		s.LogError(ctx, err, "Failed to issue upload URL", slog.String("job_id", job.JobID))
		if _, ferr := s.jobs.Fail(ctx, job.JobID, "upload URL could not be issued"); ferr != nil {
			s.LogError(ctx, ferr, "Failed to fail job after upload URL error", slog.String("job_id", job.JobID))
		}
		return nil, "", fmt.Errorf("failed to issue upload URL: %w", err)
	}
	return job, uploadURL, nil
}

// StartJob confirms the upload and dispatches the job. Only the call that moves the job to
// processing dispatches; repeated calls return the current job.
func (s *settlementService) StartJob(ctx context.Context, accountID string, jobID string, language string) (*domain.Job, error) {
	if s.relay == nil {
		return nil, fmt.Errorf("%w: relay is not configured", apperrors.ErrInternal)
	}
	job, err := s.GetJob(ctx, accountID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobPendingInput {
		return job, nil
	}

	if s.storage != nil {
		present, err := s.storage.Exists(ctx, job.InputRef)
		if err != nil {
			s.LogError(ctx, err, "Failed to confirm upload", slog.String("job_id", jobID))
			return nil, fmt.Errorf("failed to confirm upload: %w", err)
		}
		if !present {
			return nil, fmt.Errorf("%w: upload for job %s has not arrived", apperrors.ErrValidation, jobID)
		}
	}

	tr, err := s.jobs.MarkProcessing(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !tr.Applied {
		return tr.Job, nil
	}

	err = s.relay.Submit(ctx, domain.RelayRequest{
		JobID:       jobID,
		InputRef:    job.InputRef,
		Language:    language,
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to dispatch job to relay", slog.String("job_id", jobID))
		failed, ferr := s.jobs.Fail(context.WithoutCancel(ctx), jobID, "dispatch failed")
		if ferr != nil {
			s.LogError(ctx, ferr, "Failed to fail undispatched job", slog.String("job_id", jobID))
			return nil, fmt.Errorf("failed to dispatch job: %w", err)
		}
		return failed.Job, fmt.Errorf("failed to dispatch job: %w", err)
	}
	return tr.Job, nil
}

// GetJob returns the job if it belongs to accountID. Jobs of other accounts are reported as missing.
func (s *settlementService) GetJob(ctx context.Context, accountID string, jobID string) (*domain.Job, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.AccountID != accountID {
		return nil, apperrors.ErrNotFound
	}
	return job, nil
}

// HandleRelayCallback finalizes a job once per relay event.
func (s *settlementService) HandleRelayCallback(ctx context.Context, event domain.RelayEvent) error {
	if event.JobID == "" {
		return fmt.Errorf("%w: job ID is required", apperrors.ErrValidation)
	}
	return s.guard.Process(ctx, event.EventID, domain.EventTypeRelayCompletion, func(ctx context.Context) error {
		if event.Success {
			_, err := s.CompleteAndCharge(ctx, event.JobID, event.Result, event.Usage)
			return err
		}
		msg := event.Error
		if msg == "" {
			msg = defaultJobFailure
		}
		_, err := s.jobs.Fail(ctx, event.JobID, msg)
		return err
	})
}

// CompleteAndCharge charges with the job ID as idempotency key and only then completes the job, so a
// result is never visible before it is paid for. A retry after a crash between the two steps finds
// the charge settled and completes the job without billing again.
func (s *settlementService) CompleteAndCharge(ctx context.Context, jobID string, result json.RawMessage, usage domain.Usage) (*domain.Job, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	switch job.Status {
	case domain.JobFailed:
		s.LogInfo(ctx, "Job already failed, not charging", slog.String("job_id", jobID))
		return job, nil
	case domain.JobPendingInput:
		return nil, fmt.Errorf("%w: job %s was never dispatched", apperrors.ErrInvalidTransition, jobID)
	}

	if usage.Kind == "" {
		usage.Kind = domain.UsageTranscribe
	}
	if usage.Provider == "" {
		usage.Provider = RelayProviderName
	}
	cost, err := s.pricer.Cost(usage)
	if err != nil {
		s.LogError(ctx, err, "Failed to price job usage", slog.String("job_id", jobID), slog.String("provider", usage.Provider))
		if _, ferr := s.failUnpaid(ctx, job, billingPricingMessage); ferr != nil {
			return nil, ferr
		}
		return nil, err
	}

	meta := usage.Metadata()
	meta["job_id"] = jobID
	_, err = s.ledger.Charge(ctx, domain.ChargeRequest{
		AccountID:      job.AccountID,
		Amount:         domain.ToCredits(cost),
		Reason:         usage.Kind.Reason(),
		Metadata:       meta,
		IdempotencyKey: jobID,
	})
	if err != nil {
		if !apperrors.IsBillingDeclined(err) {
			// Storage fault: the job stays processing without a result and redelivery settles it.
			return nil, err
		}
		failed, ferr := s.failUnpaid(ctx, job, billingDeclinedMessage)
		if ferr != nil {
			return nil, ferr
		}
		s.LogInfo(ctx, "Job failed after declined charge", slog.String("job_id", jobID))
		return failed, nil
	}

	if job.Status == domain.JobCompleted {
		return job, nil
	}
	tr, err := s.jobs.Complete(ctx, jobID, result)
	if err != nil {
		return nil, err
	}
	if tr.Job.Status != domain.JobCompleted {
		s.LogWarn(ctx, "Charged job ended without a result", slog.String("job_id", jobID), slog.String("status", string(tr.Job.Status)))
	}
	return tr.Job, nil
}

// failUnpaid fails a job whose work cannot be billed. A job completed before billing ran is overwritten.
func (s *settlementService) failUnpaid(ctx context.Context, job *domain.Job, message string) (*domain.Job, error) {
	var tr *domain.JobTransition
	var err error
	if job.Status == domain.JobCompleted {
		tr, err = s.jobs.ForceFail(ctx, job.JobID, message)
	} else {
		tr, err = s.jobs.Fail(ctx, job.JobID, message)
	}
	if err != nil {
		return nil, err
	}
	return tr.Job, nil
}
