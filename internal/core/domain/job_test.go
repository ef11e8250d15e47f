package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestJobStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from domain.JobStatus
		to   domain.JobStatus
		want bool
	}{
		{"pending to processing", domain.JobPendingInput, domain.JobProcessing, true},
		{"pending to failed", domain.JobPendingInput, domain.JobFailed, true},
		{"pending to completed", domain.JobPendingInput, domain.JobCompleted, false},
		{"processing to completed", domain.JobProcessing, domain.JobCompleted, true},
		{"processing to failed", domain.JobProcessing, domain.JobFailed, true},
		{"processing back to pending", domain.JobProcessing, domain.JobPendingInput, false},
		{"completed to failed", domain.JobCompleted, domain.JobFailed, false},
		{"completed to completed", domain.JobCompleted, domain.JobCompleted, false},
		{"failed to processing", domain.JobFailed, domain.JobProcessing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestJob_ApplyTransition(t *testing.T) {
	now := time.Now().UTC()
	job := &domain.Job{JobID: "j1", Status: domain.JobPendingInput}

	assert.True(t, job.ApplyTransition(domain.JobProcessing, now))
	assert.Equal(t, domain.JobProcessing, job.Status)
	assert.Equal(t, now, job.UpdatedAt)

	assert.True(t, job.ApplyTransition(domain.JobCompleted, now))
	assert.False(t, job.ApplyTransition(domain.JobFailed, now.Add(time.Second)))
	assert.Equal(t, domain.JobCompleted, job.Status)
	assert.Equal(t, now, job.UpdatedAt)
}

func TestJob_ForceFail(t *testing.T) {
	job := &domain.Job{Status: domain.JobCompleted, Result: []byte(`{"text":"hi"}`)}
	job.ForceFail("billing failed", time.Now())

	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Nil(t, job.Result)
	assert.Equal(t, "billing failed", job.Error)
}

func TestLedgerReason(t *testing.T) {
	assert.True(t, domain.ReasonChargeSpeech.IsCharge())
	assert.False(t, domain.ReasonGrantPack.IsCharge())
	assert.True(t, domain.ReasonAdminGrant.IsGrant())
	assert.False(t, domain.ReasonAdminReset.IsGrant())
	assert.False(t, domain.LedgerReason("refund").IsValid())
	assert.Equal(t, domain.ReasonChargeTranscribe, domain.UsageTranscribe.Reason())
}

func TestChargeOutcome_Succeeded(t *testing.T) {
	assert.True(t, domain.ChargeApplied.Succeeded())
	assert.True(t, domain.ChargeAlreadySettled.Succeeded())
	assert.True(t, domain.ChargeSkipped.Succeeded())
	assert.False(t, domain.ChargeDeclined.Succeeded())
}
