package dto

import (
	"encoding/json"
	"time"

	"github.com/SscSPs/usage_billing_app/internal/core/domain"
)

// CreateJobResponse hands the client the upload URL for the job input.
type CreateJobResponse struct {
	JobID     string           `json:"jobID"`
	Status    domain.JobStatus `json:"status"`
	UploadURL string           `json:"uploadURL"`
}

type StartJobRequest struct {
	Language string `json:"language"`
}

// JobResponse exposes exactly one of Result or Error depending on the status.
type JobResponse struct {
	JobID     string           `json:"jobID"`
	Status    domain.JobStatus `json:"status"`
	Result    json.RawMessage  `json:"result,omitempty" swaggertype:"object"`
	Error     string           `json:"error,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func ToJobResponse(job *domain.Job) JobResponse {
	resp := JobResponse{JobID: job.JobID, Status: job.Status, UpdatedAt: job.UpdatedAt}
	switch job.Status {
	case domain.JobCompleted:
		resp.Result = job.Result
	case domain.JobFailed:
		resp.Error = job.Error
	}
	return resp
}
