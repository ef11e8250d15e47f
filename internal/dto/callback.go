package dto

import (
	"encoding/json"

	"github.com/SscSPs/usage_billing_app/internal/core/domain"
)

// PaymentCallbackRequest is the payment processor's confirmation payload.
type PaymentCallbackRequest struct {
	EventID   string `json:"eventID" validate:"required"`
	AccountID string `json:"accountID" validate:"required,uuid"`
	PackID    string `json:"packID" validate:"required"`
	Credits   int64  `json:"credits" validate:"gte=0"`
	Status    string `json:"status" validate:"required"`
}

func (r PaymentCallbackRequest) ToDomain() domain.PaymentEvent {
	return domain.PaymentEvent{
		EventID:   r.EventID,
		AccountID: r.AccountID,
		PackID:    r.PackID,
		Credits:   r.Credits,
		Status:    r.Status,
	}
}

// RelayUsage is the usage the relay reports for a finished job.
type RelayUsage struct {
	Provider string  `json:"provider"`
	Model    string  `json:"model"`
	Seconds  float64 `json:"seconds" validate:"gte=0"`
}

// RelayCallbackRequest reports the outcome of a dispatched job.
type RelayCallbackRequest struct {
	EventID string          `json:"eventID" validate:"required"`
	JobID   string          `json:"jobID" validate:"required,uuid"`
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result" swaggertype:"object"`
	Error   string          `json:"error"`
	Usage   RelayUsage      `json:"usage"`
}

func (r RelayCallbackRequest) ToDomain() domain.RelayEvent {
	return domain.RelayEvent{
		EventID: r.EventID,
		JobID:   r.JobID,
		Success: r.Success,
		Result:  r.Result,
		Error:   r.Error,
		Usage: domain.Usage{
			Kind:     domain.UsageTranscribe,
			Provider: r.Usage.Provider,
			Model:    r.Usage.Model,
			Seconds:  r.Usage.Seconds,
		},
	}
}
