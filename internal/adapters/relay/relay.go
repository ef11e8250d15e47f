// Package relay dispatches long transcriptions to the out-of-band worker.
package relay

import (
	"context"
	"net/http"

	"github.com/SscSPs/usage_billing_app/internal/adapters/httpx"
	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	"github.com/SscSPs/usage_billing_app/internal/core/ports/gateways"
)

type Client struct {
	caller httpx.Caller
}

var _ gateways.Relay = (*Client)(nil)

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{caller: httpx.Caller{
		Name:    "relay",
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  httpClient,
	}}
}

type submitRequest struct {
	JobID       string `json:"job_id"`
	InputRef    string `json:"input_ref"`
	Language    string `json:"language,omitempty"`
	CallbackURL string `json:"callback_url"`
}

// Submit hands the job over. The relay answers asynchronously through the callback URL.
func (c *Client) Submit(ctx context.Context, req domain.RelayRequest) error {
	return c.caller.Do(ctx, http.MethodPost, "/v1/jobs", submitRequest{
		JobID:       req.JobID,
		InputRef:    req.InputRef,
		Language:    req.Language,
		CallbackURL: req.CallbackURL,
	}, nil)
}
