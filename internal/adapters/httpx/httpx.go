// Package httpx holds the shared outbound HTTP client and the JSON call helper used by the
// provider, relay and storage adapters.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/SscSPs/usage_billing_app/internal/core/orchestration"
)

// maxErrorBody caps how much of an error response is kept for the error message.
const maxErrorBody = 4 << 10

var defaultClient = &http.Client{
	// Per-call deadlines come from the context; this only guards against a stuck transport.
	Timeout: 5 * time.Minute,
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

func Client() *http.Client { return defaultClient }

// Caller issues authenticated JSON requests against one upstream.
type Caller struct {
	Name    string
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// Do sends body as JSON and decodes a 2xx response into out (skipped when out is nil).
// Non-2xx answers come back as *orchestration.ProviderError so the fallback policy can classify them.
func (c *Caller) Do(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.Send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ResponseError(c.Name, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.Name, err)
	}
	return nil
}

// Send issues the request and returns the raw response. The caller closes the body.
func (c *Caller) Send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", c.Name, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", c.Name, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	client := c.Client
	if client == nil {
		client = defaultClient
	}
	return client.Do(req)
}

// ResponseError converts a non-success response into a ProviderError.
func ResponseError(name string, resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return orchestration.NewProviderError(name, resp.StatusCode, string(bytes.TrimSpace(msg)))
}
