// Package storage reaches the upload store that holds job inputs.
package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/SscSPs/usage_billing_app/internal/adapters/httpx"
	"github.com/SscSPs/usage_billing_app/internal/core/ports/gateways"
)

// UploadStorage delegates presigning to the store's own signer and checks or removes
// objects by key.
type UploadStorage struct {
	caller httpx.Caller
}

var _ gateways.ObjectStorage = (*UploadStorage)(nil)

func NewUploadStorage(baseURL, apiKey string, httpClient *http.Client) *UploadStorage {
	return &UploadStorage{caller: httpx.Caller{
		Name:    "upload_storage",
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  httpClient,
	}}
}

type presignRequest struct {
	Key        string `json:"key"`
	Method     string `json:"method"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

type presignResponse struct {
	URL string `json:"url"`
}

func (s *UploadStorage) UploadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	var resp presignResponse
	err := s.caller.Do(ctx, http.MethodPost, "/v1/presign", presignRequest{
		Key:        key,
		Method:     http.MethodPut,
		TTLSeconds: int64(ttl / time.Second),
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("upload_storage: empty presigned URL for %s", key)
	}
	return resp.URL, nil
}

func (s *UploadStorage) Exists(ctx context.Context, key string) (bool, error) {
	resp, err := s.caller.Send(ctx, http.MethodHead, objectPath(key), nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	default:
		return false, httpx.ResponseError(s.caller.Name, resp)
	}
}

// Delete removes the object. A missing object counts as deleted.
func (s *UploadStorage) Delete(ctx context.Context, key string) error {
	resp, err := s.caller.Send(ctx, http.MethodDelete, objectPath(key), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return nil
	}
	return httpx.ResponseError(s.caller.Name, resp)
}

func objectPath(key string) string {
	return "/v1/objects/" + url.PathEscape(key)
}
