// Package providers talks to upstream translation, transcription and speech services over a
// common JSON protocol.
package providers

import (
	"context"
	"net/http"

	"github.com/SscSPs/usage_billing_app/internal/adapters/httpx"
	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	"github.com/SscSPs/usage_billing_app/internal/core/ports/gateways"
	"github.com/SscSPs/usage_billing_app/internal/platform/config"
)

// Client is one upstream provider. A single provider may serve any of the three capabilities.
type Client struct {
	caller httpx.Caller
}

var (
	_ gateways.Translator  = (*Client)(nil)
	_ gateways.Transcriber = (*Client)(nil)
	_ gateways.Synthesizer = (*Client)(nil)
)

// NewClient creates a provider client. httpClient may be nil to use the shared client.
func NewClient(cfg config.ProviderConfig, httpClient *http.Client) *Client {
	return &Client{caller: httpx.Caller{
		Name:    cfg.Name,
		BaseURL: cfg.URL,
		APIKey:  cfg.APIKey,
		Client:  httpClient,
	}}
}

func (c *Client) Name() string { return c.caller.Name }

type translateRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language"`
}

type tokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

type translateResponse struct {
	Text  string     `json:"text"`
	Model string     `json:"model"`
	Usage tokenUsage `json:"usage"`
}

func (c *Client) Translate(ctx context.Context, in domain.TranslateInput) (*domain.TranslateOutput, error) {
	var resp translateResponse
	err := c.caller.Do(ctx, http.MethodPost, "/v1/translate", translateRequest{
		Text:           in.Text,
		SourceLanguage: in.SourceLanguage,
		TargetLanguage: in.TargetLanguage,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &domain.TranslateOutput{
		Text: resp.Text,
		Usage: domain.Usage{
			Kind:         domain.UsageTranslate,
			Model:        resp.Model,
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}

type transcribeRequest struct {
	Language string `json:"language,omitempty"`
	Audio    []byte `json:"audio"`
	MimeType string `json:"mime_type"`
}

type transcribeResponse struct {
	Text            string  `json:"text"`
	Model           string  `json:"model"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func (c *Client) Transcribe(ctx context.Context, language string, segment domain.AudioSegment) (*domain.TranscriptSegment, error) {
	var resp transcribeResponse
	err := c.caller.Do(ctx, http.MethodPost, "/v1/transcribe", transcribeRequest{
		Language: language,
		Audio:    segment.Audio,
		MimeType: segment.MimeType,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &domain.TranscriptSegment{
		Index: segment.Index,
		Text:  resp.Text,
		Usage: domain.Usage{
			Kind:    domain.UsageTranscribe,
			Model:   resp.Model,
			Seconds: resp.DurationSeconds,
		},
	}, nil
}

type speechRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice,omitempty"`
	Format string `json:"format,omitempty"`
}

type speechResponse struct {
	Audio      []byte `json:"audio"`
	MimeType   string `json:"mime_type"`
	Model      string `json:"model"`
	Characters int64  `json:"characters"`
}

func (c *Client) Synthesize(ctx context.Context, in domain.SpeechInput) (*domain.SpeechOutput, error) {
	var resp speechResponse
	err := c.caller.Do(ctx, http.MethodPost, "/v1/speech", speechRequest{
		Text:   in.Text,
		Voice:  in.Voice,
		Format: in.Format,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &domain.SpeechOutput{
		Audio:    resp.Audio,
		MimeType: resp.MimeType,
		Usage: domain.Usage{
			Kind:       domain.UsageSpeech,
			Model:      resp.Model,
			Characters: resp.Characters,
		},
	}, nil
}

// Chains resolves provider names to clients, reusing one client per provider across chains.
// Names without configuration are skipped.
type Chains struct {
	Translators  []gateways.Translator
	Transcribers []gateways.Transcriber
	Synthesizers []gateways.Synthesizer
}

// BuildChains creates the clients for the configured chains.
func BuildChains(cfg *config.Config, httpClient *http.Client) Chains {
	clients := make(map[string]*Client, len(cfg.Providers))
	get := func(name string) *Client {
		if c, ok := clients[name]; ok {
			return c
		}
		pc, ok := cfg.Providers[name]
		if !ok {
			return nil
		}
		c := NewClient(pc, httpClient)
		clients[name] = c
		return c
	}

	var chains Chains
	for _, name := range cfg.TranslateChain {
		if c := get(name); c != nil {
			chains.Translators = append(chains.Translators, c)
		}
	}
	for _, name := range cfg.TranscribeChain {
		if c := get(name); c != nil {
			chains.Transcribers = append(chains.Transcribers, c)
		}
	}
	for _, name := range cfg.SpeechChain {
		if c := get(name); c != nil {
			chains.Synthesizers = append(chains.Synthesizers, c)
		}
	}
	return chains
}
