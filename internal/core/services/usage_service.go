package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SscSPs/usage_billing_app/internal/apperrors"
	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	"github.com/SscSPs/usage_billing_app/internal/core/orchestration"
	"github.com/SscSPs/usage_billing_app/internal/core/ports/gateways"
	portssvc "github.com/SscSPs/usage_billing_app/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// settleTimeout bounds the charge that follows a successful provider call. The charge runs
// detached from the request so a client disconnect cannot drop an incurred charge.
const settleTimeout = 10 * time.Second

type usageService struct {
	BaseService
	ledger             portssvc.LedgerSvcFacade
	pricer             gateways.Pricer
	translators        []gateways.Translator
	transcribers       []gateways.Transcriber
	synthesizers       []gateways.Synthesizer
	attemptTimeout     time.Duration
	segmentConcurrency int
}

// UsageServiceOption is a functional option for configuring the usage service
type UsageServiceOption func(*usageService)

// WithTranslators sets the translation chain in priority order.
func WithTranslators(chain ...gateways.Translator) UsageServiceOption {
	return func(s *usageService) {
		s.translators = chain
	}
}

// WithTranscribers sets the transcription chain in priority order.
func WithTranscribers(chain ...gateways.Transcriber) UsageServiceOption {
	return func(s *usageService) {
		s.transcribers = chain
	}
}

// WithSynthesizers sets the speech chain in priority order.
func WithSynthesizers(chain ...gateways.Synthesizer) UsageServiceOption {
	return func(s *usageService) {
		s.synthesizers = chain
	}
}

// WithAttemptTimeout bounds each provider call.
func WithAttemptTimeout(d time.Duration) UsageServiceOption {
	return func(s *usageService) {
		s.attemptTimeout = d
	}
}

// WithSegmentConcurrency bounds how many transcription segments run at once.
func WithSegmentConcurrency(n int) UsageServiceOption {
	return func(s *usageService) {
		s.segmentConcurrency = n
	}
}

// NewUsageService creates a new usage service with the provided options
func NewUsageService(ledger portssvc.LedgerSvcFacade, pricer gateways.Pricer, options ...UsageServiceOption) portssvc.UsageSvc {
	svc := &usageService{
		ledger:             ledger,
		pricer:             pricer,
		attemptTimeout:     30 * time.Second,
		segmentConcurrency: 3,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.UsageSvc = (*usageService)(nil)

// admit lets an account through when it has any credit left. Unknown accounts are declined.
func admit(ctx context.Context, ledger portssvc.LedgerReaderSvc, accountID string) error {
	balance, err := ledger.GetBalance(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: account has no credits", apperrors.ErrInsufficientBalance)
		}
		return err
	}
	if balance <= 0 {
		return fmt.Errorf("%w: account has no credits", apperrors.ErrInsufficientBalance)
	}
	return nil
}

// requestHash fingerprints an operation and its input so a reused idempotency key can be told
// apart from a genuine retry.
func requestHash(kind domain.UsageKind, in any) (string, error) {
	body, err := json.Marshal(struct {
		Kind  domain.UsageKind `json:"kind"`
		Input any              `json:"input"`
	}{kind, in})
	if err != nil {
		return "", fmt.Errorf("%w: request cannot be fingerprinted: %v", apperrors.ErrValidation, err)
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

// replay looks up a charge already settled under key. A match for the same request
// decodes the stored result into out and reports true; a match for another request is rejected.
func (s *usageService) replay(ctx context.Context, key domain.ChargeKey, hash string, out any) (bool, error) {
	if key.IdempotencyKey == "" {
		return false, nil
	}
	rec, err := s.ledger.FindCharge(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !rec.Matches(hash) {
		s.LogWarn(ctx, "Idempotency key reused for a different request", slog.String("key", key.String()))
		return false, fmt.Errorf("%w: key %q", apperrors.ErrIdempotencyMismatch, key.IdempotencyKey)
	}
	if len(rec.Response) == 0 {
		// Settled without a stored result; rerun and let the charge settle as a no-op.
		return false, nil
	}
	if err := json.Unmarshal(rec.Response, out); err != nil {
		s.LogWarn(ctx, "Stored result could not be decoded, rerunning", slog.String("key", key.String()), slog.String("error", err.Error()))
		return false, nil
	}
	s.LogInfo(ctx, "Replaying settled request", slog.String("key", key.String()))
	return true, nil
}

func (s *usageService) orchestrationOptions(ctx context.Context, operation string) []orchestration.Option {
	return []orchestration.Option{
		orchestration.WithAttemptTimeout(s.attemptTimeout),
		orchestration.WithLogger(s.GetLogger(ctx)),
		orchestration.WithOperation(operation),
	}
}

func (s *usageService) Translate(ctx context.Context, accountID string, idempotencyKey string, in domain.TranslateInput) (*domain.TranslateOutput, error) {
	if strings.TrimSpace(in.Text) == "" || in.TargetLanguage == "" {
		return nil, fmt.Errorf("%w: text and target language are required", apperrors.ErrValidation)
	}
	hash, err := requestHash(domain.UsageTranslate, in)
	if err != nil {
		return nil, err
	}
	key := domain.ChargeKey{AccountID: accountID, Reason: domain.ReasonChargeTranslate, IdempotencyKey: idempotencyKey}
	var prior domain.TranslateOutput
	replayed, err := s.replay(ctx, key, hash, &prior)
	if err != nil {
		return nil, err
	}
	if replayed {
		return &prior, nil
	}
	if err := admit(ctx, s.ledger, accountID); err != nil {
		return nil, err
	}

	chain := make([]orchestration.Provider[*domain.TranslateOutput], 0, len(s.translators))
	for _, t := range s.translators {
		chain = append(chain, orchestration.Provider[*domain.TranslateOutput]{
			Name: t.Name(),
			Call: func(ctx context.Context) (*domain.TranslateOutput, error) {
				return t.Translate(ctx, in)
			},
		})
	}

	res, err := orchestration.Execute(ctx, chain, s.orchestrationOptions(ctx, "translate")...)
	if err != nil {
		return nil, err
	}
	out := res.Value
	out.Provider = res.Provider
	out.Usage.Provider = res.Provider
	out.Usage.Kind = domain.UsageTranslate

	cost, err := s.pricer.Cost(out.Usage)
	if err != nil {
		s.LogError(ctx, err, "Failed to price translation", slog.String("provider", res.Provider))
		return nil, err
	}
	if err := s.settle(ctx, key, hash, cost, out.Usage.Metadata(), out); err != nil {
		return nil, err
	}
	return out, nil
}

// Transcribe fans the segments out over the transcriber chain and charges once for the batch.
func (s *usageService) Transcribe(ctx context.Context, accountID string, idempotencyKey string, in domain.TranscribeInput) (*domain.Transcript, error) {
	if len(in.Segments) == 0 {
		return nil, fmt.Errorf("%w: at least one audio segment is required", apperrors.ErrValidation)
	}
	hash, err := requestHash(domain.UsageTranscribe, in)
	if err != nil {
		return nil, err
	}
	key := domain.ChargeKey{AccountID: accountID, Reason: domain.ReasonChargeTranscribe, IdempotencyKey: idempotencyKey}
	var prior domain.Transcript
	replayed, err := s.replay(ctx, key, hash, &prior)
	if err != nil {
		return nil, err
	}
	if replayed {
		return &prior, nil
	}
	if err := admit(ctx, s.ledger, accountID); err != nil {
		return nil, err
	}

	opts := s.orchestrationOptions(ctx, "transcribe")
	segments, err := orchestration.RunAll(ctx, in.Segments, func(ctx context.Context, i int, seg domain.AudioSegment) (domain.TranscriptSegment, error) {
		chain := make([]orchestration.Provider[*domain.TranscriptSegment], 0, len(s.transcribers))
		for _, t := range s.transcribers {
			chain = append(chain, orchestration.Provider[*domain.TranscriptSegment]{
				Name: t.Name(),
				Call: func(ctx context.Context) (*domain.TranscriptSegment, error) {
					return t.Transcribe(ctx, in.Language, seg)
				},
			})
		}
		res, err := orchestration.Execute(ctx, chain, opts...)
		if err != nil {
			return domain.TranscriptSegment{}, fmt.Errorf("segment %d: %w", i, err)
		}
		out := *res.Value
		out.Index = i
		out.Provider = res.Provider
		out.Usage.Provider = res.Provider
		out.Usage.Kind = domain.UsageTranscribe
		if out.Usage.Seconds <= 0 {
			out.Usage.Seconds = seg.Seconds
		}
		return out, nil
	}, s.segmentConcurrency)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	var seconds float64
	providers := make(map[string]int)
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		cost, err := s.pricer.Cost(seg.Usage)
		if err != nil {
			s.LogError(ctx, err, "Failed to price transcript segment", slog.String("provider", seg.Provider))
			return nil, err
		}
		total = total.Add(cost)
		seconds += seg.Usage.Seconds
		providers[seg.Provider]++
		texts = append(texts, strings.TrimSpace(seg.Text))
	}

	meta := domain.Metadata{
		"kind":      string(domain.UsageTranscribe),
		"seconds":   seconds,
		"segments":  len(segments),
		"providers": providers,
	}
	transcript := &domain.Transcript{Text: strings.Join(texts, " "), Segments: segments}
	if err := s.settle(ctx, key, hash, total, meta, transcript); err != nil {
		return nil, err
	}
	return transcript, nil
}

func (s *usageService) Synthesize(ctx context.Context, accountID string, idempotencyKey string, in domain.SpeechInput) (*domain.SpeechOutput, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", apperrors.ErrValidation)
	}
	hash, err := requestHash(domain.UsageSpeech, in)
	if err != nil {
		return nil, err
	}
	key := domain.ChargeKey{AccountID: accountID, Reason: domain.ReasonChargeSpeech, IdempotencyKey: idempotencyKey}
	var prior domain.SpeechOutput
	replayed, err := s.replay(ctx, key, hash, &prior)
	if err != nil {
		return nil, err
	}
	if replayed {
		return &prior, nil
	}
	if err := admit(ctx, s.ledger, accountID); err != nil {
		return nil, err
	}

	chain := make([]orchestration.Provider[*domain.SpeechOutput], 0, len(s.synthesizers))
	for _, syn := range s.synthesizers {
		chain = append(chain, orchestration.Provider[*domain.SpeechOutput]{
			Name: syn.Name(),
			Call: func(ctx context.Context) (*domain.SpeechOutput, error) {
				return syn.Synthesize(ctx, in)
			},
		})
	}

	res, err := orchestration.Execute(ctx, chain, s.orchestrationOptions(ctx, "speech")...)
	if err != nil {
		return nil, err
	}
	out := res.Value
	out.Provider = res.Provider
	out.Usage.Provider = res.Provider
	out.Usage.Kind = domain.UsageSpeech
	if out.Usage.Characters <= 0 {
		out.Usage.Characters = int64(utf8.RuneCountInString(in.Text))
	}

	cost, err := s.pricer.Cost(out.Usage)
	if err != nil {
		s.LogError(ctx, err, "Failed to price speech", slog.String("provider", res.Provider))
		return nil, err
	}
	if err := s.settle(ctx, key, hash, cost, out.Usage.Metadata(), out); err != nil {
		return nil, err
	}
	return out, nil
}

// settle charges for work a provider already performed. Keyed charges also store result so a
// retry of the same request can be answered without calling a provider again.
func (s *usageService) settle(ctx context.Context, key domain.ChargeKey, hash string, cost decimal.Decimal, meta domain.Metadata, result any) error {
	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	req := domain.ChargeRequest{
		AccountID:      key.AccountID,
		Amount:         domain.ToCredits(cost),
		Reason:         key.Reason,
		Metadata:       meta,
		IdempotencyKey: key.IdempotencyKey,
	}
	if key.IdempotencyKey != "" {
		req.RequestHash = hash
		if body, err := json.Marshal(result); err == nil {
			req.Response = body
		} else {
			s.LogWarn(ctx, "Result not stored for replay", slog.String("key", key.String()), slog.String("error", err.Error()))
		}
	}
	_, err := s.ledger.Charge(settleCtx, req)
	return err
}
