// Package pricing converts provider usage into credits from a configured rate table.
package pricing

import (
	"fmt"

	"github.com/SscSPs/usage_billing_app/internal/apperrors"
	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	"github.com/SscSPs/usage_billing_app/internal/core/ports/gateways"
	"github.com/shopspring/decimal"
)

// RateTable prices usage at a per-unit rate per provider. The unit depends on the usage kind:
// tokens for translation, seconds for transcription, characters for speech.
type RateTable struct {
	rates map[string]decimal.Decimal
}

var _ gateways.Pricer = (*RateTable)(nil)

// NewRateTable parses decimal rates keyed by provider name.
func NewRateTable(rates map[string]string) (*RateTable, error) {
	parsed := make(map[string]decimal.Decimal, len(rates))
	for provider, raw := range rates {
		if raw == "" {
			continue
		}
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid rate %q for provider %s: %w", raw, provider, err)
		}
		if rate.IsNegative() {
			return nil, fmt.Errorf("negative rate for provider %s", provider)
		}
		parsed[provider] = rate
	}
	return &RateTable{rates: parsed}, nil
}

// Cost returns the fractional credit cost of usage.
func (t *RateTable) Cost(usage domain.Usage) (decimal.Decimal, error) {
	rate, ok := t.rates[usage.Provider]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no rate configured for provider %q", apperrors.ErrInternal, usage.Provider)
	}
	return rate.Mul(Units(usage)), nil
}

// Units returns the billable quantity of usage.
func Units(usage domain.Usage) decimal.Decimal {
	switch usage.Kind {
	case domain.UsageTranscribe:
		return decimal.NewFromFloat(usage.Seconds)
	case domain.UsageSpeech:
		return decimal.NewFromInt(usage.Characters)
	default:
		return decimal.NewFromInt(usage.InputTokens + usage.OutputTokens)
	}
}
