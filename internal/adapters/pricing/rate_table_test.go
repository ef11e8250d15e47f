package pricing_test

import (
	"testing"

	"github.com/SscSPs/usage_billing_app/internal/adapters/pricing"
	"github.com/SscSPs/usage_billing_app/internal/apperrors"
	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCredits_RoundsUp(t *testing.T) {
	tests := []struct {
		name string
		cost string
		want int64
	}{
		{"zero", "0", 0},
		{"negative", "-3.2", 0},
		{"tiny fraction", "0.0001", 1},
		{"exact", "12", 12},
		{"just over", "12.000001", 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ToCredits(decimal.RequireFromString(tt.cost)))
		})
	}
}

func TestRateTable_CostPerKind(t *testing.T) {
	table, err := pricing.NewRateTable(map[string]string{
		"premium": "0.01",
		"budget":  "0.5",
	})
	require.NoError(t, err)

	cost, err := table.Cost(domain.Usage{Kind: domain.UsageTranslate, Provider: "premium", InputTokens: 120, OutputTokens: 80})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2).Equal(cost), cost.String())

	cost, err = table.Cost(domain.Usage{Kind: domain.UsageTranscribe, Provider: "budget", Seconds: 3.5})
	require.NoError(t, err)
	assert.Equal(t, int64(2), domain.ToCredits(cost))

	cost, err = table.Cost(domain.Usage{Kind: domain.UsageSpeech, Provider: "premium", Characters: 1001})
	require.NoError(t, err)
	assert.Equal(t, int64(11), domain.ToCredits(cost))
}

func TestRateTable_UnknownProvider(t *testing.T) {
	table, err := pricing.NewRateTable(nil)
	require.NoError(t, err)

	_, err = table.Cost(domain.Usage{Provider: "ghost"})
	assert.ErrorIs(t, err, apperrors.ErrInternal)
}

func TestNewRateTable_RejectsBadRates(t *testing.T) {
	_, err := pricing.NewRateTable(map[string]string{"p": "abc"})
	assert.Error(t, err)

	_, err = pricing.NewRateTable(map[string]string{"p": "-1"})
	assert.Error(t, err)
}
