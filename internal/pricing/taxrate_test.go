package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaxRateChoice(t *testing.T) {
	tests := []struct {
		name       string
		selection  string
		customText string
		wantMode   TaxRateMode
		wantRate   *float64
		wantErr    error
	}{
		{name: "standard", selection: "5.5", wantMode: TaxRateStandard, wantRate: rate(5.5)},
		{name: "standard with comma", selection: "5,5", wantMode: TaxRateStandard, wantRate: rate(5.5)},
		{name: "zero is standard", selection: "0", wantMode: TaxRateStandard, wantRate: rate(0)},
		{name: "custom valid", selection: "custom", customText: " 8,5 ", wantMode: TaxRateCustom, wantRate: rate(8.5)},
		{name: "custom from non-standard number", selection: "7", customText: "7", wantMode: TaxRateCustom, wantRate: rate(7)},
		{name: "custom invalid", selection: "custom", customText: "abc", wantMode: TaxRateCustom, wantErr: ErrInvalidCustomTaxRate},
		{name: "custom negative", selection: "custom", customText: "-3", wantMode: TaxRateCustom, wantErr: ErrInvalidCustomTaxRate},
		{name: "custom empty", selection: "custom", wantMode: TaxRateCustom, wantErr: ErrInvalidCustomTaxRate},
		{name: "unset", wantMode: TaxRateUnset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			choice := ParseTaxRateChoice(tt.selection, tt.customText)
			assert.Equal(t, tt.wantMode, choice.Mode)
			if tt.wantErr != nil {
				assert.ErrorIs(t, choice.Validate(), tt.wantErr)
				assert.Nil(t, choice.Rate())
				return
			}
			require.NoError(t, choice.Validate())
			if tt.wantRate == nil {
				assert.Nil(t, choice.Rate())
				return
			}
			require.NotNil(t, choice.Rate())
			assert.Equal(t, *tt.wantRate, *choice.Rate())
		})
	}
}

func TestParseTaxRateChoice_InvalidCustomFallsBackToDefault(t *testing.T) {
	choice := ParseTaxRateChoice("custom", "n/a")
	assert.Equal(t, DefaultTaxRatePercent, EffectiveTaxRate(choice.Rate()))
}

func TestParseTaxRateChoice_ConfiguredRates(t *testing.T) {
	choice := ParseTaxRateChoice("2.1", "", 0, 2.1, 20)
	assert.Equal(t, TaxRateStandard, choice.Mode)
	assert.Equal(t, 2.1, *choice.Rate())
}

func TestIsStandardRate(t *testing.T) {
	assert.True(t, IsStandardRate(5.5))
	assert.True(t, IsStandardRate(20))
	assert.False(t, IsStandardRate(19.6))
}
