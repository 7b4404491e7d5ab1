package pricing

import (
	"math"
	"testing"

	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rate(v float64) *float64 { return &v }

func TestComputeLine_TenPercent(t *testing.T) {
	item := devisdomain.LineItem{Quantity: 3, UnitPriceExclTax: 50, TaxRatePercent: rate(10)}

	got := ComputeLine(item)

	assert.InDelta(t, 150, got.TotalExclTax, 1e-9)
	assert.InDelta(t, 15, got.TaxAmount, 1e-9)
	assert.InDelta(t, 165, got.TotalInclTax, 1e-9)
	assert.Equal(t, 10.0, got.EffectiveTaxRatePercent)
}

func TestComputeLine_DefaultRate(t *testing.T) {
	got := ComputeLine(devisdomain.LineItem{Quantity: 2, UnitPriceExclTax: 100})

	assert.Equal(t, DefaultTaxRatePercent, got.EffectiveTaxRatePercent)
	assert.InDelta(t, 40, got.TaxAmount, 1e-9)
	assert.InDelta(t, 240, got.TotalInclTax, 1e-9)
}

func TestComputeLine_GiftedChargesNothing(t *testing.T) {
	item := devisdomain.LineItem{Quantity: 4, UnitPriceExclTax: 80, TaxRatePercent: rate(5.5), IsGifted: true}

	got := ComputeLine(item)

	assert.Zero(t, got.TotalExclTax)
	assert.Zero(t, got.TaxAmount)
	assert.Zero(t, got.TotalInclTax)
}

func TestComputeLine_LinearInQuantity(t *testing.T) {
	for _, q := range []float64{0.5, 1, 3, 12.25} {
		base := devisdomain.LineItem{Quantity: q, UnitPriceExclTax: 37.9, TaxRatePercent: rate(5.5)}
		double := base
		double.Quantity = 2 * q

		a := ComputeLine(base)
		b := ComputeLine(double)

		assert.InDelta(t, 2*a.TotalExclTax, b.TotalExclTax, 1e-9)
		assert.InDelta(t, 2*a.TaxAmount, b.TaxAmount, 1e-9)
		assert.InDelta(t, 2*a.TotalInclTax, b.TotalInclTax, 1e-9)
	}
}

func TestComputeLine_NonFiniteInputsCountAsZero(t *testing.T) {
	got := ComputeLine(devisdomain.LineItem{Quantity: math.NaN(), UnitPriceExclTax: 10})
	assert.Zero(t, got.TotalInclTax)

	got = ComputeLine(devisdomain.LineItem{Quantity: 1, UnitPriceExclTax: 10, TaxRatePercent: rate(math.Inf(1))})
	assert.Equal(t, DefaultTaxRatePercent, got.EffectiveTaxRatePercent)
}

func TestComputeTotals(t *testing.T) {
	items := []devisdomain.LineItem{
		{Quantity: 3, UnitPriceExclTax: 50, TaxRatePercent: rate(10)},
		{Quantity: 1, UnitPriceExclTax: 200},
		{Quantity: 2, UnitPriceExclTax: 999, IsGifted: true, OriginalPrice: rate(999)},
		{Kind: devisdomain.ItemKindLotHeader, Label: "Peinture"},
	}

	got := ComputeTotals(items)

	assert.InDelta(t, 350, got.TotalExclTax, 1e-9)
	assert.InDelta(t, 55, got.TaxAmount, 1e-9)
	assert.InDelta(t, 405, got.TotalInclTax, 1e-9)
}

func TestComputeTotals_Empty(t *testing.T) {
	assert.Equal(t, Totals{}, ComputeTotals(nil))
}

func TestTaxBreakdown(t *testing.T) {
	items := []devisdomain.LineItem{
		{Quantity: 1, UnitPriceExclTax: 100},
		{Quantity: 3, UnitPriceExclTax: 50, TaxRatePercent: rate(10)},
		{Quantity: 1, UnitPriceExclTax: 20, TaxRatePercent: rate(20)},
		{Quantity: 1, UnitPriceExclTax: 40, IsGifted: true, TaxRatePercent: rate(5.5)},
	}

	got := TaxBreakdown(items)

	require.Len(t, got, 2)
	assert.Equal(t, 10.0, got[0].RatePercent)
	assert.InDelta(t, 150, got[0].Base, 1e-9)
	assert.InDelta(t, 15, got[0].Amount, 1e-9)
	assert.Equal(t, 20.0, got[1].RatePercent)
	assert.InDelta(t, 120, got[1].Base, 1e-9)
	assert.InDelta(t, 24, got[1].Amount, 1e-9)
}

func TestPreGiftTotal(t *testing.T) {
	item := devisdomain.LineItem{Quantity: 3, UnitPriceExclTax: 50}
	assert.Zero(t, PreGiftTotal(item))

	gifted := SetGifted(item, true)
	assert.InDelta(t, 150, PreGiftTotal(gifted), 1e-9)
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 1.01, RoundCents(1.005))
	assert.Equal(t, 45.36, RoundCents(45.355))
	assert.Zero(t, RoundCents(math.NaN()))
}
