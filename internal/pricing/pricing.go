// Package pricing computes line and quote totals from line items.
//
// Amounts are computed with decimal arithmetic and returned unrounded;
// rounding happens only when amounts are formatted for display.
package pricing

import (
	"math"
	"sort"

	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
	"github.com/shopspring/decimal"
)

// DefaultTaxRatePercent applies to lines without a usable tax rate.
const DefaultTaxRatePercent = 20.0

var hundred = decimal.NewFromInt(100)

// LineTotals are the computed amounts of one line.
type LineTotals struct {
	TotalExclTax            float64 `json:"totalExclTax"`
	TaxAmount               float64 `json:"taxAmount"`
	TotalInclTax            float64 `json:"totalInclTax"`
	EffectiveTaxRatePercent float64 `json:"effectiveTaxRatePercent"`
}

// Totals are the summed amounts of a list of lines.
type Totals struct {
	TotalExclTax float64 `json:"totalExclTax"`
	TaxAmount    float64 `json:"taxAmount"`
	TotalInclTax float64 `json:"totalInclTax"`
}

// TaxLine is the taxable base and tax due at one rate.
type TaxLine struct {
	RatePercent float64 `json:"ratePercent"`
	Base        float64 `json:"base"`
	Amount      float64 `json:"amount"`
}

type lineAmounts struct {
	excl decimal.Decimal
	tax  decimal.Decimal
	rate float64
}

func computeLine(item devisdomain.LineItem) lineAmounts {
	rate := EffectiveTaxRate(item.TaxRatePercent)
	if item.IsGifted || !item.Kind.Priced() {
		return lineAmounts{excl: decimal.Zero, tax: decimal.Zero, rate: rate}
	}

	excl := fromFloat(item.Quantity).Mul(fromFloat(item.UnitPriceExclTax))
	tax := excl.Mul(decimal.NewFromFloat(rate)).Div(hundred)
	return lineAmounts{excl: excl, tax: tax, rate: rate}
}

// ComputeLine returns the amounts charged for one line. Gifted lines, lot
// headers and text lines charge nothing whatever their unit price.
func ComputeLine(item devisdomain.LineItem) LineTotals {
	amounts := computeLine(item)
	return LineTotals{
		TotalExclTax:            amounts.excl.InexactFloat64(),
		TaxAmount:               amounts.tax.InexactFloat64(),
		TotalInclTax:            amounts.excl.Add(amounts.tax).InexactFloat64(),
		EffectiveTaxRatePercent: amounts.rate,
	}
}

// ComputeTotals sums ComputeLine over items. The pre-gift price of gifted
// lines never enters the sum.
func ComputeTotals(items []devisdomain.LineItem) Totals {
	excl := decimal.Zero
	tax := decimal.Zero
	for _, item := range items {
		amounts := computeLine(item)
		excl = excl.Add(amounts.excl)
		tax = tax.Add(amounts.tax)
	}
	return Totals{
		TotalExclTax: excl.InexactFloat64(),
		TaxAmount:    tax.InexactFloat64(),
		TotalInclTax: excl.Add(tax).InexactFloat64(),
	}
}

// TaxBreakdown groups charged amounts by effective rate, ascending.
// Rates with a zero base are omitted.
func TaxBreakdown(items []devisdomain.LineItem) []TaxLine {
	type bucket struct {
		base decimal.Decimal
		tax  decimal.Decimal
	}
	buckets := map[float64]*bucket{}
	for _, item := range items {
		amounts := computeLine(item)
		if amounts.excl.IsZero() {
			continue
		}
		b, ok := buckets[amounts.rate]
		if !ok {
			b = &bucket{base: decimal.Zero, tax: decimal.Zero}
			buckets[amounts.rate] = b
		}
		b.base = b.base.Add(amounts.excl)
		b.tax = b.tax.Add(amounts.tax)
	}

	out := make([]TaxLine, 0, len(buckets))
	for rate, b := range buckets {
		out = append(out, TaxLine{
			RatePercent: rate,
			Base:        b.base.InexactFloat64(),
			Amount:      b.tax.InexactFloat64(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RatePercent < out[j].RatePercent })
	return out
}

// PreGiftTotal is the struck-through amount shown next to a gifted line:
// quantity times the price captured when the line was gifted.
func PreGiftTotal(item devisdomain.LineItem) float64 {
	if !item.IsGifted || item.OriginalPrice == nil {
		return 0
	}
	return fromFloat(item.Quantity).Mul(fromFloat(*item.OriginalPrice)).InexactFloat64()
}

// EffectiveTaxRate returns rate, or DefaultTaxRatePercent when rate is unset
// or unusable.
func EffectiveTaxRate(rate *float64) float64 {
	if rate == nil || !finite(*rate) || *rate < 0 {
		return DefaultTaxRatePercent
	}
	return *rate
}

// RoundCents rounds an amount half away from zero to two decimals.
func RoundCents(v float64) float64 {
	if !finite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func fromFloat(v float64) decimal.Decimal {
	if !finite(v) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
