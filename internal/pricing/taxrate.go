package pricing

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidCustomTaxRate = errors.New("invalid_custom_tax_rate")

// StandardTaxRates are the rates offered in the rate selector.
var StandardTaxRates = []float64{0, 5.5, 10, 20}

// TaxRateMode tells how a TaxRateChoice was made.
type TaxRateMode int

const (
	TaxRateUnset TaxRateMode = iota
	TaxRateStandard
	TaxRateCustom
)

// TaxRateChoice is the state of the tax-rate selector of the item form.
type TaxRateChoice struct {
	Mode       TaxRateMode
	Standard   float64
	CustomText string
}

// ParseTaxRateChoice interprets a selector value. A value from rates selects
// standard mode; any other non-empty selection switches to custom mode, where
// the rate is read from customText. rates defaults to StandardTaxRates.
func ParseTaxRateChoice(selection, customText string, rates ...float64) TaxRateChoice {
	if len(rates) == 0 {
		rates = StandardTaxRates
	}
	sel := strings.TrimSpace(selection)
	if sel == "" {
		if strings.TrimSpace(customText) != "" {
			return TaxRateChoice{Mode: TaxRateCustom, CustomText: customText}
		}
		return TaxRateChoice{Mode: TaxRateUnset}
	}
	if v, ok := parseRate(sel); ok && isStandard(v, rates) {
		return TaxRateChoice{Mode: TaxRateStandard, Standard: v}
	}
	return TaxRateChoice{Mode: TaxRateCustom, CustomText: customText}
}

// Rate returns the chosen rate in percent, or nil while unset or while a
// custom value does not parse.
func (c TaxRateChoice) Rate() *float64 {
	switch c.Mode {
	case TaxRateStandard:
		v := c.Standard
		return &v
	case TaxRateCustom:
		if v, ok := parseRate(c.CustomText); ok {
			return &v
		}
	}
	return nil
}

// Validate fails for a custom choice whose text is not a rate.
func (c TaxRateChoice) Validate() error {
	if c.Mode == TaxRateCustom && c.Rate() == nil {
		return ErrInvalidCustomTaxRate
	}
	return nil
}

// IsStandardRate reports whether v is one of StandardTaxRates.
func IsStandardRate(v float64) bool {
	return isStandard(v, StandardTaxRates)
}

func isStandard(v float64, rates []float64) bool {
	for _, r := range rates {
		if math.Abs(r-v) < 1e-9 {
			return true
		}
	}
	return false
}

// parseRate accepts "5.5", "5,5" and a trailing "%".
func parseRate(text string) (float64, bool) {
	value := strings.TrimSpace(text)
	value = strings.TrimSpace(strings.TrimSuffix(value, "%"))
	value = strings.ReplaceAll(value, ",", ".")
	if value == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || !finite(v) || v < 0 {
		return 0, false
	}
	return v, true
}
