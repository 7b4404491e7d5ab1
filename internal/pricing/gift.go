package pricing

import devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"

// SetGifted toggles the gifted flag of item and returns the updated copy.
//
// The first time a line is gifted its unit price is captured into
// OriginalPrice; the capture is never repeated by later toggles. A gifted
// line charges zero, and un-gifting restores the unit price from
// OriginalPrice.
func SetGifted(item devisdomain.LineItem, gifted bool) devisdomain.LineItem {
	out := item.Clone()
	if out.IsGifted == gifted {
		return out
	}

	if gifted {
		if out.OriginalPrice == nil {
			price := out.UnitPriceExclTax
			out.OriginalPrice = &price
		}
		out.UnitPriceExclTax = 0
		out.IsGifted = true
		return out
	}

	if out.OriginalPrice != nil {
		out.UnitPriceExclTax = *out.OriginalPrice
	}
	out.IsGifted = false
	return out
}

// SetUnitPrice applies a price edit. On a gifted line the price goes to
// OriginalPrice and the charged price stays zero. Otherwise the unit price
// changes, and a previously captured OriginalPrice follows it so that a
// later gift toggle restores the latest price.
func SetUnitPrice(item devisdomain.LineItem, price float64) devisdomain.LineItem {
	out := item.Clone()
	if out.IsGifted {
		out.OriginalPrice = &price
		return out
	}
	out.UnitPriceExclTax = price
	if out.OriginalPrice != nil {
		out.OriginalPrice = &price
	}
	return out
}
