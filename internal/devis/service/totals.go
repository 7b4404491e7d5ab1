package service

import (
	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/pricing"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/surface"
)

// Totals computes the quote figures: per-line amounts, sums, the per-rate
// breakdown and the areas of the selected rooms.
func (s *Store) Totals() devisdomain.Totals {
	return ComputeTotals(s.Get())
}

func ComputeTotals(cfg devisdomain.QuoteConfiguration) devisdomain.Totals {
	lines := make([]devisdomain.LineSummary, 0, len(cfg.SelectedItems))
	for _, item := range cfg.SelectedItems {
		amounts := pricing.ComputeLine(item)
		lines = append(lines, devisdomain.LineSummary{
			ID:                      item.ID,
			Kind:                    item.Kind,
			LotName:                 item.LotName,
			Label:                   item.Label,
			Quantity:                item.Quantity,
			Unit:                    item.DisplayUnit(),
			UnitPriceExclTax:        item.UnitPriceExclTax,
			TotalExclTax:            amounts.TotalExclTax,
			TaxAmount:               amounts.TaxAmount,
			TotalInclTax:            amounts.TotalInclTax,
			EffectiveTaxRatePercent: amounts.EffectiveTaxRatePercent,
			IsGifted:                item.IsGifted,
			PreGiftTotalExclTax:     pricing.PreGiftTotal(item),
		})
	}

	breakdown := pricing.TaxBreakdown(cfg.SelectedItems)
	taxLines := make([]devisdomain.TaxLine, 0, len(breakdown))
	for _, b := range breakdown {
		taxLines = append(taxLines, devisdomain.TaxLine{RatePercent: b.RatePercent, Base: b.Base, Amount: b.Amount})
	}

	sums := pricing.ComputeTotals(cfg.SelectedItems)
	areas := surface.Totals(activeSurfaces(cfg))
	return devisdomain.Totals{
		TotalExclTax:    sums.TotalExclTax,
		TaxAmount:       sums.TaxAmount,
		TotalInclTax:    sums.TotalInclTax,
		TaxBreakdown:    taxLines,
		TotalGroundArea: areas.GroundArea,
		TotalWallArea:   areas.WallArea,
		Lines:           lines,
	}
}
