package render

import (
	"math"
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
)

var (
	printer   = message.NewPrinter(language.French)
	lotCaser  = cases.Upper(language.French)
	spaceRepl = strings.NewReplacer(" ", " ", " ", " ")
)

// FormatAmount renders a euro amount the French way, e.g. "1 234,56 €".
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	s := printer.Sprint(number.Decimal(v, number.Scale(2)))
	return spaceRepl.Replace(s) + " €"
}

// FormatQuantity drops trailing zeros: 2 → "2", 2.5 → "2,5".
func FormatQuantity(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	s := printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
	return spaceRepl.Replace(s)
}

// FormatRate renders a tax rate, e.g. "5,5 %".
func FormatRate(v float64) string {
	return FormatQuantity(v) + " %"
}

// Filename is the download name of the quote PDF.
func Filename(cfg devisdomain.QuoteConfiguration) string {
	base := slug.Make(strings.TrimSpace(cfg.Number + " " + cfg.Title))
	if base == "" {
		base = "devis"
	}
	return base + ".pdf"
}

func lotHeading(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "DIVERS"
	}
	return lotCaser.String(name)
}
