// Package render produces the printable PDF of a quote.
package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotoconfig "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/clock"
	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/service"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/observability/metrics"
)

var Module = fx.Module("devis.render",
	fx.Provide(New),
)

// Document is a rendered quote ready for download.
type Document struct {
	Filename string
	Content  []byte
}

type Params struct {
	fx.In

	Clock   clock.Clock
	Log     *zap.Logger
	Metrics *metrics.DevisMetrics `optional:"true"`
}

type Renderer struct {
	clock   clock.Clock
	log     *zap.Logger
	metrics *metrics.DevisMetrics
}

func New(p Params) *Renderer {
	return &Renderer{
		clock:   p.Clock,
		log:     p.Log.Named("devis.render"),
		metrics: p.Metrics,
	}
}

type lotGroup struct {
	name  string
	rows  []row
	total float64
}

type row struct {
	kind        devisdomain.ItemKind
	label       string
	description string
	rooms       string
	line        devisdomain.LineSummary
}

// Render lays out the quote: header, lines grouped by lot, totals and the
// per-rate tax breakdown.
func (r *Renderer) Render(ctx context.Context, cfg devisdomain.QuoteConfiguration) (Document, error) {
	totals := service.ComputeTotals(cfg)
	groups := groupByLot(cfg.SelectedItems, totals.Lines)

	m := maroto.New(marotoconfig.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} / {total}",
			Place:   props.RightBottom,
		}).
		Build())

	title := strings.TrimSpace(cfg.Title)
	if title == "" {
		title = "Devis"
	}
	m.AddRow(12,
		text.NewCol(12, title, props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Left}),
	)
	m.AddRow(14,
		col.New(6).Add(
			text.New("Devis n° "+cfg.Number, props.Text{Size: 9}),
			text.New("Date : "+r.clock.Now().Format("02/01/2006"), props.Text{Size: 9, Top: 4}),
		),
		col.New(6).Add(
			text.New("Surface au sol : "+FormatQuantity(totals.TotalGroundArea)+" m²", props.Text{Size: 9, Align: align.Right}),
			text.New("Surface murale : "+FormatQuantity(totals.TotalWallArea)+" m²", props.Text{Size: 9, Align: align.Right, Top: 4}),
		),
	)

	m.AddRow(8,
		text.NewCol(5, "Désignation", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Qté", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "Unité", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "PU HT", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "TVA", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Total HT", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, g := range groups {
		m.AddRow(8,
			text.NewCol(10, lotHeading(g.name), props.Text{Style: fontstyle.Bold, Size: 10, Top: 2}),
			text.NewCol(2, FormatAmount(g.total), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2}),
		)
		for _, rw := range g.rows {
			addRow(m, rw)
		}
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total HT", props.Text{Size: 9, Top: 3}),
		text.NewCol(2, FormatAmount(totals.TotalExclTax), props.Text{Size: 9, Align: align.Right, Top: 3}),
	)
	for _, tl := range totals.TaxBreakdown {
		m.AddRow(6,
			col.New(8),
			text.NewCol(2, "TVA "+FormatRate(tl.RatePercent), props.Text{Size: 9}),
			text.NewCol(2, FormatAmount(tl.Amount), props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(6,
		col.New(8),
		text.NewCol(2, "Total TVA", props.Text{Size: 9}),
		text.NewCol(2, FormatAmount(totals.TaxAmount), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Total TTC", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, FormatAmount(totals.TotalInclTax), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		r.log.Error("pdf generation failed", zap.String("quote_id", cfg.ID), zap.Error(err))
		return Document{}, fmt.Errorf("generate pdf: %w", err)
	}

	r.metrics.IncPDFRender()
	r.log.Debug("pdf rendered",
		zap.String("quote_id", cfg.ID),
		zap.Int("lines", len(totals.Lines)),
	)
	return Document{Filename: Filename(cfg), Content: doc.GetBytes()}, nil
}

func addRow(m core.Maroto, rw row) {
	switch rw.kind {
	case devisdomain.ItemKindLotHeader:
		m.AddRow(7,
			text.NewCol(12, rw.label, props.Text{Style: fontstyle.Bold, Size: 9, Top: 1}),
		)
		return
	case devisdomain.ItemKindText:
		m.AddRow(6,
			text.NewCol(12, joinText(rw.label, rw.description), props.Text{Style: fontstyle.Italic, Size: 8}),
		)
		return
	}

	amount := FormatAmount(rw.line.TotalExclTax)
	unitPrice := FormatAmount(rw.line.UnitPriceExclTax)
	if rw.line.IsGifted {
		amount = "Offert (" + FormatAmount(rw.line.PreGiftTotalExclTax) + ")"
		unitPrice = "Offert"
	}
	m.AddRow(7,
		text.NewCol(5, rw.label, props.Text{Size: 9}),
		text.NewCol(1, FormatQuantity(rw.line.Quantity), props.Text{Size: 9, Align: align.Right}),
		text.NewCol(1, rw.line.Unit, props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, unitPrice, props.Text{Size: 9, Align: align.Right}),
		text.NewCol(1, FormatRate(rw.line.EffectiveTaxRatePercent), props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, amount, props.Text{Size: 9, Align: align.Right}),
	)
	if detail := joinText(rw.description, rw.rooms); detail != "" {
		m.AddRow(5,
			text.NewCol(12, detail, props.Text{Size: 7, Left: 3}),
		)
	}
}

// groupByLot keeps lots in order of first appearance.
func groupByLot(items []devisdomain.LineItem, lines []devisdomain.LineSummary) []*lotGroup {
	var groups []*lotGroup
	index := map[string]*lotGroup{}
	for i, item := range items {
		if i >= len(lines) {
			break
		}
		key := strings.ToLower(strings.TrimSpace(item.LotName))
		g, ok := index[key]
		if !ok {
			g = &lotGroup{name: item.LotName}
			index[key] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, row{
			kind:        item.Kind,
			label:       item.Label,
			description: strings.TrimSpace(item.Description),
			rooms:       roomNames(item.Rooms),
			line:        lines[i],
		})
		if item.Kind.Priced() {
			g.total += lines[i].TotalExclTax
		}
	}
	return groups
}

func roomNames(rooms []devisdomain.Room) string {
	names := make([]string, 0, len(rooms))
	for _, r := range rooms {
		if r.Selected {
			names = append(names, r.Name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return "Pièces : " + strings.Join(names, ", ")
}

func joinText(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " · ")
}
