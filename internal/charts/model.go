// Package charts turns aggregated sales into chart models and renders them.
//
// Models carry everything a renderer needs: categories, one series per city
// with (category, value) points, a colour from Palette and display labels.
// Renderers consume these values as they are and never aggregate again.
package charts

import (
	"fmt"

	"github.com/shopspring/decimal"

	"vendas/internal/core"
)

// ID identifies one of the dashboard charts.
type ID string

const (
	ChartRevenueByDay         ID = "faturamento-diario"
	ChartRevenueByProductLine ID = "faturamento-produto"
	ChartRevenueByCity        ID = "faturamento-cidade"
	ChartPaymentShare         ID = "faturamento-pagamento"
	ChartRatingByCity         ID = "avaliacao-cidade"
)

// IDs lists the charts in page order.
var IDs = []ID{
	ChartRevenueByDay,
	ChartRevenueByProductLine,
	ChartRevenueByCity,
	ChartPaymentShare,
	ChartRatingByCity,
}

// ParseID validates a chart identifier.
func ParseID(s string) (ID, error) {
	for _, id := range IDs {
		if string(id) == s {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown chart %q", s)
}

// Kind selects how a chart is drawn.
type Kind string

const (
	KindStackedBar Kind = "stacked-bar"
	KindBar        Kind = "bar"
	KindPie        Kind = "pie"
)

// View selects the time bucket of the revenue-over-time chart.
type View string

const (
	ViewDaily  View = "daily"
	ViewWeekly View = "weekly"
)

// ParseView maps a query value to a View. Empty input selects ViewDaily.
func ParseView(s string) (View, error) {
	switch View(s) {
	case "", ViewDaily:
		return ViewDaily, nil
	case ViewWeekly:
		return ViewWeekly, nil
	}
	return ViewDaily, fmt.Errorf("unknown view %q", s)
}

// Palette holds the series colours, applied cyclically by series index.
var Palette = []string{"#B3E5FC", "#2196F3", "#FFA07A"}

// ColorAt returns the palette colour for series index i.
func ColorAt(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// Display labels.
const (
	TitleRevenueByDay         = "Faturamento Diário"
	TitleRevenueByWeek        = "Faturamento Semanal"
	TitleRevenueByProductLine = "Faturamento por Tipo de Produto"
	TitleRevenueByCity        = "Faturamento por cidade"
	TitlePaymentShare         = "Faturamento por Tipo de Pagamento"
	TitleRatingByCity         = "Avaliação Média"

	LabelDate        = "Data"
	LabelWeek        = "Semana"
	LabelTotal       = "Total"
	LabelProductLine = "Tipo de Produto"
	LabelRevenue     = "Faturamento Total"
	LabelCity        = "Cidade"
	LabelRating      = "Rating"

	// CategoryLayout formats date and week categories.
	CategoryLayout = "02/01/2006"
)

type (
	// Point is one (category, value) pair. Share is the percentage of the
	// chart total and is only filled for share charts.
	Point struct {
		Category string  `json:"category"`
		Value    float64 `json:"value"`
		Share    float64 `json:"share,omitempty"`
		Label    string  `json:"label,omitempty"`
	}

	// Series groups the points of one legend entry.
	Series struct {
		Name   string  `json:"name"`
		Color  string  `json:"color"`
		Points []Point `json:"points"`
	}

	// Chart is a renderer-ready model.
	Chart struct {
		ID          ID       `json:"id"`
		Kind        Kind     `json:"kind"`
		Title       string   `json:"title"`
		XLabel      string   `json:"x_label,omitempty"`
		YLabel      string   `json:"y_label,omitempty"`
		LegendTitle string   `json:"legend_title,omitempty"`
		Categories  []string `json:"categories"`
		Series      []Series `json:"series"`
		// CompactAxis asks renderers to format the value axis with K/M suffixes.
		CompactAxis bool `json:"compact_axis,omitempty"`
		Empty       bool `json:"empty"`
	}

	// Summary is the header shown above the charts.
	Summary struct {
		Records      int             `json:"records"`
		Revenue      decimal.Decimal `json:"revenue"`
		RevenueLabel string          `json:"revenue_label"`
		Cities       int             `json:"cities"`
	}

	// Dashboard is the full page model for one month and view.
	Dashboard struct {
		Month   core.Month   `json:"-"`
		Months  []core.Month `json:"-"`
		View    View         `json:"view"`
		Summary Summary      `json:"summary"`
		Charts  []Chart      `json:"charts"`
		Empty   bool         `json:"empty"`
	}
)

// Value returns the value of category in the series, or 0 when absent.
func (s Series) Value(category string) float64 {
	for _, p := range s.Points {
		if p.Category == category {
			return p.Value
		}
	}
	return 0
}

// Chart returns the chart with the given id.
func (d Dashboard) Chart(id ID) (Chart, bool) {
	for _, c := range d.Charts {
		if c.ID == id {
			return c, true
		}
	}
	return Chart{}, false
}

// MonthLabel returns the selected month as "YYYY-MM", or "" when none.
func (d Dashboard) MonthLabel() string {
	if d.Month.IsZero() {
		return ""
	}
	return d.Month.String()
}

// MonthLabels returns the selectable months as "YYYY-MM".
func (d Dashboard) MonthLabels() []string {
	out := make([]string, len(d.Months))
	for i, m := range d.Months {
		out[i] = m.String()
	}
	return out
}
