package charts

import (
	"fmt"
	"html"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	defaultWidth  = 800
	defaultHeight = 480
	pieSize       = 480
	// slotWidth is the horizontal room given to one stacked bar.
	slotWidth = 44
)

// Placeholder is the text shown for a chart without data.
const Placeholder = "Sem dados para o período selecionado"

// RenderSVG writes c as an SVG image. Empty charts render a placeholder.
func RenderSVG(c Chart, w io.Writer) error {
	if c.Empty || len(c.Series) == 0 {
		return renderPlaceholder(c, w)
	}
	var err error
	switch c.Kind {
	case KindStackedBar:
		err = stackedBarChart(c).Render(chart.SVG, w)
	case KindBar:
		err = barChart(c).Render(chart.SVG, w)
	case KindPie:
		err = pieChart(c).Render(chart.SVG, w)
	default:
		return fmt.Errorf("render %s: unknown chart kind %q", c.ID, c.Kind)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", c.ID, err)
	}
	return nil
}

func stackedBarChart(c Chart) chart.StackedBarChart {
	bars := make([]chart.StackedBar, 0, len(c.Categories))
	for _, category := range c.Categories {
		bar := chart.StackedBar{Name: category, Width: slotWidth * 3 / 4}
		for _, s := range c.Series {
			v := s.Value(category)
			if v <= 0 {
				continue
			}
			bar.Values = append(bar.Values, chart.Value{
				Label: s.Name,
				Value: v,
				Style: fill(s.Color),
			})
		}
		if len(bar.Values) > 0 {
			bars = append(bars, bar)
		}
	}

	width := len(bars)*slotWidth + 160
	if width < defaultWidth {
		width = defaultWidth
	}
	return chart.StackedBarChart{
		Title:      c.Title,
		Width:      width,
		Height:     defaultHeight,
		BarSpacing: slotWidth / 4,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.Style{FontSize: 8, TextRotationDegrees: 45},
		YAxis:      chart.Style{FontSize: 9},
		Bars:       bars,
	}
}

func barChart(c Chart) chart.BarChart {
	bars := make([]chart.Value, 0, len(c.Series))
	max := 0.0
	for _, s := range c.Series {
		for _, p := range s.Points {
			label := p.Category
			if p.Label != "" {
				label = fmt.Sprintf("%s (%s)", p.Category, p.Label)
			}
			bars = append(bars, chart.Value{Label: label, Value: p.Value, Style: fill(s.Color)})
			if p.Value > max {
				max = p.Value
			}
		}
	}

	yAxis := chart.YAxis{
		Name:  c.YLabel,
		Range: &chart.ContinuousRange{Min: 0, Max: max * 1.1},
	}
	if c.CompactAxis {
		yAxis.ValueFormatter = func(v interface{}) string {
			if f, ok := v.(float64); ok {
				return CompactNumber(f)
			}
			return fmt.Sprint(v)
		}
	}
	width := len(bars)*80 + 160
	if width < defaultWidth {
		width = defaultWidth
	}
	return chart.BarChart{
		Title:        c.Title,
		Width:        width,
		Height:       defaultHeight,
		BarWidth:     60,
		BarSpacing:   20,
		UseBaseValue: true,
		BaseValue:    0,
		Background:   chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis:        yAxis,
		Bars:         bars,
	}
}

func pieChart(c Chart) chart.PieChart {
	values := make([]chart.Value, 0, len(c.Series))
	palette := seriesPalette{ColorPalette: chart.AlternateColorPalette}
	for _, s := range c.Series {
		for _, p := range s.Points {
			if p.Value <= 0 {
				continue
			}
			values = append(values, chart.Value{
				Label: fmt.Sprintf("%s %s", p.Category, p.Label),
				Value: p.Value,
				Style: fill(s.Color),
			})
			palette.colors = append(palette.colors, hexColor(s.Color))
		}
	}
	return chart.PieChart{
		Title:        c.Title,
		Width:        pieSize,
		Height:       pieSize,
		ColorPalette: palette,
		Values:       values,
	}
}

// seriesPalette hands out slice colours in value order. go-chart draws a
// single-value pie as a circle from the palette, ignoring the value style.
type seriesPalette struct {
	chart.ColorPalette
	colors []drawing.Color
}

func (p seriesPalette) GetSeriesColor(index int) drawing.Color {
	if len(p.colors) == 0 {
		return p.ColorPalette.GetSeriesColor(index)
	}
	return p.colors[index%len(p.colors)]
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func fill(hex string) chart.Style {
	color := hexColor(hex)
	return chart.Style{
		FillColor:   color,
		StrokeColor: color,
		StrokeWidth: 1,
	}
}

func renderPlaceholder(c Chart, w io.Writer) error {
	_, err := fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
		`<rect width="100%%" height="100%%" fill="#ffffff"/>`+
		`<text x="50%%" y="40" text-anchor="middle" font-family="sans-serif" font-size="18">%s</text>`+
		`<text x="50%%" y="50%%" text-anchor="middle" font-family="sans-serif" font-size="14" fill="#888888">%s</text>`+
		`</svg>`,
		defaultWidth, defaultHeight/2, defaultWidth, defaultHeight/2,
		html.EscapeString(c.Title), html.EscapeString(Placeholder))
	return err
}
