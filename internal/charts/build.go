package charts

import (
	"fmt"
	"sort"
	"time"

	"vendas/internal/aggregate"
	"vendas/internal/core"
)

// Build assembles the dashboard for want (zero selects the first month).
// A month that is not among the options falls back to the first one.
func Build(t core.Table, want core.Month, view View) (Dashboard, error) {
	months := aggregate.MonthOptions(t)
	month, _ := aggregate.SelectMonth(months, want)

	d := Dashboard{Month: month, Months: months, View: view}
	records := aggregate.FilterMonth(t, month).Records

	overTime, err := revenueOverTime(records, view)
	if err != nil {
		return Dashboard{}, err
	}
	colors := newColorMap(overTime.cities)

	byProduct, err := revenueByProductLine(records, colors)
	if err != nil {
		return Dashboard{}, err
	}
	byCity, err := cityBars(records, colors, aggregate.MeasureTotal)
	if err != nil {
		return Dashboard{}, err
	}
	payment, err := paymentShare(records)
	if err != nil {
		return Dashboard{}, err
	}
	rating, err := cityBars(records, colors, aggregate.MeasureRating)
	if err != nil {
		return Dashboard{}, err
	}

	d.Charts = []Chart{overTime.chart, byProduct, byCity, payment, rating}
	d.Summary = summarize(records)
	d.Empty = true
	for _, c := range d.Charts {
		if !c.Empty {
			d.Empty = false
			break
		}
	}
	return d, nil
}

type overTimeChart struct {
	chart  Chart
	cities []string
}

func revenueOverTime(records []core.SalesRecord, view View) (overTimeChart, error) {
	key, title, xLabel := aggregate.KeyDate, TitleRevenueByDay, LabelDate
	if view == ViewWeekly {
		key, title, xLabel = aggregate.KeyWeek, TitleRevenueByWeek, LabelWeek
	}

	res, err := aggregate.Aggregate(records, aggregate.By(key, aggregate.KeyCity))
	if err != nil {
		return overTimeChart{}, fmt.Errorf("revenue over time: %w", err)
	}

	cities := res.Distinct(1)
	keys := res.Distinct(0)
	sort.Strings(keys)

	c := Chart{
		ID:          ChartRevenueByDay,
		Kind:        KindStackedBar,
		Title:       title,
		XLabel:      xLabel,
		YLabel:      LabelTotal,
		LegendTitle: LabelCity,
		Categories:  make([]string, len(keys)),
	}
	labels := make(map[string]string, len(keys))
	for i, k := range keys {
		labels[k] = categoryLabel(k)
		c.Categories[i] = labels[k]
	}

	for i, city := range cities {
		s := Series{Name: city, Color: ColorAt(i)}
		for _, k := range keys {
			if g, ok := res.Lookup(k, city); ok {
				s.Points = append(s.Points, Point{Category: labels[k], Value: g.Sum.InexactFloat64()})
			}
		}
		c.Series = append(c.Series, s)
	}
	c.Empty = isEmpty(c)
	return overTimeChart{chart: c, cities: cities}, nil
}

func revenueByProductLine(records []core.SalesRecord, colors *colorMap) (Chart, error) {
	res, err := aggregate.Aggregate(records, aggregate.By(aggregate.KeyProductLine, aggregate.KeyCity))
	if err != nil {
		return Chart{}, fmt.Errorf("revenue by product line: %w", err)
	}

	c := Chart{
		ID:          ChartRevenueByProductLine,
		Kind:        KindStackedBar,
		Title:       TitleRevenueByProductLine,
		XLabel:      LabelProductLine,
		YLabel:      LabelRevenue,
		LegendTitle: LabelCity,
		Categories:  res.Distinct(0),
	}
	for _, city := range colors.order(res.Distinct(1)) {
		s := Series{Name: city, Color: colors.color(city)}
		for _, product := range c.Categories {
			if g, ok := res.Lookup(product, city); ok {
				s.Points = append(s.Points, Point{Category: product, Value: g.Sum.InexactFloat64()})
			}
		}
		c.Series = append(c.Series, s)
	}
	c.Empty = isEmpty(c)
	return c, nil
}

// cityBars draws one bar per city, coloured like the city's series elsewhere.
func cityBars(records []core.SalesRecord, colors *colorMap, measure aggregate.Measure) (Chart, error) {
	res, err := aggregate.Aggregate(records, aggregate.By(aggregate.KeyCity).Sum(measure))
	if err != nil {
		return Chart{}, fmt.Errorf("%s by city: %w", measure, err)
	}

	c := Chart{
		ID:          ChartRevenueByCity,
		Kind:        KindBar,
		Title:       TitleRevenueByCity,
		XLabel:      LabelCity,
		YLabel:      LabelRevenue,
		CompactAxis: true,
	}
	if measure == aggregate.MeasureRating {
		c.ID, c.Title, c.YLabel, c.CompactAxis = ChartRatingByCity, TitleRatingByCity, LabelRating, false
	}

	shares := res.Shares()
	share := make(map[string]float64, len(shares))
	for i, g := range res.Groups {
		share[g.Key(0)] = shares[i]
	}

	for _, city := range colors.order(res.Distinct(0)) {
		g, _ := res.Lookup(city)
		p := Point{Category: city, Value: g.Sum.InexactFloat64()}
		if measure == aggregate.MeasureRating {
			p.Share = share[city]
			p.Label = Percent(p.Share)
		}
		c.Categories = append(c.Categories, city)
		c.Series = append(c.Series, Series{Name: city, Color: colors.color(city), Points: []Point{p}})
	}
	c.Empty = isEmpty(c)
	return c, nil
}

func paymentShare(records []core.SalesRecord) (Chart, error) {
	res, err := aggregate.Aggregate(records, aggregate.By(aggregate.KeyPayment))
	if err != nil {
		return Chart{}, fmt.Errorf("payment share: %w", err)
	}

	c := Chart{
		ID:    ChartPaymentShare,
		Kind:  KindPie,
		Title: TitlePaymentShare,
	}
	shares := res.Shares()
	for i, g := range res.Groups {
		payment := g.Key(0)
		c.Categories = append(c.Categories, payment)
		c.Series = append(c.Series, Series{
			Name:  payment,
			Color: ColorAt(i),
			Points: []Point{{
				Category: payment,
				Value:    g.Sum.InexactFloat64(),
				Share:    shares[i],
				Label:    Percent(shares[i]),
			}},
		})
	}
	c.Empty = res.Total.IsZero()
	return c, nil
}

func summarize(records []core.SalesRecord) Summary {
	month := core.Table{Records: records}
	revenue := month.RevenueTotal()
	cities := make(map[string]bool)
	for _, r := range records {
		cities[r.City] = true
	}
	return Summary{
		Records:      len(records),
		Revenue:      revenue,
		RevenueLabel: Money(revenue),
		Cities:       len(cities),
	}
}

// categoryLabel turns an aggregate date key into a display label.
func categoryLabel(key string) string {
	t, err := time.Parse(aggregate.KeyLayout, key)
	if err != nil {
		return key
	}
	return t.Format(CategoryLayout)
}

// isEmpty reports whether no point carries a positive value.
func isEmpty(c Chart) bool {
	for _, s := range c.Series {
		for _, p := range s.Points {
			if p.Value > 0 {
				return false
			}
		}
	}
	return true
}

// colorMap assigns each city a palette colour by its first-seen index, so a
// city keeps its colour across charts.
type colorMap struct {
	index map[string]int
	names []string
}

func newColorMap(cities []string) *colorMap {
	m := &colorMap{index: make(map[string]int, len(cities))}
	for _, c := range cities {
		m.add(c)
	}
	return m
}

func (m *colorMap) add(city string) int {
	if i, ok := m.index[city]; ok {
		return i
	}
	i := len(m.names)
	m.index[city] = i
	m.names = append(m.names, city)
	return i
}

func (m *colorMap) color(city string) string {
	return ColorAt(m.add(city))
}

// order returns present sorted by colour index. Cities unseen so far are
// registered in their discovery order.
func (m *colorMap) order(present []string) []string {
	for _, c := range present {
		m.add(c)
	}
	out := append([]string(nil), present...)
	sort.SliceStable(out, func(i, j int) bool {
		return m.index[out[i]] < m.index[out[j]]
	})
	return out
}
