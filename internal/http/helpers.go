package http

import (
	"fmt"
	"net/url"
	"time"

	"vendas/internal/charts"
	"vendas/internal/core"
	"vendas/internal/services"
)

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// monthDisplay formats m as "janeiro de 2024".
func monthDisplay(m core.Month) string {
	if m.IsZero() || m.Month < time.January || m.Month > time.December {
		return ""
	}
	return fmt.Sprintf("%s de %d", monthNames[m.Month-1], m.Year)
}

type monthOption struct {
	Value    string
	Label    string
	Selected bool
}

type viewOption struct {
	Value    string
	Label    string
	Selected bool
}

type legendItem struct {
	Name  string
	Color string
}

type chartCard struct {
	ID          charts.ID
	Title       string
	URL         string
	Empty       bool
	LegendTitle string
	Legend      []legendItem
}

// dashboardPage is the template model for the page and the charts partial.
type dashboardPage struct {
	Months     []monthOption
	Views      []viewOption
	MonthLabel string
	Summary    charts.Summary
	Charts     []chartCard
	Empty      bool
	Status     services.Status
	Query      string
}

func newDashboardPage(d charts.Dashboard, params DashboardParams, status services.Status) dashboardPage {
	query := params.Query(d.Month)
	page := dashboardPage{
		MonthLabel: monthDisplay(d.Month),
		Summary:    d.Summary,
		Empty:      d.Empty,
		Status:     status,
		Query:      query.Encode(),
	}

	for _, m := range d.Months {
		page.Months = append(page.Months, monthOption{
			Value:    m.String(),
			Label:    monthDisplay(m),
			Selected: m == d.Month,
		})
	}
	for _, v := range []struct {
		view  charts.View
		label string
	}{{charts.ViewDaily, "Diário"}, {charts.ViewWeekly, "Semanal"}} {
		page.Views = append(page.Views, viewOption{
			Value:    string(v.view),
			Label:    v.label,
			Selected: v.view == d.View,
		})
	}

	for _, c := range d.Charts {
		card := chartCard{
			ID:          c.ID,
			Title:       c.Title,
			URL:         chartURL(c.ID, query, status.Version),
			Empty:       c.Empty,
			LegendTitle: c.LegendTitle,
		}
		if c.Kind == charts.KindStackedBar {
			for _, s := range c.Series {
				card.Legend = append(card.Legend, legendItem{Name: s.Name, Color: s.Color})
			}
		}
		page.Charts = append(page.Charts, card)
	}
	return page
}

// chartURL builds the image URL for a chart. The dataset version makes the
// URL change on reload so cached images are never stale.
func chartURL(id charts.ID, query url.Values, version uint64) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("v", fmt.Sprint(version))
	return "/charts/" + string(id) + ".svg?" + q.Encode()
}
