// Package http provides HTTP server and handler implementations.
//
// This file parses the dashboard query parameters shared by the page, the
// HTMX partial, the chart images and the JSON API.

package http

import (
	"fmt"
	"net/url"
	"strings"

	"vendas/internal/charts"
	"vendas/internal/core"
)

// DashboardParams holds the month and view requested by a client. A zero
// Month selects the first available month.
type DashboardParams struct {
	Month core.Month
	View  charts.View
}

// ParseDashboardParams reads "month" (YYYY-MM) and "view" (daily|weekly).
// Missing values take their defaults; malformed values are errors.
func ParseDashboardParams(query url.Values) (DashboardParams, error) {
	var params DashboardParams

	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := core.ParseMonth(v)
		if err != nil {
			return DashboardParams{}, fmt.Errorf("parâmetro month inválido %q: use AAAA-MM", v)
		}
		params.Month = m
	}

	view, err := charts.ParseView(strings.TrimSpace(query.Get("view")))
	if err != nil {
		return DashboardParams{}, fmt.Errorf("parâmetro view inválido: use daily ou weekly")
	}
	params.View = view

	return params, nil
}

// Query encodes p for links using the month actually served, which differs
// from p.Month when the request fell back to the default.
func (p DashboardParams) Query(served core.Month) url.Values {
	q := url.Values{}
	if !served.IsZero() {
		q.Set("month", served.String())
	}
	q.Set("view", string(p.View))
	return q
}

// ParseChartFile maps "faturamento-cidade.svg" to its chart ID.
func ParseChartFile(file string) (charts.ID, error) {
	name, ok := strings.CutSuffix(file, ".svg")
	if !ok {
		return "", fmt.Errorf("unsupported chart format %q", file)
	}
	return charts.ParseID(name)
}
