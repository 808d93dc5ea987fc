package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"vendas/internal/charts"
	applog "vendas/internal/log"
	"vendas/internal/services"
)

// handleIndex renders the full dashboard page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.serveDashboardHTML(w, r, "index.html")
}

// handleChartsPartial renders the chart grid swapped in by HTMX when the
// month or view changes.
func (s *Server) handleChartsPartial(w http.ResponseWriter, r *http.Request) {
	s.serveDashboardHTML(w, r, "charts")
}

func (s *Server) serveDashboardHTML(w http.ResponseWriter, r *http.Request, name string) {
	logger := applog.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			applog.FieldComponent, applog.ComponentTemplate)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	params, err := ParseDashboardParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	d, err := s.dashboard(r.Context(), params)
	if err != nil {
		s.dashboardError(r, params, err).Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.pagesServed, 1)

	page := newDashboardPage(d, params, s.dataset.Status())
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, page); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed",
			applog.FieldError, err,
			"template", name)
		InternalServerError("Erro ao montar o painel").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(buf.String()).Write(w)
}

// handleChartSVG renders one chart of the requested month as SVG.
func (s *Server) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	id, err := ParseChartFile(r.PathValue("file"))
	if err != nil {
		NotFoundError("Gráfico não encontrado").Write(w)
		return
	}
	params, err := ParseDashboardParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	d, err := s.dashboard(r.Context(), params)
	if err != nil {
		s.dashboardError(r, params, err).Write(w)
		return
	}
	c, ok := d.Chart(id)
	if !ok {
		NotFoundError("Gráfico não encontrado").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderSVG(c, &buf); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Chart render failed",
			applog.FieldError, err,
			applog.FieldChartID, id,
			applog.FieldOperation, applog.OpRender)
		InternalServerError("Erro ao desenhar o gráfico").Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.chartsRendered, 1)

	cacheControl := "no-cache"
	if r.URL.Query().Has("v") {
		cacheControl = "public, max-age=300"
	}
	NewHTMXResponse().
		Header("Content-Type", "image/svg+xml").
		Header("Cache-Control", cacheControl).
		Body(buf.Bytes()).
		Write(w)
}

type monthsResponse struct {
	Months  []string `json:"months"`
	Default string   `json:"default"`
}

// handleMonths lists the selectable months, oldest first.
func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	months, err := s.dataset.Months()
	if err != nil {
		s.dashboardJSONError(r, nil, err).Write(w)
		return
	}

	resp := monthsResponse{Months: make([]string, len(months))}
	for i, m := range months {
		resp.Months[i] = m.String()
	}
	if len(resp.Months) > 0 {
		resp.Default = resp.Months[0]
	}
	NewHTMXResponse().BodyJSON(resp).Write(w)
}

type dashboardResponse struct {
	Month   string   `json:"month"`
	Months  []string `json:"months"`
	Version uint64   `json:"version"`
	charts.Dashboard
}

// handleDashboardJSON returns the chart data of a month.
func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	params, err := ParseDashboardParams(r.URL.Query())
	if err != nil {
		JSONError(http.StatusBadRequest, err.Error()).Write(w)
		return
	}

	d, err := s.dashboard(r.Context(), params)
	if err != nil {
		s.dashboardJSONError(r, &params, err).Write(w)
		return
	}

	NewHTMXResponse().BodyJSON(dashboardResponse{
		Month:     d.MonthLabel(),
		Months:    d.MonthLabels(),
		Version:   s.dataset.Status().Version,
		Dashboard: d,
	}).Write(w)
}

func (s *Server) dashboard(ctx context.Context, params DashboardParams) (charts.Dashboard, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()
	return s.dataset.Dashboard(ctx, params.Month, params.View)
}

func (s *Server) dashboardError(r *http.Request, params DashboardParams, err error) *HTMXResponseBuilder {
	if errors.Is(err, services.ErrNotLoaded) {
		return ServiceUnavailableError("Os dados de vendas ainda não foram carregados.")
	}
	logDashboardError(r, &params, err)
	return InternalServerError("Erro ao montar o painel")
}

// dashboardJSONError maps err for the JSON API. params is nil for requests
// that are not about one dashboard.
func (s *Server) dashboardJSONError(r *http.Request, params *DashboardParams, err error) *HTMXResponseBuilder {
	if errors.Is(err, services.ErrNotLoaded) {
		return JSONError(http.StatusServiceUnavailable, err.Error()).Header("Retry-After", "30")
	}
	logDashboardError(r, params, err)
	return JSONError(http.StatusInternalServerError, "internal error")
}

func logDashboardError(r *http.Request, params *DashboardParams, err error) {
	fields := applog.NewFields()
	if params != nil {
		month := ""
		if !params.Month.IsZero() {
			month = params.Month.String()
		}
		fields.WithDashboard(month, string(params.View))
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogError(r.Context(), "Dashboard build failed", err, applog.ComponentHTTP, applog.OpRender, fields)
}
