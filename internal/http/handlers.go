package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	applog "vendas/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().BodyJSON(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}).Write(w)
}

// handleReady reports ready once templates are parsed and a table is loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	ds := s.dataset.Status()
	if !s.dataset.Ready() {
		checks["dataset"] = map[string]interface{}{"status": "not_loaded", "source": ds.Source}
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["dataset"] = map[string]interface{}{
			"status":    "ok",
			"source":    ds.Source,
			"version":   ds.Version,
			"records":   ds.Records,
			"loaded_at": ds.LoadedAt.Format(time.RFC3339),
		}
	}

	if s.config.CacheStats != nil {
		st := s.config.CacheStats()
		checks["cache"] = map[string]interface{}{"entries": st.Size, "status": "ok"}
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewHTMXResponse().Status(httpStatus).BodyJSON(map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleReload re-reads the configured source. A failure keeps the table
// already served.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), s.config.ReloadTimeout)
	defer cancel()

	st, err := s.dataset.Load(ctx)
	if err != nil {
		atomic.AddInt64(&s.appMetrics.reloadFailures, 1)
		logger.ErrorContext(ctx, "Dataset reload failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpReload)
		if isHTMX(r) {
			ServiceUnavailableError("Falha ao recarregar os dados; o painel continua com a versão anterior.").
				TriggerErrorNotification("Falha ao recarregar os dados").
				Write(w)
			return
		}
		JSONError(http.StatusServiceUnavailable, err.Error()).Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.reloads, 1)
	logger.InfoContext(ctx, "Dataset reloaded",
		applog.FieldSource, st.Source,
		applog.FieldRecords, st.Records,
		applog.FieldVersion, st.Version)

	resp := NewHTMXResponse().TriggerDatasetReloaded(st.Version, st.Records)
	if isHTMX(r) {
		resp.TriggerSuccessNotification(fmt.Sprintf("%d registros carregados", st.Records)).
			BodyHTML(`<div class="success">Dados recarregados</div>`).
			Write(w)
		return
	}
	resp.BodyJSON(st).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	ds := s.dataset.Status()

	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value interface{}) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_time_avg_microseconds", "gauge", "Mean response time", traceMetrics.AverageResponseTime)
	metric("dashboard_pages_total", "counter", "Dashboard pages and partials served", atomic.LoadInt64(&s.appMetrics.pagesServed))
	metric("charts_rendered_total", "counter", "Chart images rendered", atomic.LoadInt64(&s.appMetrics.chartsRendered))
	metric("dataset_reloads_total", "counter", "Successful reloads requested over HTTP", atomic.LoadInt64(&s.appMetrics.reloads))
	metric("dataset_reload_failures_total", "counter", "Failed reloads requested over HTTP", atomic.LoadInt64(&s.appMetrics.reloadFailures))
	metric("dataset_version", "gauge", "Version of the served sales table", ds.Version)
	metric("dataset_records", "gauge", "Records in the served sales table", ds.Records)

	if s.config.CacheStats != nil {
		st := s.config.CacheStats()
		metric("cache_hits_total", "counter", "Dashboard cache hits", st.Hits)
		metric("cache_misses_total", "counter", "Dashboard cache misses", st.Misses)
		metric("cache_entries", "gauge", "Current dashboard cache entries", st.Size)
	}

	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.appMetrics.uptime).Seconds()))
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
