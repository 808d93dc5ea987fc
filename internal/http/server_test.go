package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"vendas/internal/charts"
	"vendas/internal/core"
	applog "vendas/internal/log"
	"vendas/internal/services"
)

type fakeDataset struct {
	mu      sync.Mutex
	table   core.Table
	loaded  bool
	version uint64
	loadErr error
	dashErr error
}

func (f *fakeDataset) Load(ctx context.Context) (services.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return services.Status{}, f.loadErr
	}
	f.loaded = true
	f.version++
	return f.status(), nil
}

func (f *fakeDataset) Status() services.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status()
}

func (f *fakeDataset) status() services.Status {
	return services.Status{
		Loaded:  f.loaded,
		Source:  "file:test.csv",
		Version: f.version,
		Stats:   f.table.Stats(),
	}
}

func (f *fakeDataset) Ready() bool { return f.Status().Loaded }

func (f *fakeDataset) Months() ([]core.Month, error) {
	d, err := f.Dashboard(context.Background(), core.Month{}, charts.ViewDaily)
	if err != nil {
		return nil, err
	}
	return d.Months, nil
}

func (f *fakeDataset) Dashboard(ctx context.Context, month core.Month, view charts.View) (charts.Dashboard, error) {
	if !f.Ready() {
		return charts.Dashboard{}, services.ErrNotLoaded
	}
	f.mu.Lock()
	dashErr := f.dashErr
	f.mu.Unlock()
	if dashErr != nil {
		return charts.Dashboard{}, dashErr
	}
	return charts.Build(f.table, month, view)
}

func salesTable() core.Table {
	row := core.NormalizeRow
	return core.Table{Records: []core.SalesRecord{
		row("01/05/2024", "Yangon", "Health and beauty", "Ewallet", "100,50", "9"),
		row("01/05/2024", "Mandalay", "Food and beverages", "Cash", "20", "7"),
		row("01/12/2024", "Naypyitaw", "Food and beverages", "Cash", "30", "6"),
		row("02/01/2024", "Mandalay", "Sports and travel", "Ewallet", "10", "4"),
		row("03/09/2024", "Yangon", "Sports and travel", "Cash", "0", "0"),
	}}
}

func newTestServer(t *testing.T, loaded bool) (*Server, *fakeDataset) {
	t.Helper()
	ds := &fakeDataset{table: salesTable()}
	if loaded {
		if _, err := ds.Load(context.Background()); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	srv := NewServer(":0", ds, ServerConfig{ReloadsPerMinute: 2})
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	if srv.templates == nil {
		t.Fatalf("templates not parsed")
	}
	return srv, ds
}

func do(srv *Server, method, target string, header map[string]string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rr := do(srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{
		"Dashboard de Vendas",
		"janeiro de 2024",
		"fevereiro de 2024",
		"/charts/faturamento-diario.svg?",
		"/charts/avaliacao-cidade.svg?",
		"Mandalay",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("missing X-Request-ID header")
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Errorf("missing security headers")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestNotLoaded(t *testing.T) {
	srv, _ := newTestServer(t, false)

	for _, path := range []string{"/", "/ui/charts", "/api/months", "/api/dashboard", "/charts/faturamento-cidade.svg", "/readyz"} {
		rr := do(srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, rr.Code)
		}
	}
	if rr := do(srv, http.MethodGet, "/healthz", nil); rr.Code != http.StatusOK {
		t.Errorf("healthz should stay live, got %d", rr.Code)
	}
}

func TestChartsPartial(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rr := do(srv, http.MethodGet, "/ui/charts?month=2024-02&view=weekly", map[string]string{"HX-Request": "true"})
	if rr.Code != http.StatusOK {
		t.Fatalf("partial status=%d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "<html") {
		t.Errorf("partial should not render the full page")
	}
	if !strings.Contains(body, "fevereiro de 2024") {
		t.Errorf("partial missing selected month")
	}
	if !strings.Contains(body, "view=weekly") {
		t.Errorf("chart URLs should carry the view")
	}
}

func TestEmptyMonthPlaceholder(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rr := do(srv, http.MethodGet, "/ui/charts?month=2024-03", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Sem dados para o período selecionado") {
		t.Errorf("empty month should show the placeholder")
	}
}

func TestBadParameters(t *testing.T) {
	srv, _ := newTestServer(t, true)

	cases := map[string]int{
		"/?month=2024-13":                       http.StatusBadRequest,
		"/?view=hourly":                         http.StatusBadRequest,
		"/api/dashboard?month=jan":              http.StatusBadRequest,
		"/charts/desconhecido.svg":              http.StatusNotFound,
		"/charts/faturamento-cidade.png":        http.StatusNotFound,
		"/charts/faturamento-cidade.svg?view=x": http.StatusBadRequest,
	}
	for path, want := range cases {
		if rr := do(srv, http.MethodGet, path, nil); rr.Code != want {
			t.Errorf("%s: expected %d, got %d", path, want, rr.Code)
		}
	}

	// an absent but well-formed month falls back to the first one
	rr := do(srv, http.MethodGet, "/?month=1999-05", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "janeiro de 2024") {
		t.Errorf("fallback month: status=%d", rr.Code)
	}
}

func TestChartSVG(t *testing.T) {
	srv, _ := newTestServer(t, true)

	for _, id := range charts.IDs {
		rr := do(srv, http.MethodGet, "/charts/"+string(id)+".svg?month=2024-01&v=1", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", id, rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "image/svg+xml" {
			t.Errorf("%s content-type=%q", id, ct)
		}
		if !strings.Contains(rr.Body.String(), "<svg") {
			t.Errorf("%s body is not svg", id)
		}
		if cc := rr.Header().Get("Cache-Control"); !strings.Contains(cc, "max-age") {
			t.Errorf("%s versioned chart should be cacheable, got %q", id, cc)
		}
	}

	rr := do(srv, http.MethodGet, "/charts/faturamento-cidade.svg", nil)
	if cc := rr.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("unversioned chart cache-control=%q", cc)
	}
}

func TestJSONAPI(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rr := do(srv, http.MethodGet, "/api/months", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("months status=%d", rr.Code)
	}
	var months monthsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &months); err != nil {
		t.Fatalf("decode months: %v", err)
	}
	if strings.Join(months.Months, ",") != "2024-01,2024-02,2024-03" || months.Default != "2024-01" {
		t.Errorf("unexpected months %+v", months)
	}

	rr = do(srv, http.MethodGet, "/api/dashboard?month=2024-02&view=weekly", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	var got struct {
		Month   string         `json:"month"`
		Version uint64         `json:"version"`
		View    string         `json:"view"`
		Charts  []charts.Chart `json:"charts"`
		Summary charts.Summary `json:"summary"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if got.Month != "2024-02" || got.View != "weekly" || got.Version != 1 {
		t.Errorf("unexpected dashboard header %+v", got)
	}
	if len(got.Charts) != len(charts.IDs) {
		t.Errorf("expected %d charts, got %d", len(charts.IDs), len(got.Charts))
	}
	if got.Summary.Records != 1 {
		t.Errorf("expected 1 record in february, got %d", got.Summary.Records)
	}
}

func TestReload(t *testing.T) {
	srv, ds := newTestServer(t, true)

	rr := do(srv, http.MethodPost, "/admin/reload", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("reload status=%d", rr.Code)
	}
	var st services.Status
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.Version != 2 || !st.Loaded {
		t.Errorf("unexpected status %+v", st)
	}

	rr = do(srv, http.MethodPost, "/admin/reload", map[string]string{"HX-Request": "true"})
	if rr.Code != http.StatusOK {
		t.Fatalf("htmx reload status=%d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "dataset:reloaded") {
		t.Errorf("missing reload trigger, got %q", rr.Header().Get("HX-Trigger"))
	}

	// third reload in the same minute exceeds the limit of two
	rr = do(srv, http.MethodPost, "/admin/reload", nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Errorf("missing Retry-After")
	}

	if rr := do(srv, http.MethodGet, "/admin/reload", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET reload: expected 405, got %d", rr.Code)
	}
	if ds.Status().Version != 3 {
		t.Errorf("expected version 3, got %d", ds.Status().Version)
	}
}

func TestReloadFailureKeepsServing(t *testing.T) {
	srv, ds := newTestServer(t, true)
	ds.mu.Lock()
	ds.loadErr = errors.New("source unavailable")
	ds.mu.Unlock()

	rr := do(srv, http.MethodPost, "/admin/reload", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if rr := do(srv, http.MethodGet, "/", nil); rr.Code != http.StatusOK {
		t.Errorf("previous table should still be served, got %d", rr.Code)
	}

	rr = do(srv, http.MethodGet, "/metrics", nil)
	if !strings.Contains(rr.Body.String(), "dataset_reload_failures_total 1") {
		t.Errorf("metrics missing reload failure:\n%s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "dashboard_pages_total 1") {
		t.Errorf("metrics missing page count")
	}
}

func newLoggedServer(t *testing.T, cfg ServerConfig) (*Server, *fakeDataset, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg.Logger = applog.New(applog.Config{
		Component: applog.ComponentApp,
		Handler:   slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
	ds := &fakeDataset{table: salesTable()}
	if _, err := ds.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	srv := NewServer(":0", ds, cfg)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, ds, &buf
}

func TestDashboardFailureLogged(t *testing.T) {
	srv, ds, buf := newLoggedServer(t, ServerConfig{})
	ds.mu.Lock()
	ds.dashErr = errors.New("aggregation exploded")
	ds.mu.Unlock()

	rr := do(srv, http.MethodGet, "/api/dashboard?month=2024-01&view=weekly", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	requestID := rr.Header().Get("X-Request-ID")

	out := buf.String()
	for _, want := range []string{
		`msg="Dashboard build failed"`,
		"month=2024-01",
		"view=weekly",
		"operation=render",
		`error="aggregation exploded"`,
		"request_id=" + requestID,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log output:\n%s", want, out)
		}
	}

	buf.Reset()
	if rr := do(srv, http.MethodGet, "/?month=2024-02", nil); rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for page, got %d", rr.Code)
	}
	if !strings.Contains(buf.String(), "month=2024-02") {
		t.Errorf("page failure should log the month:\n%s", buf.String())
	}
}

func TestReloadLogsDatasetComponent(t *testing.T) {
	srv, ds, buf := newLoggedServer(t, ServerConfig{})
	ds.mu.Lock()
	ds.loadErr = errors.New("source unavailable")
	ds.mu.Unlock()

	if rr := do(srv, http.MethodPost, "/admin/reload", nil); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, "Dataset reload failed") {
			line = l
		}
	}
	if !strings.Contains(line, "component=dataset") {
		t.Errorf("reload failure should be tagged with the dataset component, got %q", line)
	}
}

func TestTrustedProxiesFromConfig(t *testing.T) {
	srv, _, buf := newLoggedServer(t, ServerConfig{TrustedProxies: []string{"203.0.113.0/24", "not-a-cidr"}})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.23")
	if got := srv.securityDetector.ExtractClientIP(r); got != "198.51.100.23" {
		t.Errorf("ExtractClientIP() = %q, want forwarded address", got)
	}

	r.RemoteAddr = "198.18.0.1:443"
	if got := srv.securityDetector.ExtractClientIP(r); got != "198.18.0.1" {
		t.Errorf("ExtractClientIP() = %q, untrusted peer must not be overridden", got)
	}

	if !strings.Contains(buf.String(), "Ignoring trusted proxy") {
		t.Errorf("invalid CIDR should be logged:\n%s", buf.String())
	}
}
