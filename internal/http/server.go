package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"vendas/internal/cache"
	"vendas/internal/charts"
	"vendas/internal/core"
	applog "vendas/internal/log"
	"vendas/internal/middleware/ratelimit"
	"vendas/internal/middleware/security"
	"vendas/internal/middleware/trace"
	"vendas/internal/services"
	appweb "vendas/web"
)

// Dataset is what the handlers need from services.DatasetService.
type Dataset interface {
	Load(ctx context.Context) (services.Status, error)
	Status() services.Status
	Ready() bool
	Months() ([]core.Month, error)
	Dashboard(ctx context.Context, month core.Month, view charts.View) (charts.Dashboard, error)
}

// ServerConfig holds the optional server settings.
type ServerConfig struct {
	Logger *applog.Logger
	// CacheStats reports the dashboard cache on /metrics and /readyz.
	CacheStats func() cache.Stats
	// ReloadsPerMinute limits POST /admin/reload per client.
	ReloadsPerMinute int
	// RequestTimeout bounds dashboard building per request.
	RequestTimeout time.Duration
	// ReloadTimeout bounds POST /admin/reload. It must stay below the
	// server write timeout.
	ReloadTimeout time.Duration
	// TrustedProxies are CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string
}

type appMetrics struct {
	uptime         time.Time
	pagesServed    int64
	chartsRendered int64
	reloads        int64
	reloadFailures int64
}

type Server struct {
	http.Server
	templates *template.Template
	dataset   Dataset
	logger    *applog.Logger
	config    ServerConfig

	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, dataset Dataset, cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = applog.New(applog.DefaultConfig())
	}
	if cfg.ReloadsPerMinute <= 0 {
		cfg.ReloadsPerMinute = 6
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.ReloadTimeout <= 0 || cfg.ReloadTimeout > 25*time.Second {
		cfg.ReloadTimeout = 25 * time.Second
	}

	mux := http.NewServeMux()
	detector := security.NewDetector()
	s := &Server{
		dataset:          dataset,
		logger:           cfg.Logger.WithComponent(applog.ComponentHTTP),
		config:           cfg,
		securityDetector: detector,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.ReloadsPerMinute}),
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, cfg.Logger),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", applog.FieldError, err, "cidr", cidr)
		}
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/charts", s.handleChartsPartial)
	mux.HandleFunc("GET /charts/{file}", s.handleChartSVG)
	mux.HandleFunc("GET /api/months", s.handleMonths)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboardJSON)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	onLimit := func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).
			Warn("Reload rate limit exceeded", applog.FieldClientIP, detector.ExtractClientIP(r))
		TooManyRequestsError("Muitas recargas. Tente novamente em instantes.").Write(w)
	}
	reload := s.rateLimiter.Middleware(detector.ExtractClientIP, onLimit)(http.HandlerFunc(s.handleReload))
	mux.Handle("POST /admin/reload", applog.ComponentMiddleware(applog.ComponentDataset)(reload))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = applog.RequestIDMiddleware(trace.RequestID)(handler)
	handler = applog.Middleware(s.logger)(handler)
	handler = headers.Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
