package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"vendas/internal/amqp"
	"vendas/internal/backend"
	"vendas/internal/cache"
	"vendas/internal/charts"
	"vendas/internal/cli"
	apphttp "vendas/internal/http"
	applog "vendas/internal/log"
	"vendas/internal/scheduler"
	"vendas/internal/services"
	"vendas/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	appLogger := applog.New(applog.Config{Component: applog.ComponentApp, Handler: logger.Handler()})

	sourceCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid data source configuration", "error", err)
		os.Exit(1)
	}
	src, err := backend.NewFactory(logger).CreateSource(context.Background(), sourceCfg)
	if err != nil {
		logger.Error("Failed to initialize data source", "error", err, "source", cfg.DataSource)
		os.Exit(1)
	}
	defer src.Close()

	dashboards := cache.NewLRUCache[charts.Dashboard](cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(dashboards)

	dataset := services.NewDatasetService(src.Source, dashboards)

	// The dashboard has nothing to show without data: a failed first load is fatal.
	loadCtx, loadCancel := context.WithTimeout(context.Background(), cfg.ReloadTimeout)
	st, err := dataset.Load(loadCtx)
	loadCancel()
	if err != nil {
		logger.Error("Failed to load sales data", "error", err, "source", src.Source.Name())
		os.Exit(1)
	}
	applog.NewStructuredLogger(appLogger.WithComponent(applog.ComponentDataset)).
		LogDatasetLoaded(context.Background(), st.Source, st.Records, st.Skipped, st.Version)

	srv := apphttp.NewServer(":"+cfg.Port, dataset, apphttp.ServerConfig{
		Logger:         appLogger,
		CacheStats:     dashboards.Stats,
		ReloadTimeout:  cfg.ReloadTimeout,
		TrustedProxies: cfg.TrustedProxies,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	reloads := worker.NewReloadWorker(dataset)

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	var sched *scheduler.Scheduler
	if cfg.ReloadSchedule != "" {
		sched, err = scheduler.New(cfg.ReloadSchedule, reloads.Reload, cfg.ReloadTimeout,
			logger.With(applog.FieldComponent, applog.ComponentScheduler))
		if err != nil {
			logger.Error("Failed to create reload scheduler", "error", err)
			os.Exit(1)
		}
	}

	ctx := cli.GracefulShutdown(logger, nil)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting vendas server",
			"port", cfg.Port,
			"source", cfg.DataSource,
			"records", st.Records,
			"amqp", cfg.AMQPEnabled(),
			"schedule", cfg.ReloadSchedule)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		cacheManager.Run(gctx, time.Minute)
		return nil
	})

	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeDatasetReloaded(gctx, reloads.HandleReloadMessage)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if sched != nil {
		g.Go(func() error {
			return sched.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
