package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/medfront/clinicdesk/internal/api/router"
	"github.com/medfront/clinicdesk/internal/billing"
	"github.com/medfront/clinicdesk/internal/catalog"
	"github.com/medfront/clinicdesk/internal/clock"
	appconfig "github.com/medfront/clinicdesk/internal/config"
	"github.com/medfront/clinicdesk/internal/events"
	"github.com/medfront/clinicdesk/internal/observability/metrics"
	"github.com/medfront/clinicdesk/internal/patients"
	"github.com/medfront/clinicdesk/internal/prescriptions"
	"github.com/medfront/clinicdesk/internal/visits"
	"github.com/medfront/clinicdesk/pkg/logging"
	"github.com/medfront/clinicdesk/pkg/retry"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting clinicdesk API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, catalog cache disabled", "error", err)
			redisClient = nil
		}
	}

	clk := clock.System{}
	tokens := clock.NewGenerator(clk)
	retryCfg := retry.Config{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
	}
	workflowMetrics := metrics.NewWorkflowMetrics(nil)
	billingMetrics := metrics.NewBillingMetrics(nil)

	visitRepo := visits.NewPostgresRepository(pool)
	patientSvc := patients.NewService(patients.ServiceConfig{
		Repo:        patients.NewPostgresRepository(pool),
		Visits:      visitRepo,
		Clock:       clk,
		Tokens:      tokens,
		Logger:      logger,
		Metrics:     workflowMetrics,
		RepoTimeout: cfg.RepoTimeout,
		Retry:       retryCfg,
	})

	rxSvc := prescriptions.NewService(prescriptions.ServiceConfig{
		Repo:        prescriptions.NewPostgresRepository(pool),
		Patients:    patientSvc,
		Clock:       clk,
		Logger:      logger,
		Metrics:     workflowMetrics,
		RepoTimeout: cfg.RepoTimeout,
		Retry:       retryCfg,
	})

	var catalogCache *catalog.Cache
	if redisClient != nil {
		catalogCache = catalog.NewCache(redisClient, cfg.CatalogCacheTTL)
	}
	cat := catalog.NewCatalog(catalog.ServiceConfig{
		Repo:        catalog.NewPostgresRepository(pool),
		Cache:       catalogCache,
		Clock:       clk,
		Logger:      logger,
		RepoTimeout: cfg.RepoTimeout,
		Retry:       retryCfg,
	})

	billSvc := billing.NewService(billing.ServiceConfig{
		Repo:        billing.NewPostgresRepository(pool),
		Catalog:     cat,
		Patients:    patientSvc,
		Clock:       clk,
		Tokens:      tokens,
		Logger:      logger,
		Metrics:     billingMetrics,
		RepoTimeout: cfg.RepoTimeout,
		Retry:       retryCfg,
	})

	// Background outbox delivery.
	deliverer := events.NewDeliverer(events.NewOutboxStore(pool), events.NewLogSink(logger), logger).
		WithBatchSize(int32(cfg.OutboxBatchSize)).
		WithInterval(cfg.OutboxInterval)
	go deliverer.Start(ctx)

	r := router.New(&router.Config{
		Logger:               logger,
		PatientsHandler:      patients.NewHandler(patientSvc, logger),
		PrescriptionsHandler: prescriptions.NewHandler(rxSvc, logger),
		CatalogHandler:       catalog.NewHandler(cat, logger),
		BillingHandler:       billing.NewHandler(billSvc, logger),
		MetricsHandler:       promhttp.Handler(),
		AuthSecret:           cfg.AuthSecret,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		RateLimitPerSecond:   float64(cfg.RateLimitPerSecond),
		RateLimitBurst:       cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
