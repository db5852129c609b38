package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/dentaai-platform/cmd/mainconfig"
	"github.com/wolfman30/dentaai-platform/internal/api/router"
	"github.com/wolfman30/dentaai-platform/internal/app/bootstrap"
	"github.com/wolfman30/dentaai-platform/internal/appointments"
	"github.com/wolfman30/dentaai-platform/internal/assistant"
	"github.com/wolfman30/dentaai-platform/internal/auth"
	"github.com/wolfman30/dentaai-platform/internal/booking"
	"github.com/wolfman30/dentaai-platform/internal/clinic"
	"github.com/wolfman30/dentaai-platform/internal/compliance"
	appconfig "github.com/wolfman30/dentaai-platform/internal/config"
	"github.com/wolfman30/dentaai-platform/internal/observability/metrics"
	"github.com/wolfman30/dentaai-platform/internal/patients"
	"github.com/wolfman30/dentaai-platform/internal/records"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting dentaai API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := buildServer(ctx, cfg, prometheus.NewRegistry(), logger)
	if err != nil {
		logger.Error("failed to initialise server", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // article generation can be slow
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", "error", err)
		cleanup()
		os.Exit(1)
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server stopped")
}

// buildServer wires every collaborator from cfg. The cleanup func closes
// pools and clients and is safe to call more than once.
func buildServer(ctx context.Context, cfg *appconfig.Config, reg *prometheus.Registry, logger *logging.Logger) (http.Handler, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		closers = nil
	}

	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	notifyMetrics := metrics.NewNotificationMetrics(reg)
	bookingMetrics := metrics.NewBookingMetrics(reg)
	lifecycleMetrics := metrics.NewLifecycleMetrics(reg)
	assistantMetrics := metrics.NewAssistantMetrics(reg)

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, cleanup, err
	}
	health := map[string]router.HealthCheck{}
	if pool != nil {
		closers = append(closers, pool.Close)
		health["postgres"] = pool.Ping
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		closers = append(closers, func() { _ = redisClient.Close() })
		health["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	rc := records.NewClient(bootstrap.BuildDocumentStore(pool, logger), logger)
	audit := compliance.NewAuditService(bootstrap.BuildAuditDB(pool))
	if !audit.Enabled() {
		logger.Warn("audit trail disabled; no database configured")
	}
	notifier := bootstrap.BuildNotifier(cfg, awsCfg, notifyMetrics, logger)

	// Booking
	checker := booking.NewConflictChecker(rc, bookingMetrics, logger)
	wizardStore, wizardBackend := bootstrap.BuildWizardStore(cfg, awsCfg, redisClient, logger)
	wizard := booking.NewWizardService(wizardStore, checker, rc, booking.NewVisitReasons(cfg.VisitReasons), logger)
	logger.Info("booking wizard ready", "session_store", wizardBackend)

	// Assistant
	llm, provider, closeLLM, err := bootstrap.BuildLLM(ctx, cfg, awsCfg, logger)
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, closeLLM)
	assistantService := assistant.NewService(llm, rc, logger, bootstrap.AssistantOptions(cfg, bootstrap.AssistantDeps{
		Redis:   redisClient,
		AWS:     awsCfg,
		Audit:   audit,
		Metrics: assistantMetrics,
	}, logger)...)
	logger.Info("assistant ready", "provider", provider)

	// Admin auth
	secret, err := bootstrap.AdminSecret(cfg, logger)
	if err != nil {
		return nil, cleanup, err
	}
	authService := auth.NewService(rc, bootstrap.BuildSessionStore(redisClient, logger), audit, auth.Options{
		Secret:          secret,
		TTL:             cfg.AdminSessionTTL,
		DefaultUsername: cfg.DefaultAdminUsername,
		DefaultPassword: cfg.DefaultAdminPassword,
	}, logger)

	var stats clinic.StatsSource = clinic.NewRecordsStats(rc)
	if pool != nil {
		stats = clinic.NewPostgresStats(pool)
	}

	handler := router.New(&router.Config{
		Logger:       logger,
		Clinic:       clinic.NewHandler(clinic.NewDirectory(rc, logger), audit, logger),
		Dashboard:    clinic.NewDashboardHandler(stats, reg, cfg.EstimatedVisitRevenue, logger),
		Booking:      booking.NewHandler(wizard, logger),
		Appointments: appointments.NewHandler(appointments.NewLifecycle(rc, notifier, lifecycleMetrics, logger), audit, logger),
		Patients:     patients.NewHandler(patients.NewAggregator(rc, notifier, logger), audit, logger),
		Assistant:    assistant.NewHandler(assistantService, audit, logger),
		Auth:         auth.NewHandler(authService, audit, logger),
		Audit:        compliance.NewHandler(audit, logger),
		Sessions:     authService,

		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		HealthChecks:       health,

		LoginRatePerSecond:     perSecond(cfg.LoginRatePerMinute),
		LoginBurst:             burst(cfg.LoginRatePerMinute),
		AssistantRatePerSecond: perSecond(cfg.AssistantRatePerMinute),
		AssistantBurst:         burst(cfg.AssistantRatePerMinute),
	})
	return handler, cleanup, nil
}

func perSecond(perMinute int) float64 {
	if perMinute <= 0 {
		return 0
	}
	return float64(perMinute) / 60
}

// burst allows a short spike of up to a fifth of the minute budget.
func burst(perMinute int) int {
	if b := perMinute / 5; b > 1 {
		return b
	}
	return 1
}
