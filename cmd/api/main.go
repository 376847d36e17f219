package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/salestracker/internal/api/router"
	"github.com/wolfman30/salestracker/internal/app/bootstrap"
	"github.com/wolfman30/salestracker/internal/appointments"
	appconfig "github.com/wolfman30/salestracker/internal/config"
	"github.com/wolfman30/salestracker/internal/identity"
	"github.com/wolfman30/salestracker/internal/notify"
	"github.com/wolfman30/salestracker/internal/observability/metrics"
	"github.com/wolfman30/salestracker/internal/profiles"
	"github.com/wolfman30/salestracker/internal/visits"
	"github.com/wolfman30/salestracker/pkg/logging"
)

func main() {
	// .env is optional outside local development
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting salestracker API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	dbPool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if dbPool == nil {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	defer dbPool.Close()
	sqlDB := stdlib.OpenDBFromPool(dbPool)
	defer func() { _ = sqlDB.Close() }()

	profilesStore := profiles.NewSQLStore(sqlDB)

	verifier := identity.NewTokenVerifier(cfg.StoreJWTSecret)
	authenticator := identity.NewAuthenticator(verifier, profilesStore, logger)
	signIn := identity.NewGoTrueClient(cfg.StoreURL, cfg.StoreAnonKey, logger)

	visitsStore := visits.NewPostgresStore(dbPool)
	visitsService := visits.NewService(visitsStore, profilesStore, logger)

	metricsHandler, reminderMetrics := setupReminderMetrics(cfg)

	sender, err := bootstrap.BuildEmailSender(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to configure email transport", "error", err)
		os.Exit(1)
	}
	notifier := notify.NewAppointmentNotifier(sender, cfg.NotifyRecipients, logger)

	loc := bootstrap.LoadLocation(cfg, logger)
	appointmentsStore := appointments.NewPostgresStore(dbPool)
	appointmentsService := appointments.NewService(appointmentsStore, visitsStore, notifier, logger,
		appointments.WithLocation(loc),
		appointments.WithMetrics(reminderMetrics),
	)
	sweeper := appointments.NewSweeper(appointmentsStore, visitsStore, profilesStore, notifier, reminderMetrics,
		appointments.SweeperConfig{Window: cfg.ReminderWindow, Location: loc}, logger)
	if strings.TrimSpace(cfg.ReminderSecretToken) == "" {
		logger.Warn("REMINDER_SECRET_TOKEN not set, reminder endpoint rejects every call")
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	routerCfg := &router.Config{
		Logger:              logger,
		Authenticator:       authenticator,
		AuthHandler:         identity.NewHandler(signIn, cfg.CookieSecure, logger),
		VisitsHandler:       visits.NewHandler(visitsService, logger),
		AppointmentsHandler: appointments.NewHandler(appointmentsService, sweeper, cfg.ReminderSecretToken, logger),
		ProfilesHandler:     profiles.NewHandler(profilesStore, logger),
		LoginLimiter:        bootstrap.BuildLoginLimiter(redisClient, cfg),
		MetricsHandler:      metricsHandler,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		HealthCheck:         dbPool.Ping,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}

// connectPostgresPool opens and pings a pool. It returns nil when url is
// empty or the database is unreachable.
func connectPostgresPool(ctx context.Context, url string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("failed to reach postgres", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// setupReminderMetrics registers the reminder collectors on a dedicated
// registry. The handler is nil when metrics are disabled.
func setupReminderMetrics(cfg *appconfig.Config) (http.Handler, *metrics.ReminderMetrics) {
	if cfg == nil || !cfg.MetricsEnabled {
		return nil, nil
	}
	reg := prometheus.NewRegistry()
	m := metrics.NewReminderMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}
