package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/usage_billing_app/internal/adapters/httpx"
	"github.com/SscSPs/usage_billing_app/internal/adapters/pricing"
	"github.com/SscSPs/usage_billing_app/internal/adapters/providers"
	"github.com/SscSPs/usage_billing_app/internal/adapters/relay"
	"github.com/SscSPs/usage_billing_app/internal/adapters/storage"
	portssvc "github.com/SscSPs/usage_billing_app/internal/core/ports/services"
	"github.com/SscSPs/usage_billing_app/internal/core/services"
	"github.com/SscSPs/usage_billing_app/internal/handlers"
	"github.com/SscSPs/usage_billing_app/internal/middleware"
	"github.com/SscSPs/usage_billing_app/internal/platform/config"
	"github.com/SscSPs/usage_billing_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/usage_billing_app/internal/utils"
	"github.com/SscSPs/usage_billing_app/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// @title Usage Billing API
// @version 1.0
// @description Metered credit billing for translation, transcription and speech.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey DeviceToken
// @in header
// @name X-Device-Token
// @description Device token (UUID) identifying the account.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	logger.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()

	gw, err := buildGateways(cfg, posthogClient)
	if err != nil {
		logger.Error("Failed to build gateways", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	container := services.NewServiceContainer(cfg, repos, gw)

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		logger.Error("Failed to create rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, metrics, analytics)
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		middleware.PrometheusMiddleware(),
		cors.New(corsConfig(cfg)),
		middleware.PosthogMiddleware(posthogClient),
	)

	err = r.SetTrustedProxies(nil)
	if err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, container, rateLimiter)

	go runJobSweeper(ctx, container.Job, cfg.JobSweepInterval, cfg.JobUploadTTL, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", slog.String("error", err.Error()))
	}
}

// buildGateways creates the outbound adapters from configuration. Unconfigured features stay nil.
func buildGateways(cfg *config.Config, analytics *utils.PosthogClientWrapper) (services.Gateways, error) {
	client := httpx.Client()

	rates := make(map[string]string, len(cfg.Providers)+1)
	for name, pc := range cfg.Providers {
		rates[name] = pc.Rate
	}
	if cfg.RelayRate != "" {
		rates[services.RelayProviderName] = cfg.RelayRate
	}
	pricer, err := pricing.NewRateTable(rates)
	if err != nil {
		return services.Gateways{}, err
	}

	chains := providers.BuildChains(cfg, client)
	gw := services.Gateways{
		Translators:  chains.Translators,
		Transcribers: chains.Transcribers,
		Synthesizers: chains.Synthesizers,
		Pricer:       pricer,
	}
	if analytics.IsInitialized() {
		gw.Analytics = analytics
	}
	if cfg.RelayURL != "" {
		gw.Relay = relay.NewClient(cfg.RelayURL, cfg.RelayAPIKey, client)
	}
	if cfg.UploadBaseURL != "" {
		gw.Storage = storage.NewUploadStorage(cfg.UploadBaseURL, cfg.UploadAPIKey, client)
	}
	return gw, nil
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.CORSAllowedOrigins
	}
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", middleware.DeviceTokenHeader, "Idempotency-Key")
	return c
}

// runJobSweeper periodically fails jobs whose upload never arrived.
func runJobSweeper(ctx context.Context, jobs portssvc.JobWriterSvc, interval, uploadTTL time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweepLogger := logger.With(slog.String("component", "job_sweeper"))
	sweepCtx := middleware.WithLogger(ctx, sweepLogger)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := jobs.ExpireStale(sweepCtx, uploadTTL); err != nil {
				sweepLogger.Error("Stale job sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
