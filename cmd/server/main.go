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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dataframe-gateway/internal/config"
	"dataframe-gateway/internal/controller"
	"dataframe-gateway/internal/logging"
	"dataframe-gateway/internal/middleware"
	"dataframe-gateway/internal/model"
	"dataframe-gateway/internal/provider/httpprovider"
	"dataframe-gateway/internal/provider/parsers"
	"dataframe-gateway/internal/repository"
	"dataframe-gateway/internal/security"
	"dataframe-gateway/internal/service"
	"dataframe-gateway/internal/telemetry"
)

func main() {
	// Local overrides for development; missing file is fine
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	db, err := config.InitDatabase(cfg)
	if err != nil {
		return err
	}

	// Auto migrate database schema
	if err := db.AutoMigrate(&model.Source{}); err != nil {
		slog.Warn("database migration failed, continuing with existing schema", "error", err)
	}

	// Credentials inside stored configurations are sealed when a master key is set
	var sealer service.ConfigSealer
	if cfg.Security.MasterKey != "" {
		vault, err := security.NewCredentialVaultFromPassphrase(cfg.Security.MasterKey)
		if err != nil {
			return err
		}
		sealer = vault
	} else {
		slog.Warn("security.master_key is not set, source credentials are stored unencrypted")
	}

	if cfg.Metrics.Enabled {
		middleware.InitMetrics(nil)
	}

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		HTTPEndpoint: cfg.Tracing.HTTPEndpoint,
		GRPCEndpoint: cfg.Tracing.GRPCEndpoint,
		Headers:      cfg.Tracing.Headers,
		SampleRatio:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	// Ingestion pipeline
	registry := parsers.NewRegistry()
	fetcher := httpprovider.NewFetcher(&httpprovider.FetcherConfig{
		MaxIdleConns:    cfg.Fetcher.MaxIdleConns,
		IdleConnTimeout: cfg.Fetcher.IdleConnTimeout,
		UserAgent:       cfg.Fetcher.UserAgent,
	}, middleware.FetchRecorder{})
	provider := httpprovider.NewProvider(
		httpprovider.NewBuilder(registry, cfg.Fetcher.DefaultTimeout),
		fetcher,
		cfg.Fetcher.Parallelism,
	)

	// Initialize services
	stats := service.NewLoadStatsCollector(24 * time.Hour)
	go stats.StartCleanupRoutine(ctx)

	sourceService := service.NewSourceService(repository.NewSourceRepository(db), provider, sealer)
	sourceService.OnDelete(stats.Forget)
	loadService := service.NewLoadService(sourceService, provider, stats)

	// Create Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	if cfg.Metrics.Enabled {
		router.Use(middleware.PrometheusMiddleware())
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	health := controller.NewHealthController(db, registry)

	var access controller.Access
	if cfg.Security.EnableAuth {
		jwtManager := security.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.JWTExpiration)
		auth := security.NewAuthMiddleware(jwtManager)
		access.Protect = append(access.Protect, auth.RequireAuth())
		access.Public = append(access.Public, auth.OptionalAuth())
		access.Admin = append(access.Admin, auth.RequireRole(cfg.Security.AdminRole))
	}
	if cfg.Security.EnableRateLimit {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPM:             cfg.Security.RateLimitPerMinute,
			Burst:           cfg.Security.RateLimitBurst,
			CleanupInterval: 5 * time.Minute,
		})
		defer rateLimiter.Stop()
		access.Protect = append(access.Protect, rateLimiter.RateLimit())
		health.WithRateLimit(rateLimiter)
	}

	controller.RegisterRoutes(router, controller.Controllers{
		Health:  health,
		Sources: controller.NewSourceController(sourceService),
		Loads:   controller.NewLoadController(loadService),
	}, access)

	server := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", server.Addr, "parsers", registry.List())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
