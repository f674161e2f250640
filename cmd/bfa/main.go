package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/config"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/handler"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/infra/cache"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/infra/vendorapi"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/service"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/session"

	"go.uber.org/zap"
)

func main() {
	// --- Config (.env is optional, environment wins) ---
	cfg := config.Load(".env")

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("voyager_api_domain", cfg.VoyagerAPIDomain),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Bool("csrf_enabled", cfg.CSRFEnabled),
		zap.Bool("cookie_secure", cfg.CookieSecure),
		zap.Strings("allowed_origins", cfg.AllowedOrigins),
	)
	if cfg.SessionSecret == config.DefaultSessionSecret {
		logger.Warn("SESSION_SECRET not set, using the development default")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "voyager-admin-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	vendorCache := cache.New[[]domain.Vendor](cfg.CacheTTL)
	defer vendorCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("voyager", logger)

	// --- Vendor client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	voyager := vendorapi.NewClient(httpClient, cfg.VoyagerAPIDomain, cfg.TokenExpireDays, cb, resilienceCfg, metrics, logger)

	metrics.RegisterGauge("voyager_vendor_in_flight", "Vendor calls currently in flight.",
		func() float64 { return float64(voyager.InFlight()) })
	metrics.RegisterGauge("voyager_vendor_cache_entries", "Entries held by the vendor list cache.",
		func() float64 { return float64(vendorCache.Len()) })

	// --- Sessions ---
	keys, err := session.DeriveKeys(cfg.SessionSecret)
	if err != nil {
		logger.Fatal("failed to derive session keys", zap.Error(err))
	}
	sessions := session.NewManager(keys, session.Options{
		MaxAge: cfg.SessionMaxAge,
		Secure: cfg.CookieSecure,
	}, logger)

	// --- Services ---
	authSvc := service.NewAuthService(voyager, metrics, logger)
	bundleSvc := service.NewBundleService(voyager, service.BundleConfig{
		PageSize:          cfg.BundlePageSize,
		MaxPages:          cfg.BundleMaxPages,
		DefaultCompanyID:  cfg.DefaultCompanyID,
		DefaultEmployeeID: cfg.DefaultEmployeeID,
	}, metrics, logger)
	creditSvc := service.NewCreditService(voyager, vendorCache, cfg.MaxConcurrency, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Auth:     authSvc,
		Bundles:  bundleSvc,
		Credits:  creditSvc,
		Relay:    voyager,
		Sessions: sessions,
		Breaker:  cb,
		CSRFKey:  keys.CSRF,
	}, cfg, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
