package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/weatherengine/maritime/config"
	"github.com/weatherengine/maritime/internal/alerts"
	"github.com/weatherengine/maritime/internal/api"
	"github.com/weatherengine/maritime/internal/auth"
	"github.com/weatherengine/maritime/internal/backend"
	"github.com/weatherengine/maritime/internal/cache"
	"github.com/weatherengine/maritime/internal/classifier"
	"github.com/weatherengine/maritime/internal/database"
	"github.com/weatherengine/maritime/internal/forecast"
	"github.com/weatherengine/maritime/internal/geocoder"
	"github.com/weatherengine/maritime/internal/hub"
	"github.com/weatherengine/maritime/internal/logger"
	"github.com/weatherengine/maritime/internal/metrics"
	middlewares "github.com/weatherengine/maritime/internal/middleware"
	"github.com/weatherengine/maritime/internal/notifier"
	"github.com/weatherengine/maritime/internal/pipeline"
	"github.com/weatherengine/maritime/internal/ratelimit"
	"github.com/weatherengine/maritime/internal/recommend"
	"github.com/weatherengine/maritime/internal/store"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// A missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitWithOptions(cfg.Logging.Level, cfg.Logging.Format, logger.Options{File: cfg.Logging.File})
	defer func() { _ = logger.Close() }()
	logger.Info("Starting maritime weather engine",
		"version", Version,
		"build_time", BuildTime,
		"git_commit", GitCommit,
	)

	// Initialize metrics
	if cfg.Metrics.Enabled {
		metrics.Init()
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close(ctx)
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}

	// Initialize store
	st := store.New(db)

	// Redis backs the forecast cache and write limits when reachable
	redisClient, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable; using in-process cache and rate limits", "error", err)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	writeLimit := writeLimiter(cfg.Redis, redisClient)

	upstream := backend.New(cfg.Backend)
	cls := classifier.New()

	var source pipeline.Source = pipeline.NewSeedSource()
	if !cfg.Seed.UseSeedAlerts {
		source = pipeline.NewBackendSource(upstream)
	}
	alertPipeline := pipeline.New(cls, geocoder.New(), cfg.Pipeline, source)

	events := hub.New()
	go events.Run(ctx)

	alertService := alerts.NewService(st, upstream, alertPipeline,
		alerts.WithPublisher(events),
		alerts.WithNotifier(notifier.New(cfg.Notify)),
	)
	forecastService := forecast.NewService(upstream, forecast.NewProjector(cls),
		cache.New(redisClient, "maritime"), cfg.Redis.ForecastCacheTTL, cfg.Backend.DefaultCity)
	recommendService := recommend.NewService(recommend.NewEngine(), st, upstream, events)

	warmUp(ctx, alertService, forecastService, cfg.Backend.DefaultCity)

	// Start pipeline in background
	go func() {
		if err := alertPipeline.Run(ctx, alertService); err != nil {
			logger.Error("Pipeline error", "error", err)
		}
	}()

	r := newRouter(cfg, auth.NewVerifier(cfg.Auth), api.Deps{
		Alerts:          alertService,
		Forecast:        forecastService,
		Recommendations: recommendService,
		Store:           st,
		Events:          events.Handler(cfg.Server.AllowedOrigins),
		WriteLimit:      writeLimit,
		DefaultCity:     cfg.Backend.DefaultCity,
		Version:         Version,
		BuildTime:       BuildTime,
		GitCommit:       GitCommit,
	})

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		go startMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

// newRouter builds the chi router with the global middleware chain
func newRouter(cfg *config.Config, verifier *auth.Verifier, deps api.Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.Logging)
	r.Use(middlewares.Metrics)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.ReadTimeout))
	r.Use(middlewares.Security)
	r.Use(middlewares.CORS(cfg.Server.AllowedOrigins))
	r.Use(middlewares.APIKeyAuth(verifier, cfg.Auth.KeyHeader))

	api.NewHandler(deps).RegisterRoutes(r)
	return r
}

// writeLimiter picks the Redis limiter when a client is available and the
// in-process one otherwise
func writeLimiter(cfg config.RedisConfig, client *redis.Client) func(http.Handler) http.Handler {
	if client == nil {
		return middlewares.RateLimit(cfg.WriteLimitPerMinute)
	}
	return middlewares.RedisRateLimit(ratelimit.New(client, cfg.WriteLimitPerMinute))
}

// warmUp loads the first alert batch and the default forecast concurrently.
// Failures are logged; the service still starts and retries on demand.
func warmUp(ctx context.Context, a *alerts.Service, f *forecast.Service, city string) {
	var g errgroup.Group
	g.Go(func() error {
		res, err := a.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("initial alert refresh: %w", err)
		}
		logger.Info("Initial alerts loaded", "source", res.Source, "total", res.Total)
		return nil
	})
	g.Go(func() error {
		fc, err := f.Fetch(ctx, city)
		if err != nil {
			return fmt.Errorf("initial forecast: %w", err)
		}
		logger.Info("Initial forecast loaded", "city", fc.City, "fallback", fc.Fallback)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Warn("Warm-up incomplete", "error", err)
	}
}

func startMetricsServer(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, metrics.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info("Starting metrics server", "address", addr, "path", path)

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Metrics server failed", "error", err)
	}
}
