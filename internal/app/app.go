// Package app provides the main application struct for centralized dependency management
// and lifecycle control of the sp1assist server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"sp1assist/config"
	"sp1assist/internal/cache"
	"sp1assist/internal/enhance"
	"sp1assist/internal/generator"
	"sp1assist/internal/observability"
	"sp1assist/internal/providers"
	"sp1assist/internal/server"

	// Provider packages register their factories in init()
	_ "sp1assist/internal/providers/anthropic"
	_ "sp1assist/internal/providers/google"
	_ "sp1assist/internal/providers/openai"
)

// App represents the main application with all its dependencies.
// It provides centralized lifecycle management for all components.
type App struct {
	config    *config.Config
	logger    *slog.Logger
	cache     cache.Cache
	generator *generator.Generator
	server    *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// Config holds the configuration options for creating an App.
type Config struct {
	// AppConfig holds the loaded application configuration produced by config.Load.
	AppConfig *config.LoadResult

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Version is reported by the health endpoint.
	Version string
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(_ context.Context, cfg Config) (*App, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("app config is required")
	}
	if cfg.AppConfig.Config == nil {
		return nil, fmt.Errorf("app config contains nil Config")
	}

	appCfg := cfg.AppConfig.Config
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{
		config: appCfg,
		logger: logger,
	}

	validation, err := enhance.ParseValidationMode(appCfg.Enhance.ValidationMode)
	if err != nil {
		return nil, err
	}

	docs, err := enhance.LoadDocs(appCfg.Enhance.DocsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load sp1 docs: %w", err)
	}

	resultCache, err := cache.New(cache.Options{
		Type:          appCfg.Cache.Type,
		TTL:           seconds(appCfg.Cache.TTL),
		SweepInterval: seconds(appCfg.Cache.SweepInterval),
		RedisURL:      appCfg.Cache.Redis.URL,
		RedisPrefix:   appCfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	app.cache = resultCache

	// Metrics live on a private registry so repeated App construction in one
	// process never collides on registration.
	var (
		metrics  *observability.Metrics
		registry *prometheus.Registry
	)
	if appCfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = observability.NewMetrics(registry)
	}

	gateway := providers.NewGateway(appCfg.BaseURLs(), logger)

	enhancer := enhance.New(enhance.Config{
		Completer:  gateway,
		Cache:      resultCache,
		Docs:       docs,
		Validation: validation,
		Retry: enhance.RetryPolicy{
			MaxAttempts:    appCfg.Enhance.MaxAttempts,
			InitialBackoff: time.Duration(appCfg.Enhance.InitialBackoffMs) * time.Millisecond,
			MaxBackoff:     time.Duration(appCfg.Enhance.MaxBackoffMs) * time.Millisecond,
		},
		Metrics: metrics,
		Logger:  logger,
	})
	app.generator = generator.New(resultCache, enhancer, metrics, logger)

	app.logStartupInfo(cfg.AppConfig.Path, validation)

	serverCfg := &server.Config{
		AdminKey:        appCfg.Server.AdminKey,
		MetricsEnabled:  appCfg.Metrics.Enabled,
		MetricsEndpoint: appCfg.Metrics.Endpoint,
		BodySizeLimit:   appCfg.Server.BodySizeLimit,
		CORSOrigins:     appCfg.Server.CORSOrigins,
		Version:         cfg.Version,
	}
	if registry != nil {
		serverCfg.MetricsGatherer = registry
	}

	app.server = server.New(server.Deps{
		Generator: app.generator,
		Cache:     resultCache,
		CacheTTL:  seconds(appCfg.Cache.TTL),
		Completer: gateway,
		Logger:    logger,
	}, serverCfg)

	return app, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Generator returns the generation pipeline.
func (a *App) Generator() *generator.Generator {
	return a.generator
}

// Handler returns the HTTP handler serving the API.
func (a *App) Handler() http.Handler {
	return a.server
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	a.logger.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			a.logger.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully tears down app components in dependency order:
// the HTTP server first (honoring ctx), then the result cache.
//
// Shutdown is idempotent; after the first call, subsequent calls are no-ops.
// It attempts every close step and returns a joined error if any step fails.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	a.logger.Info("shutting down application...")

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("cache close error", "error", err)
			errs = append(errs, fmt.Errorf("cache close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	a.logger.Info("application shutdown complete")
	return nil
}

// logStartupInfo logs the application configuration on startup.
func (a *App) logStartupInfo(path string, validation enhance.ValidationMode) {
	cfg := a.config

	if path != "" {
		a.logger.Info("configuration loaded", "path", path)
	}

	if cfg.Server.AdminKey == "" {
		a.logger.Warn("ADMIN_KEY not set - cache administration is unauthenticated")
	} else {
		a.logger.Info("admin authentication enabled")
	}

	if cfg.Metrics.Enabled {
		a.logger.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		a.logger.Info("prometheus metrics disabled")
	}

	a.logger.Info("result cache configured", "type", cfg.Cache.Type, "ttl_seconds", cfg.Cache.TTL)
	a.logger.Info("enhancement configured",
		"validation_mode", string(validation),
		"max_attempts", cfg.Enhance.MaxAttempts,
		"providers", providers.ListRegistered(),
	)
}
