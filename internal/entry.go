// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notable/internal/api"
	"github.com/starford/notable/internal/extract"
	"github.com/starford/notable/internal/mcpserver"
	"github.com/starford/notable/internal/observe"
	"github.com/starford/notable/internal/pipeline"
	"github.com/starford/notable/internal/provider/llm"
	anthropicllm "github.com/starford/notable/internal/provider/llm/anthropic"
	openaillm "github.com/starford/notable/internal/provider/llm/openai"
	"github.com/starford/notable/internal/provider/stt"
	openaistt "github.com/starford/notable/internal/provider/stt/openai"
	"github.com/starford/notable/internal/repo"
	"github.com/starford/notable/internal/service"
	"github.com/starford/notable/internal/sse"
	"github.com/starford/notable/internal/storage"
)

// components is the wired object graph shared by the HTTP and MCP commands.
type components struct {
	store    storage.Provider
	svc      *service.Service
	broker   *sse.Broker
	registry *prometheus.Registry
	metrics  *observe.Metrics
	shutdown func(context.Context) error
}

func (c *components) close(logger *slog.Logger) {
	if c.broker != nil {
		c.broker.Close()
	}
	if c.shutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown failed", slog.String("error", err.Error()))
		}
	}
	if err := c.store.Close(); err != nil {
		logger.Warn("store close failed", slog.String("error", err.Error()))
	}
}

func (a *application) init(opts []Option) error {
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return fmt.Errorf("config is required")
	}
	if a.logOutput == nil {
		a.logOutput = os.Stdout
	}
	return nil
}

func (a *application) newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// build wires storage, providers, pipeline and service. withEvents adds the
// SSE broker used by the HTTP command.
func (a *application) build(ctx context.Context, logger *slog.Logger, withEvents bool) (*components, error) {
	cfg := a.config

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	c := &components{store: store}

	if cfg.Metrics.Enabled {
		c.registry = prometheus.NewRegistry()
		c.shutdown, err = observe.InitProvider(ctx, observe.ProviderConfig{
			ServiceVersion: a.version,
			Registerer:     c.registry,
		})
		if err != nil {
			c.close(logger)
			return nil, fmt.Errorf("init metrics: %w", err)
		}
		if c.metrics, err = observe.NewMetrics(otel.GetMeterProvider()); err != nil {
			c.close(logger)
			return nil, fmt.Errorf("init metrics: %w", err)
		}
	} else {
		c.metrics = observe.Discard()
	}

	transcriber, err := newTranscriber(cfg.Transcription)
	if err != nil {
		c.close(logger)
		return nil, fmt.Errorf("init transcription: %w", err)
	}
	annotator, err := newAnnotator(cfg.Annotation)
	if err != nil {
		c.close(logger)
		return nil, fmt.Errorf("init annotation: %w", err)
	}

	corrections := repo.NewCorrections(store, logger)
	notes := repo.NewNotes(store, logger)
	extractor := extract.New(annotator, cfg.Annotation.MaxTokens, logger,
		extract.WithTemperature(cfg.Annotation.Temperature))
	p := pipeline.New(transcriber, extractor, corrections, "", c.metrics, logger)

	deps := service.Deps{
		Corrections: corrections,
		Notes:       notes,
		Pipeline:    p,
		Metrics:     c.metrics,
		Logger:      logger,
	}
	if withEvents {
		c.broker = sse.NewBroker(2 * time.Second)
		deps.Events = c.broker
	}
	c.svc = service.New(deps)
	return c, nil
}

// openStore opens the configured key-value backend.
func openStore(ctx context.Context, cfg StoreConfig) (storage.Provider, error) {
	switch cfg.Driver {
	case StoreMemory:
		return storage.NewMemory(), nil
	case StoreFile, "":
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		return storage.NewFS(cfg.Path)
	case StoreSQLite:
		return storage.OpenSQLite(cfg.Path)
	case StoreRedis:
		return storage.ConnectRedis(ctx, storage.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func newTranscriber(cfg TranscriptionConfig) (stt.Provider, error) {
	var opts []openaistt.Option
	if cfg.BaseURL != "" {
		opts = append(opts, openaistt.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, openaistt.WithTimeout(cfg.Timeout))
	}
	if cfg.Language != "" {
		opts = append(opts, openaistt.WithLanguage(cfg.Language))
	}
	return openaistt.New(cfg.APIKey, cfg.Model, opts...)
}

func newAnnotator(cfg AnnotationConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case AnnotationAnthropic:
		var opts []anthropicllm.Option
		if cfg.BaseURL != "" {
			opts = append(opts, anthropicllm.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, anthropicllm.WithTimeout(cfg.Timeout))
		}
		return anthropicllm.New(cfg.APIKey, cfg.Model, opts...)
	case AnnotationOpenAI:
		var opts []openaillm.Option
		if cfg.BaseURL != "" {
			opts = append(opts, openaillm.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, openaillm.WithTimeout(cfg.Timeout))
		}
		return openaillm.New(cfg.APIKey, cfg.Model, opts...)
	default:
		return nil, fmt.Errorf("unknown annotation provider %q", cfg.Provider)
	}
}

// newRouter builds the root HTTP handler: health checks, metrics and the
// authenticated API under /api.
func newRouter(cfg *Config, c *components) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(observe.Middleware(c.metrics))

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if c.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	}

	var events http.Handler
	if c.broker != nil {
		events = c.broker
	}
	r.Mount("/api", api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, events))
	return r
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	if err := app.init(opts); err != nil {
		return err
	}
	cfg := app.config
	logger := app.newLogger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("annotation_provider", cfg.Annotation.Provider),
		slog.Bool("metrics", cfg.Metrics.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := app.build(ctx, logger, true)
	if err != nil {
		return err
	}
	defer c.close(logger)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: newRouter(cfg, c),
	}
	// Closing the broker ends open SSE streams so Shutdown does not wait on them.
	httpServer.RegisterOnShutdown(c.broker.Close)

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Forward external edits of the file store to SSE clients.
	if fs, ok := c.store.(*storage.FS); ok {
		g.Go(func() error {
			if err := fs.Watch(gCtx, logger, c.svc.StoreChanged); err != nil {
				logger.Warn("store watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup context so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdio until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{logOutput: os.Stderr}
	if err := app.init(opts); err != nil {
		return err
	}
	logger := app.newLogger()

	c, err := app.build(ctx, logger, false)
	if err != nil {
		return err
	}
	defer c.close(logger)

	logger.Info("MCP server starting on stdio",
		slog.String("store_driver", app.config.Store.Driver))
	return mcpserver.New(c.svc, app.version).ServeStdio()
}
