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
	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/cache"
	"github.com/starford/raido/internal/executor"
	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/launcher"
	"github.com/starford/raido/internal/matcher"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/platform"
	"github.com/starford/raido/internal/scanner"
	"github.com/starford/raido/internal/usage"
)

// watchDebounce batches filesystem events under the install roots so a
// bulk install triggers one rescan.
const watchDebounce = 2 * time.Second

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. In MCP mode stdout carries the
	// protocol, so logs go to stderr.
	logOut := os.Stdout
	if app.mcpMode {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	cachePath := platform.ExpandHome(cfg.Cache.Path)
	usagePath := platform.ExpandHome(cfg.Usage.Path)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("cache_path", cachePath),
		slog.String("usage_path", usagePath),
		slog.String("platform", platform.Current()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Build the component stack.
	sc := scanner.New(logger)
	store := cache.New(cachePath, cfg.Cache.ValidHours, cfg.Cache.Incremental, sc, logger)
	tracker := usage.New(usagePath, cfg.Usage.Tracking, cfg.Usage.Priority, logger)
	m := matcher.New(cfg.Matcher.AliasExpansion, cfg.Matcher.FuzzyMatch,
		cfg.Matcher.MaxCandidates, cfg.Matcher.FuzzyThreshold, cfg.Matcher.Aliases, logger)
	exec := executor.New(platform.Current(), logger)

	var jr *journal.DB
	if cfg.Journal.Path != "" {
		var err error
		jr, err = journal.Open(platform.ExpandHome(cfg.Journal.Path))
		if err != nil {
			logger.Warn("journal unavailable, continuing without it",
				slog.String("error", err.Error()))
			jr = nil
		} else {
			defer jr.Close()
		}
	}

	svc := launcher.New(store, tracker, m, exec, sc, jr, logger)

	// A failed initialization is not fatal: every operation retries it,
	// and on a bare machine there may simply be nothing to index yet.
	if init := svc.Initialize(); !init.Success {
		logger.Warn("index initialization failed", slog.String("message", init.Message))
	}

	if app.mcpMode {
		logger.Info("Serving MCP on stdio")
		return mcpserver.New(svc).ServeStdio()
	}

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

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

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the install roots and refresh the cache on app installs. The
	// refresh goes through the service so it holds the same mutex the
	// request handlers do.
	g.Go(func() error {
		roots := platform.ScanRoots(platform.Current())
		return cache.Watch(gCtx, roots, watchDebounce, logger, svc.RefreshCache)
	})

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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
