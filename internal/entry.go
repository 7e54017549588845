// Package internal wires the session context together and hosts the built-in
// development backend's run loop.
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

	"github.com/starford/raido/internal/stubserver"
)

// RunStub starts the built-in development backend with the given options.
func RunStub(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.Stub.Address()),
		slog.String("sqlite_path", cfg.Stub.SQLitePath),
		slog.String("seed_path", cfg.Stub.SeedPath),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize the SQLite store.
	store, err := stubserver.OpenStore(cfg.Stub.SQLitePath)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	// Seed: from file when configured, otherwise the built-in dataset.
	seed := stubserver.DefaultSeed()
	if cfg.Stub.SeedPath != "" {
		seed, err = stubserver.LoadSeed(cfg.Stub.SeedPath)
		if err != nil {
			return fmt.Errorf("load seed: %w", err)
		}
	}
	if err := store.ApplySeed(seed); err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}
	logger.Info("Seed applied",
		slog.Int("tenants", len(seed.Tenants)),
		slog.Int("users", len(seed.Users)))

	// Build the backend router.
	srv := stubserver.New(store, cfg.Stub.JWTSecret, logger)

	// Build chi root router.
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

	// Mount backend routes under /api.
	r.Mount("/api", srv.Router())

	httpServer := &http.Server{
		Addr:    cfg.Stub.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.Stub.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Re-apply the seed file on change.
	if cfg.Stub.SeedPath != "" {
		g.Go(func() error {
			if err := stubserver.WatchSeed(gCtx, cfg.Stub.SeedPath, store, logger); err != nil {
				logger.Warn("seed watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.Stub.Address()))
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
