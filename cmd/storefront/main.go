// Storefront engine - product option resolution, wishlist and recently
// viewed state over a storefront's AJAX endpoints, served as REST and MCP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-engine/internal/config"
	"storefront-engine/internal/handler"
	"storefront-engine/internal/middleware"
	"storefront-engine/internal/session"
	"storefront-engine/internal/storage"
	"storefront-engine/internal/storeapi"
	"storefront-engine/internal/wishlist"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := initLogger()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("store_id", cfg.StoreID),
		slog.String("environment", cfg.Environment),
		slog.String("store_domain", cfg.Store.StoreDomain),
		slog.String("storage_backend", cfg.Storage.Backend),
	)

	repo, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer repo.Close()

	client, err := storeapi.New(cfg.StoreAPIConfig())
	if err != nil {
		return fmt.Errorf("creating storefront client: %w", err)
	}

	var formatter wishlist.PriceFormatter = wishlist.DefaultPriceFormatter
	if f, err := wishlist.NewCurrencyFormatter(cfg.Store.Currency, cfg.Store.Locale); err != nil {
		logger.Warn("falling back to plain price format", slog.String("error", err.Error()))
	} else {
		formatter = f
	}

	engine := wishlist.NewEngine(repo, client, wishlist.Options{
		Formatter:   formatter,
		Concurrency: cfg.Store.HydrationConcurrency,
		Logger:      logger,
	})

	h := handler.New(engine, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Recovery must be outermost to catch panics from logging middleware.
	// Session resolves or issues the Storefront-Client id.
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.Logging(logger),
		session.Middleware(logger),
	)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// openStorage creates the configured repository backend.
func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return storage.NewMemory(), nil
	case config.BackendFile:
		return storage.OpenFile(cfg.Path)
	case config.BackendRedis:
		return storage.OpenRedis(ctx, cfg.RedisURL, cfg.Namespace)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for Cloud Logging; development uses text.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
