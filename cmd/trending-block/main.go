package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trending-block/internal/adslot"
	"trending-block/internal/auth"
	"trending-block/internal/catalog"
	"trending-block/internal/config"
	"trending-block/internal/pipeline"
	"trending-block/internal/store"
	"trending-block/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup structured logging
	setupLogging(cfg.LogLevel)

	slog.Info("Starting Trending Block", "version", "1.0.0")

	// Initialize the persistent store
	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
	}()

	// Seed the fixed accounts on first start
	authSvc := auth.NewService(st)
	if err := authSvc.BootstrapUsers(); err != nil {
		return fmt.Errorf("failed to bootstrap users: %w", err)
	}

	catalogSvc := catalog.NewService()

	pipe := pipeline.New(st, pipeline.Options{
		GateTicks:    cfg.GateSeconds,
		ProgressTick: time.Duration(cfg.ProgressTickMS) * time.Millisecond,
	})

	adClient := adslot.New(cfg.AdClientID)

	server := web.NewServer(cfg, authSvc, catalogSvc, pipe, adClient)

	return runServer(server, pipe, catalogSvc)
}

func runServer(server *web.Server, pipe *pipeline.Pipeline, catalogSvc *catalog.Service) error {
	// Re-attach downloads left mid-flight by the previous session
	if err := pipe.ResumeOrphaned(catalogSvc); err != nil {
		slog.Error("Failed to resume orphaned downloads", "error", err)
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// setupLogging configures structured logging based on the log level
func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	logger := slog.New(handler)
	slog.SetDefault(logger)
}
