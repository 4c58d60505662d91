package main

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

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"linkgraph/api"
	"linkgraph/auth"
	"linkgraph/internal"
	"linkgraph/presence"
	"linkgraph/repositories"
	"linkgraph/runtime"
	"linkgraph/runtime/workers"
	"linkgraph/services"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting. This pattern ensures all defers (like
// database cleanup) execute before the program exits, and keeps the
// initialization logic testable outside the entry point.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger, err := internal.LoggerFromLevel(config.LogLevel)
	if err != nil {
		return exitConfig, err
	}

	ctx := context.Background()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are
		// flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories, presence, dispatcher
	connectionRepo := repositories.NewConnectionRepository(db, logger)
	notificationRepo := repositories.NewNotificationRepository(db, logger)
	messageRepo := repositories.NewMessageRepository(db, logger)

	registry := presence.NewRegistry()
	dispatcher := runtime.NewDispatcher(logger, notificationRepo, config.BufferSize)

	// 4. Supervised workers
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	reaper, err := workers.NewReaperWorker(logger, notificationRepo, config.ReaperSchedule())
	if err != nil {
		return exitConfig, err
	}
	sup.Add(
		workers.NewFanoutWorker(logger, registry, dispatcher.Jobs(), config.SinkTimeout),
		reaper,
		workers.NewStatsWorker(logger, config.StatsInterval),
	)

	// 5. Services & HTTP surface
	connectionService := services.NewConnectionService(logger, connectionRepo, dispatcher)
	notificationService := services.NewNotificationService(notificationRepo, config.LimitNotifications)
	messagingService := services.NewMessagingService(logger, messageRepo, connectionRepo,
		dispatcher, config.MaxContentLength)

	handler := api.New(logger, connectionService, notificationService, messagingService,
		registry, auth.NewVerifier(config.JWTSecret), config.ConnectionBufferSize)

	// 6. Context & Signals
	// NotifyContext captures OS signals and cancels the context to
	// trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)

	go func() {
		logger.Info("Starting supervised workers")
		sup.Run(ctx)
	}()

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: handler.Router()}
	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 8. Final Cleanup (Graceful Shutdown)
	// Active streams get a grace period, live sessions are torn down,
	// and workers drain their channels.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	registry.Close()
	sup.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
