/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the personal finance tracker server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Resolve configuration (flags, then environment, then defaults)
  2. Configure structured logging
  3. Initialize SQLite store (migrations run on open)
  4. Create API handler and router
  5. Start server with graceful shutdown

CONFIGURATION:
  See config/config.go for every flag and its environment variable.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/finance.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Behind HTTPS with a fixed secret
  SESSION_SECRET=... ./server -secure-cookie

SEE ALSO:
  - api/server.go: Router configuration
  - cmd/adduser: Creating accounts from the command line
*/
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

	"github.com/warp/pocket-ledger/api"
	"github.com/warp/pocket-ledger/auth"
	"github.com/warp/pocket-ledger/config"
	"github.com/warp/pocket-ledger/pkg/logging"
	"github.com/warp/pocket-ledger/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromOS()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel)

	if cfg.GeneratedSecret {
		slog.Warn("SESSION_SECRET not set, using a random secret; sessions will not survive a restart")
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, auth.NewSessionManager(cfg.SessionSecret))
	handler.SecureCookie = cfg.SecureCookie

	// Create router
	router := api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		StaticDir:      cfg.StaticDir,
		Logger:         slog.Default(),
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", server.Addr, "db", cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
