// ABOUTME: Serve command: runs the web front-end server
// ABOUTME: Wires config, logging, backend gateway, refresh coordinator, rate limits and routes

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vocalswap/vocalswap-web/config"
	"github.com/vocalswap/vocalswap-web/handlers"
	"github.com/vocalswap/vocalswap-web/logger"
	"github.com/vocalswap/vocalswap-web/middleware"
	"github.com/vocalswap/vocalswap-web/services"
)

const (
	rateLimitWindow = time.Minute
	shutdownTimeout = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long:  `Run the VocalSwap web server: auth routes, the backend proxy, health endpoints and pages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return runServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	// Initialize structured logging
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Starting VocalSwap web server", "env", cfg.AppEnv)
	slog.Info("Backend API configured", "url", cfg.BackendURL())

	backend := services.NewBackendClient(cfg.BackendURL(), nil)
	backend.SetForwardTimeout(cfg.ProxyTimeout)
	backend.SetMaxForwardBytes(cfg.ProxyMaxBody)

	// One coordinator for the whole process: refreshes are shared across
	// every request of the same session.
	refresher := services.NewRefreshCoordinator()

	h := handlers.NewHandler(cfg, backend, refresher, logger.NewAuditor(nil))
	router := handlers.NewRouter(h, rateLimits(cfg))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// rateLimits builds the per-class limiters, or none when limiting is disabled.
func rateLimits(cfg *config.Config) handlers.RateLimits {
	if !cfg.RateLimitEnabled {
		slog.Warn("Rate limiting disabled")
		return handlers.RateLimits{}
	}
	slog.Info("Rate limiting enabled",
		"auth_per_min", cfg.RateLimitAuth,
		"refresh_per_min", cfg.RateLimitRefresh,
		"default_per_min", cfg.RateLimitDefault)
	return handlers.RateLimits{
		Auth:    middleware.NewRateLimiter(cfg.RateLimitAuth, rateLimitWindow),
		Refresh: middleware.NewRateLimiter(cfg.RateLimitRefresh, rateLimitWindow),
		Default: middleware.NewRateLimiter(cfg.RateLimitDefault, rateLimitWindow),
	}
}
