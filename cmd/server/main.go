// Package main provides the entry point for the media jobs API server.
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

	"golang.org/x/sync/errgroup"

	"github.com/maauso/mediajobs-api/internal/bootstrap"
	"github.com/maauso/mediajobs-api/internal/config"
	"github.com/maauso/mediajobs-api/internal/server"
)

// shutdownTimeout bounds how long in-flight jobs may run after a signal.
const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from .env and the environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting media jobs API",
		slog.Int("port", cfg.Port),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.String("temp_dir", cfg.TempDir),
		slog.Duration("request_timeout", cfg.RequestTimeout),
		slog.Int64("max_upload_bytes", cfg.MaxUploadBytes),
		slog.Bool("metrics_enabled", cfg.MetricsEnabled),
	)

	// Initialize dependencies using bootstrap
	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	// Initialize HTTP handlers and router
	handlers := server.NewHandlers(deps.MediaService, logger,
		server.WithRequestTimeout(cfg.RequestTimeout),
		server.WithUploadLimits(cfg.MaxUploadBytes, cfg.MaxFormMemoryBytes),
	)
	routerCfg := server.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		routerCfg.AllowedOrigins = cfg.AllowedOrigins
	}
	if deps.Metrics != nil {
		routerCfg.Metrics = deps.Metrics.Handler()
	}
	router := server.NewRouter(handlers, logger, routerCfg)

	srv := newHTTPServer(cfg, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening",
			slog.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}

// newHTTPServer builds the listener for cfg. ReadTimeout bounds the upload.
// There is no WriteTimeout: the response is streamed after ffmpeg finishes and
// the per-job context already bounds processing, so a write deadline would cut
// off large results mid-body.
func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 30 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
