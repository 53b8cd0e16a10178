// Package bootstrap provides dependency initialization for the media jobs API.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/maauso/mediajobs-api/internal/config"
	"github.com/maauso/mediajobs-api/internal/filtergraph"
	"github.com/maauso/mediajobs-api/internal/job"
	"github.com/maauso/mediajobs-api/internal/media"
	"github.com/maauso/mediajobs-api/internal/metrics"
	"github.com/maauso/mediajobs-api/internal/workspace"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	MediaService *job.Service
	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Metrics
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	workspaces, err := workspace.NewManager(cfg.TempDir, logger)
	if err != nil {
		return nil, fmt.Errorf("create workspace manager: %w", err)
	}
	logger.Info("workspace root configured",
		slog.String("temp_dir", workspaces.Root()),
	)

	invoker := media.NewFFmpegInvoker(cfg.FFmpegPath)
	checkCollaborators(cfg, invoker, logger)

	opts := []job.ServiceOption{
		job.WithStyle(filtergraph.DefaultStyle(cfg.FontFile)),
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		opts = append(opts, job.WithMetrics(m))
	}

	svc := job.NewService(workspaces, invoker, logger, opts...)

	return &Dependencies{
		MediaService: svc,
		Metrics:      m,
	}, nil
}

// checkCollaborators warns about a missing ffmpeg or font at startup. Requests
// still run and report the failure themselves.
func checkCollaborators(cfg *config.Config, invoker *media.FFmpegInvoker, logger *slog.Logger) {
	if path, err := exec.LookPath(invoker.Path()); err != nil {
		logger.Warn("ffmpeg not found, media jobs will fail",
			slog.String("ffmpeg_path", invoker.Path()),
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("ffmpeg found", slog.String("path", path))
	}

	if _, err := os.Stat(cfg.FontFile); err != nil {
		logger.Warn("caption font not found, text overlay jobs will fail",
			slog.String("font_file", cfg.FontFile),
			slog.String("error", err.Error()),
		)
	}
}
