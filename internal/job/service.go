package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maauso/mediajobs-api/internal/filtergraph"
	"github.com/maauso/mediajobs-api/internal/media"
	"github.com/maauso/mediajobs-api/internal/metrics"
	"github.com/maauso/mediajobs-api/internal/upload"
	"github.com/maauso/mediajobs-api/internal/workspace"
)

// Service runs media jobs. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	workspaces   *workspace.Manager
	materializer *upload.Materializer
	executor     *media.Executor
	style        filtergraph.Style
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// ServiceOption is a function that configures a Service instance.
type ServiceOption func(*Service)

// WithStyle sets the caption style used by text overlay jobs.
func WithStyle(style filtergraph.Style) ServiceOption {
	return func(s *Service) {
		s.style = style
	}
}

// WithMetrics records job outcomes in m.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a new Service.
func NewService(workspaces *workspace.Manager, invoker media.Invoker, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		workspaces:   workspaces,
		materializer: upload.NewMaterializer(logger),
		executor:     media.NewExecutor(invoker, logger),
		style:        filtergraph.DefaultStyle(""),
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// AddVoiceover mixes the form's audio segments into its video and passes the
// result to deliver. The job workspace is removed before AddVoiceover returns.
func (s *Service) AddVoiceover(ctx context.Context, form *upload.VoiceoverForm, deliver Deliver) error {
	return s.run(ctx, KindVoiceover, form.VideoName, func(ws *workspace.Workspace) (media.Command, error) {
		videoPath, err := s.materializer.Save(ctx, ws, form.Video, upload.VideoWorkspaceName(form.VideoName))
		if err != nil {
			return media.Command{}, err
		}

		audioPaths := make([]string, 0, len(form.Segments))
		for _, seg := range form.Segments {
			p, err := s.materializer.Save(ctx, ws, seg.File, seg.WorkspaceName())
			if err != nil {
				return media.Command{}, err
			}
			audioPaths = append(audioPaths, p)
		}

		s.logger.Info("voiceover job prepared",
			slog.String("job_id", ws.ID()),
			slog.String("video", form.VideoName),
			slog.Int("segments", len(form.Segments)),
		)

		return media.BuildVoiceover(media.VoiceoverParams{
			VideoPath:  videoPath,
			AudioPaths: audioPaths,
			Delays:     form.Delays(),
			OutputPath: ws.Path(KindVoiceover.DownloadName(form.VideoName)),
		}), nil
	}, deliver)
}

// AddTextOverlay burns the form's captions into its video and passes the
// result to deliver. The job workspace is removed before AddTextOverlay returns.
func (s *Service) AddTextOverlay(ctx context.Context, form *upload.TextOverlayForm, deliver Deliver) error {
	return s.run(ctx, KindTextOverlay, form.VideoName, func(ws *workspace.Workspace) (media.Command, error) {
		videoPath, err := s.materializer.Save(ctx, ws, form.Video, upload.VideoWorkspaceName(form.VideoName))
		if err != nil {
			return media.Command{}, err
		}

		s.logger.Info("text overlay job prepared",
			slog.String("job_id", ws.ID()),
			slog.String("video", form.VideoName),
			slog.Int("captions", len(form.Captions)),
		)

		return media.BuildTextOverlay(media.TextOverlayParams{
			VideoPath:  videoPath,
			Captions:   form.Captions,
			Style:      s.style,
			OutputPath: ws.Path(KindTextOverlay.DownloadName(form.VideoName)),
		}), nil
	}, deliver)
}

// run executes one job inside a fresh workspace: prepare materializes inputs
// and builds the command, the executor runs it, deliver consumes the output.
func (s *Service) run(ctx context.Context, kind Kind, videoName string, prepare func(*workspace.Workspace) (media.Command, error), deliver Deliver) (err error) {
	finish := s.metrics.JobStarted(string(kind))
	defer func() { finish(outcome(err)) }()

	return s.workspaces.With(ctx, func(ws *workspace.Workspace) error {
		cmd, err := prepare(ws)
		if err != nil {
			return err
		}

		if err := s.executor.Execute(ctx, ws.Dir(), cmd); err != nil {
			s.logger.Error("media job failed",
				slog.String("job_id", ws.ID()),
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()),
			)
			return err
		}

		out := Output{
			JobID:        ws.ID(),
			Kind:         kind,
			Path:         cmd.Output,
			DownloadName: kind.DownloadName(videoName),
		}
		if err := deliver(out); err != nil {
			return fmt.Errorf("deliver output: %w", err)
		}

		s.logger.Info("media job completed",
			slog.String("job_id", ws.ID()),
			slog.String("kind", string(kind)),
			slog.String("download_name", out.DownloadName),
		)
		return nil
	})
}

func outcome(err error) string {
	var verr *upload.ValidationError
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &verr):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeFailed
	}
}
