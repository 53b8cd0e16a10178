package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"
)

// Executor runs built commands and checks that they produced their output.
// It never retries: a failed run may have partially written the output.
type Executor struct {
	invoker Invoker
	logger  *slog.Logger
}

// NewExecutor creates a new Executor around invoker.
func NewExecutor(invoker Invoker, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{invoker: invoker, logger: logger}
}

// Execute runs cmd with dir as the working directory.
//
// It returns nil only when the tool exited successfully and cmd.Output
// exists and is non-empty. A successful exit without output yields
// ErrOutputMissing; tool failures are returned as reported by the Invoker.
func (e *Executor) Execute(ctx context.Context, dir string, cmd Command) error {
	if _, err := os.Stat(cmd.Output); err == nil {
		return fmt.Errorf("%w: %s", ErrOutputExists, cmd.Output)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat output: %w", err)
	}

	start := time.Now()
	e.logger.Debug("running ffmpeg",
		slog.String("dir", dir),
		slog.Any("args", cmd.Args),
	)

	if err := e.invoker.Invoke(ctx, dir, cmd.Args); err != nil {
		e.logger.Warn("ffmpeg failed",
			slog.String("dir", dir),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return err
	}

	info, err := os.Stat(cmd.Output)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrOutputMissing, cmd.Output)
	}

	e.logger.Debug("ffmpeg finished",
		slog.String("dir", dir),
		slog.Duration("duration", time.Since(start)),
		slog.Int64("output_bytes", info.Size()),
	)
	return nil
}
