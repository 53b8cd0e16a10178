package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"
)

// Static errors for media operations.
var (
	// ErrToolNotFound is returned when the ffmpeg executable cannot be started.
	ErrToolNotFound = errors.New("FFmpeg not found. Please ensure FFmpeg is installed and accessible in your PATH")
	// ErrOutputMissing is returned when ffmpeg exits successfully without
	// producing a non-empty output file.
	ErrOutputMissing = errors.New("Output file not found")
	// ErrOutputExists is returned when the output path is already taken
	// before ffmpeg runs.
	ErrOutputExists = errors.New("output file already exists")
)

// defaultWaitDelay bounds how long Invoke waits for ffmpeg's pipes to close
// after the process was killed on context cancellation.
const defaultWaitDelay = 5 * time.Second

// FFmpegInvoker implements Invoker using the ffmpeg CLI.
type FFmpegInvoker struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	waitDelay  time.Duration
}

// Compile-time check that FFmpegInvoker implements Invoker.
var _ Invoker = (*FFmpegInvoker)(nil)

// NewFFmpegInvoker creates a new FFmpegInvoker.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegInvoker(ffmpegPath string) *FFmpegInvoker {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegInvoker{ffmpegPath: ffmpegPath, waitDelay: defaultWaitDelay}
}

// Path returns the configured ffmpeg executable.
func (p *FFmpegInvoker) Path() string {
	return p.ffmpegPath
}

// Invoke executes ffmpeg with the given arguments in dir and returns an error
// containing stderr output if the command fails. The process is killed when
// ctx is done.
func (p *FFmpegInvoker) Invoke(ctx context.Context, dir string, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, args are an argv vector, not shell input
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)
	cmd.Dir = dir
	cmd.WaitDelay = p.waitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	// Check if context was cancelled
	if ctx.Err() != nil {
		return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %w", ErrToolNotFound, err)
	}

	return &FFmpegError{
		Args:   args,
		Stderr: stderr.String(),
		Err:    err,
	}
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

// Diagnostic returns the text reported to clients: the captured stderr, or
// the process error when ffmpeg printed nothing.
func (e *FFmpegError) Diagnostic() string {
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return s
	}
	return e.Err.Error()
}
