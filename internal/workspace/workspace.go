// Package workspace provides request-scoped scratch directories.
// Every media job gets its own directory under a shared root; the directory
// owns the materialized uploads and the ffmpeg output and is removed when
// the job finishes, whatever the outcome.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/maauso/mediajobs-api/internal/job/id"
)

// ErrInvalidName is returned when a file name would escape the workspace.
var ErrInvalidName = errors.New("workspace: invalid file name")

// Manager allocates workspaces below a root directory.
type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager creates a new Manager.
// If root is empty, a "mediajobs" directory below os.TempDir() is used.
// The directory is created if it doesn't exist.
func NewManager(root string, logger *slog.Logger) (*Manager, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "mediajobs")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}

	return &Manager{root: root, logger: logger}, nil
}

// Root returns the directory under which workspaces are created.
func (m *Manager) Root() string {
	return m.root
}

// Acquire creates a new, uniquely named workspace directory readable only by
// the current process owner. The caller must call Release.
func (m *Manager) Acquire(ctx context.Context) (*Workspace, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	jobID := id.Generate()
	dir, err := os.MkdirTemp(m.root, jobID+"-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	m.logger.Debug("workspace acquired",
		slog.String("job_id", jobID),
		slog.String("dir", dir),
	)

	return &Workspace{
		id:     jobID,
		dir:    dir,
		logger: m.logger,
	}, nil
}

// With acquires a workspace, runs fn and releases the workspace on every
// exit path, including a panic inside fn.
func (m *Manager) With(ctx context.Context, fn func(ws *Workspace) error) error {
	ws, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	defer ws.Release()

	return fn(ws)
}

// Workspace is an exclusively owned scratch directory.
type Workspace struct {
	id     string
	dir    string
	logger *slog.Logger

	releaseOnce sync.Once
}

// ID returns the job ID the workspace was created for.
func (w *Workspace) ID() string {
	return w.id
}

// Dir returns the absolute workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the path of name inside the workspace. It does not check
// whether the file exists.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Save writes data to a new file called name inside the workspace and returns
// its path. The file must not already exist.
func (w *Workspace) Save(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	if err := checkName(name); err != nil {
		return "", err
	}

	path := w.Path(name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600) // #nosec G304 - name is checked above
	if err != nil {
		return "", fmt.Errorf("create workspace file: %w", err)
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write workspace file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close workspace file: %w", err)
	}

	return path, nil
}

// Release removes the workspace and everything in it. Removal errors are
// logged and otherwise ignored. Calling Release more than once is a no-op.
func (w *Workspace) Release() {
	w.releaseOnce.Do(func() {
		if err := os.RemoveAll(w.dir); err != nil {
			w.logger.Warn("failed to remove workspace",
				slog.String("job_id", w.id),
				slog.String("dir", w.dir),
				slog.String("error", err.Error()),
			)
			return
		}
		w.logger.Debug("workspace released",
			slog.String("job_id", w.id),
		)
	})
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
