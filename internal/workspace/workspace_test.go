package workspace

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := NewManager(filepath.Join(t.TempDir(), "root"), logger)
	require.NoError(t, err)
	return m
}

func TestNewManager(t *testing.T) {
	t.Run("creates root if not exists", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "root")

		m, err := NewManager(root, nil)
		require.NoError(t, err)
		assert.Equal(t, root, m.Root())

		info, err := os.Stat(root)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("uses default root when empty", func(t *testing.T) {
		m, err := NewManager("", nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(os.TempDir(), "mediajobs"), m.Root())
	})
}

func TestManager_Acquire(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	t.Run("creates private directory", func(t *testing.T) {
		ws, err := m.Acquire(ctx)
		require.NoError(t, err)
		defer ws.Release()

		info, err := os.Stat(ws.Dir())
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
		assert.True(t, strings.HasPrefix(filepath.Base(ws.Dir()), ws.ID()+"-"))
		assert.Equal(t, m.Root(), filepath.Dir(ws.Dir()))
	})

	t.Run("concurrent acquisitions never share a directory", func(t *testing.T) {
		const n = 50
		var (
			mu   sync.Mutex
			wg   sync.WaitGroup
			dirs = make(map[string]bool)
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ws, err := m.Acquire(ctx)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				dirs[ws.Dir()] = true
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Len(t, dirs, n)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := m.Acquire(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWorkspace_Save(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	ws, err := m.Acquire(ctx)
	require.NoError(t, err)
	defer ws.Release()

	t.Run("writes file inside workspace", func(t *testing.T) {
		path, err := ws.Save(ctx, "clip.mp4", bytes.NewReader([]byte("video bytes")))
		require.NoError(t, err)
		assert.Equal(t, ws.Path("clip.mp4"), path)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "video bytes", string(content))
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		_, err := ws.Save(ctx, "dup.mp4", strings.NewReader("a"))
		require.NoError(t, err)

		_, err = ws.Save(ctx, "dup.mp4", strings.NewReader("b"))
		assert.Error(t, err)
	})

	t.Run("rejects names escaping the workspace", func(t *testing.T) {
		for _, name := range []string{"", ".", "..", "../evil", "a/b", `a\b`} {
			_, err := ws.Save(ctx, name, strings.NewReader("x"))
			assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
		}
	})

	t.Run("removes partial file on read error", func(t *testing.T) {
		_, err := ws.Save(ctx, "broken.bin", errReader{})
		require.Error(t, err)

		_, statErr := os.Stat(ws.Path("broken.bin"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := ws.Save(ctx, "late.mp4", strings.NewReader("x"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWorkspace_Release(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	ws, err := m.Acquire(ctx)
	require.NoError(t, err)

	_, err = ws.Save(ctx, "file.bin", strings.NewReader("data"))
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(ws.Path("sub"), 0700))

	ws.Release()
	_, statErr := os.Stat(ws.Dir())
	assert.True(t, os.IsNotExist(statErr))

	// Second release is a no-op.
	assert.NotPanics(t, ws.Release)
}

func TestManager_With(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	t.Run("releases on success", func(t *testing.T) {
		var dir string
		err := m.With(ctx, func(ws *Workspace) error {
			dir = ws.Dir()
			return nil
		})
		require.NoError(t, err)
		assert.NoDirExists(t, dir)
	})

	t.Run("releases on error and returns it", func(t *testing.T) {
		boom := errors.New("boom")
		var dir string
		err := m.With(ctx, func(ws *Workspace) error {
			dir = ws.Dir()
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoDirExists(t, dir)
	})

	t.Run("releases on panic", func(t *testing.T) {
		var dir string
		assert.Panics(t, func() {
			_ = m.With(ctx, func(ws *Workspace) error {
				dir = ws.Dir()
				panic("crash")
			})
		})
		assert.NoDirExists(t, dir)
	})
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, errors.New("read failed")
}
