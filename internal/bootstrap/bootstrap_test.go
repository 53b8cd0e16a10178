package bootstrap

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediajobs-api/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Port:               5000,
		RequestTimeout:     time.Minute,
		MaxUploadBytes:     1 << 20,
		MaxFormMemoryBytes: 1 << 10,
		TempDir:            filepath.Join(t.TempDir(), "work"),
		FFmpegPath:         filepath.Join(t.TempDir(), "no-ffmpeg"),
		FontFile:           filepath.Join(t.TempDir(), "missing.ttf"),
		MetricsEnabled:     true,
	}
}

func TestNewDependencies(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	deps, err := NewDependencies(testConfig(t), logger)
	require.NoError(t, err)

	assert.NotNil(t, deps.MediaService)
	assert.NotNil(t, deps.Metrics)
	assert.Contains(t, buf.String(), "ffmpeg not found")
	assert.Contains(t, buf.String(), "caption font not found")
}

func TestNewDependencies_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsEnabled = false

	deps, err := NewDependencies(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Nil(t, deps.Metrics)
}
