package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediajobs-api/internal/filtergraph"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available.
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping test")
	}
}

// fakeFFmpeg writes an executable shell script standing in for ffmpeg.
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0700)) // #nosec G306 - test helper must be executable
	return path
}

func TestNewFFmpegInvoker(t *testing.T) {
	t.Run("default path", func(t *testing.T) {
		p := NewFFmpegInvoker("")
		assert.Equal(t, "ffmpeg", p.Path())
	})

	t.Run("custom path", func(t *testing.T) {
		p := NewFFmpegInvoker("/usr/local/bin/ffmpeg")
		assert.Equal(t, "/usr/local/bin/ffmpeg", p.Path())
	})
}

func TestFFmpegInvoker_Invoke(t *testing.T) {
	ctx := context.Background()

	t.Run("missing executable on PATH", func(t *testing.T) {
		p := NewFFmpegInvoker("definitely-not-ffmpeg-" + fmt.Sprint(time.Now().UnixNano()))
		err := p.Invoke(ctx, t.TempDir(), []string{"-version"})
		assert.ErrorIs(t, err, ErrToolNotFound)
	})

	t.Run("missing executable by absolute path", func(t *testing.T) {
		p := NewFFmpegInvoker(filepath.Join(t.TempDir(), "nope", "ffmpeg"))
		err := p.Invoke(ctx, t.TempDir(), []string{"-version"})
		assert.ErrorIs(t, err, ErrToolNotFound)
	})

	t.Run("non-zero exit carries stderr", func(t *testing.T) {
		p := NewFFmpegInvoker(fakeFFmpeg(t, `echo "Unknown encoder 'nope'" >&2; exit 1`))
		err := p.Invoke(ctx, t.TempDir(), []string{"-c:a", "nope", "out.mp4"})

		var ffErr *FFmpegError
		require.ErrorAs(t, err, &ffErr)
		assert.Equal(t, "Unknown encoder 'nope'", ffErr.Diagnostic())
		assert.Equal(t, []string{"-c:a", "nope", "out.mp4"}, ffErr.Args)

		var exitErr *exec.ExitError
		assert.True(t, errors.As(err, &exitErr))
	})

	t.Run("runs in the given directory with argv untouched", func(t *testing.T) {
		dir := t.TempDir()
		p := NewFFmpegInvoker(fakeFFmpeg(t, `pwd > cwd.txt; printf '%s\n' "$@" > args.txt`))

		args := []string{"-i", "it's; $(echo injected)", "out file.mp4"}
		require.NoError(t, p.Invoke(ctx, dir, args))

		cwd, err := os.ReadFile(filepath.Join(dir, "cwd.txt"))
		require.NoError(t, err)
		wantDir, err := filepath.EvalSymlinks(dir)
		require.NoError(t, err)
		gotDir, err := filepath.EvalSymlinks(strings.TrimSpace(string(cwd)))
		require.NoError(t, err)
		assert.Equal(t, wantDir, gotDir)

		got, err := os.ReadFile(filepath.Join(dir, "args.txt"))
		require.NoError(t, err)
		assert.Equal(t, strings.Join(args, "\n")+"\n", string(got))
	})

	t.Run("context timeout kills the process", func(t *testing.T) {
		p := NewFFmpegInvoker(fakeFFmpeg(t, `exec sleep 30`))

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := p.Invoke(ctx, t.TempDir(), nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 10*time.Second)
	})
}

// createTestVideo creates a simple test video using ffmpeg.
func createTestVideo(t *testing.T, path string, duration float64) {
	t.Helper()

	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=red:s=64x64:d=%.1f", duration),
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=44100:cl=mono:d=%.1f", duration),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-c:a", "aac",
		"-shortest",
		path,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test video: %v\noutput: %s", err, output)
	}
}

// createTestAudio creates a short sine tone.
func createTestAudio(t *testing.T, path string, duration float64) {
	t.Helper()

	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=440:duration=%.1f", duration),
		path,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test audio: %v\noutput: %s", err, output)
	}
}

func TestVoiceover_RealFFmpeg(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	video := filepath.Join(dir, "video_clip.mp4")
	audio0 := filepath.Join(dir, "audio_0_voice.m4a")
	audio1 := filepath.Join(dir, "audio_1_voice.m4a")
	createTestVideo(t, video, 2.0)
	createTestAudio(t, audio0, 0.5)
	createTestAudio(t, audio1, 0.5)

	cmd := BuildVoiceover(VoiceoverParams{
		VideoPath:  video,
		AudioPaths: []string{audio0, audio1},
		Delays:     []float64{0.25, 1},
		OutputPath: filepath.Join(dir, "processed_clip.mp4"),
	})

	exe := NewExecutor(NewFFmpegInvoker(""), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, exe.Execute(context.Background(), dir, cmd))
}

func TestTextOverlay_RealFFmpeg(t *testing.T) {
	skipIfNoFFmpeg(t)

	font := "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"
	if _, err := os.Stat(font); err != nil {
		t.Skip("font not available, skipping test")
	}

	dir := t.TempDir()
	video := filepath.Join(dir, "video_clip.mp4")
	createTestVideo(t, video, 1.0)

	cmd := BuildTextOverlay(TextOverlayParams{
		VideoPath: video,
		Captions: []filtergraph.Caption{
			{Text: "it's: ok, really", StartTime: 0, Duration: 0.5, X: 1, Y: 2},
			{Text: "[second]", StartTime: 0.25, Duration: 0.5, X: 3, Y: 4},
		},
		Style:      filtergraph.DefaultStyle(font),
		OutputPath: filepath.Join(dir, "text_overlay_clip.mp4"),
	})

	exe := NewExecutor(NewFFmpegInvoker(""), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, exe.Execute(context.Background(), dir, cmd))
}

func TestVoiceover_RealFFmpeg_BadInput(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	video := filepath.Join(dir, "video_clip.mp4")
	require.NoError(t, os.WriteFile(video, []byte("not a video"), 0600))
	audio := filepath.Join(dir, "audio_0.m4a")
	require.NoError(t, os.WriteFile(audio, []byte("not audio"), 0600))

	cmd := BuildVoiceover(VoiceoverParams{
		VideoPath:  video,
		AudioPaths: []string{audio},
		Delays:     []float64{1},
		OutputPath: filepath.Join(dir, "processed_clip.mp4"),
	})

	exe := NewExecutor(NewFFmpegInvoker(""), slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := exe.Execute(context.Background(), dir, cmd)

	var ffErr *FFmpegError
	require.ErrorAs(t, err, &ffErr)
	assert.NotEmpty(t, ffErr.Diagnostic())
}
