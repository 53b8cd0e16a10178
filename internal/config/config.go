// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DotEnvFile is the optional file loaded before the environment is read.
// Variables already present in the environment take precedence.
const DotEnvFile = ".env"

// Static errors for configuration validation.
var (
	// ErrInvalidPort is returned when PORT is outside 1-65535.
	ErrInvalidPort = errors.New("config: PORT must be between 1 and 65535")
	// ErrFFmpegPathRequired is returned when FFMPEG_PATH is empty.
	ErrFFmpegPathRequired = errors.New("config: FFMPEG_PATH must not be empty")
	// ErrInvalidRequestTimeout is returned when REQUEST_TIMEOUT is not positive.
	ErrInvalidRequestTimeout = errors.New("config: REQUEST_TIMEOUT must be positive")
	// ErrInvalidUploadLimit is returned when an upload limit is not positive.
	ErrInvalidUploadLimit = errors.New("config: MAX_UPLOAD_BYTES and MAX_FORM_MEMORY_BYTES must be positive")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port           int           `env:"PORT, default=5000" json:"port"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, default=5m" json:"request_timeout"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`
	MetricsEnabled bool          `env:"METRICS_ENABLED, default=true" json:"metrics_enabled"`

	// Upload settings
	MaxUploadBytes     int64 `env:"MAX_UPLOAD_BYTES, default=2147483648" json:"max_upload_bytes"`
	MaxFormMemoryBytes int64 `env:"MAX_FORM_MEMORY_BYTES, default=33554432" json:"max_form_memory_bytes"`

	// Processing settings
	TempDir    string `env:"TEMP_DIR, default=/tmp/mediajobs" json:"temp_dir"`
	FFmpegPath string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FontFile   string `env:"FONT_FILE, default=/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf" json:"font_file"`

	// Logging settings
	LogFormat         string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel          string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
	LogFile           string `env:"LOG_FILE" json:"log_file,omitempty"`
	LogFileMaxSizeMB  int    `env:"LOG_FILE_MAX_SIZE_MB, default=100" json:"log_file_max_size_mb"`
	LogFileMaxBackups int    `env:"LOG_FILE_MAX_BACKUPS, default=5" json:"log_file_max_backups"`
	LogFileMaxAgeDays int    `env:"LOG_FILE_MAX_AGE_DAYS, default=28" json:"log_file_max_age_days"`
}

// Load reads configuration from environment variables using go-envconfig,
// after loading DotEnvFile if it exists.
func Load() (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if strings.TrimSpace(c.FFmpegPath) == "" {
		return ErrFFmpegPathRequired
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidRequestTimeout
	}
	if c.MaxUploadBytes <= 0 || c.MaxFormMemoryBytes <= 0 {
		return ErrInvalidUploadLimit
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs. When LogFile is set, logs
// are also written to a size-rotated file.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}
	out := c.logWriter()

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

func (c *Config) logWriter() io.Writer {
	if c.LogFile == "" {
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   c.LogFile,
		MaxSize:    c.LogFileMaxSizeMB,
		MaxBackups: c.LogFileMaxBackups,
		MaxAge:     c.LogFileMaxAgeDays,
	})
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, RequestTimeout: %s, AllowedOrigins: %v, MetricsEnabled: %t, MaxUploadBytes: %d, MaxFormMemoryBytes: %d, TempDir: %s, FFmpegPath: %s, FontFile: %s, LogFormat: %s, LogLevel: %s, LogFile: %s}",
		c.Port,
		c.RequestTimeout,
		c.AllowedOrigins,
		c.MetricsEnabled,
		c.MaxUploadBytes,
		c.MaxFormMemoryBytes,
		c.TempDir,
		c.FFmpegPath,
		c.FontFile,
		c.LogFormat,
		c.LogLevel,
		c.LogFile,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
