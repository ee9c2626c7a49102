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
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrInvalidPort is returned when PORT is outside 1..65535.
	ErrInvalidPort = errors.New("config: PORT must be between 1 and 65535")
	// ErrInvalidMaxUpload is returned when MAX_UPLOAD_MB is not positive.
	ErrInvalidMaxUpload = errors.New("config: MAX_UPLOAD_MB must be positive")
	// ErrWorkDirRequired is returned when WORK_DIR is empty.
	ErrWorkDirRequired = errors.New("config: WORK_DIR is required")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int    `env:"PORT, default=8080" json:"port"`
	Host string `env:"HOST" json:"host,omitempty"`
	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=*" json:"allowed_origins"`

	// Working directory; outputs and uploads live below it.
	WorkDir     string `env:"WORK_DIR, default=/tmp/mediaconv" json:"work_dir"`
	MaxUploadMB int    `env:"MAX_UPLOAD_MB, default=512" json:"max_upload_mb"`

	// External tools
	FFmpegPath    string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	PdftotextPath string `env:"PDFTOTEXT_PATH, default=pdftotext" json:"pdftotext_path"`
	YtdlpPath     string `env:"YTDLP_PATH, default=yt-dlp" json:"ytdlp_path"`

	// Optional S3 settings
	S3Bucket           string        `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string        `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string        `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	S3PresignTTL       time.Duration `env:"S3_PRESIGN_TTL" json:"s3_presign_ttl,omitempty"`
	AWSAccessKeyID     string        `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string        `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// OutputDir is where converted files are written.
func (c *Config) OutputDir() string {
	return filepath.Join(c.WorkDir, "outputs")
}

// UploadDir is where uploaded inputs are held during a conversion.
func (c *Config) UploadDir() string {
	return filepath.Join(c.WorkDir, "uploads")
}

// MaxUploadBytes returns MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Load reads configuration from environment variables using go-envconfig.
// A .env file in the working directory is read first when present; values
// already set in the environment win.
func Load() (*Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv files. Missing files are skipped.
func LoadFiles(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
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

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.MaxUploadMB <= 0 {
		return ErrInvalidMaxUpload
	}
	if strings.TrimSpace(c.WorkDir) == "" {
		return ErrWorkDirRequired
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	return c.NewLoggerTo(os.Stdout)
}

// NewLoggerTo is NewLogger writing to w.
func (c *Config) NewLoggerTo(w io.Writer) *slog.Logger {
	return slog.New(c.newHandler(w))
}

func (c *Config) newHandler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}
	if strings.ToLower(c.LogFormat) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Addr: %s, WorkDir: %s, MaxUploadMB: %d, FFmpegPath: %s, PdftotextPath: %s, YtdlpPath: %s, S3Bucket: %s, S3Region: %s, S3Endpoint: %s, LogFormat: %s, LogLevel: %s}",
		c.Addr(),
		c.WorkDir,
		c.MaxUploadMB,
		c.FFmpegPath,
		c.PdftotextPath,
		c.YtdlpPath,
		c.S3Bucket,
		c.S3Region,
		c.S3Endpoint,
		c.LogFormat,
		c.LogLevel,
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
