// Package bootstrap provides dependency initialization for the media converter.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/maauso/mediaconv/internal/config"
	"github.com/maauso/mediaconv/internal/convert"
	"github.com/maauso/mediaconv/internal/document"
	"github.com/maauso/mediaconv/internal/download"
	"github.com/maauso/mediaconv/internal/img"
	"github.com/maauso/mediaconv/internal/media"
	"github.com/maauso/mediaconv/internal/storage"
)

// Dependencies holds all initialized dependencies for the shells.
type Dependencies struct {
	Dispatcher *convert.Dispatcher
	Storage    storage.Storage
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Dispatcher: NewDispatcher(cfg, cfg.OutputDir(), logger),
		Storage:    store,
	}, nil
}

// NewDispatcher wires the external tools named in cfg into a Dispatcher that
// writes to outputDir.
func NewDispatcher(cfg *config.Config, outputDir string, logger *slog.Logger) *convert.Dispatcher {
	transcoder := media.NewFFmpegTranscoder(cfg.FFmpegPath)

	collaborators := convert.Collaborators{
		Images:     img.NewCodec(transcoder),
		Enhancer:   img.NewEnhancer(),
		Transcoder: transcoder,
		Extractor:  document.NewPopplerExtractor(cfg.PdftotextPath),
		Writer:     document.NewDocxWriter(),
		Downloader: download.NewYTDLP(cfg.YtdlpPath),
	}

	return convert.NewDispatcher(outputDir, collaborators, logger)
}

// MissingTools returns the configured external tools that cannot be resolved,
// keyed by the configured path.
func MissingTools(cfg *config.Config) map[string]error {
	missing := map[string]error{}
	for _, tool := range []string{cfg.FFmpegPath, cfg.PdftotextPath, cfg.YtdlpPath} {
		if _, err := exec.LookPath(tool); err != nil {
			missing[tool] = err
		}
	}
	return missing
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			PresignTTL:      cfg.S3PresignTTL,
		}
		s3Store, err := storage.NewS3Storage(cfg.UploadDir(), s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
			slog.Duration("presign_ttl", cfg.S3PresignTTL),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.UploadDir())
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("upload_dir", cfg.UploadDir()),
	)
	return localStore, nil
}
