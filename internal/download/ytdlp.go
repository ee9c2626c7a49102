// Package download fetches remote audio or video with the yt-dlp CLI.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Media selectors accepted by Download.
const (
	MediaAudio = "audio"
	MediaVideo = "video"
)

// Static errors for download operations.
var (
	// ErrInvalidURL is returned when the URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrUnknownMedia is returned for selectors other than audio and video.
	ErrUnknownMedia = errors.New("unknown media selector")
	// ErrNoOutput is returned when yt-dlp exits cleanly but no file was written.
	ErrNoOutput = errors.New("download produced no file")
)

// YTDLP downloads media with yt-dlp.
type YTDLP struct {
	path     string
	validate *validator.Validate
}

// NewYTDLP creates a YTDLP downloader.
// If path is empty, it defaults to "yt-dlp" (found via PATH).
func NewYTDLP(path string) *YTDLP {
	if path == "" {
		path = "yt-dlp"
	}
	return &YTDLP{path: path, validate: validator.New()}
}

// Download fetches url into outputDir as baseName.<ext>. Audio is extracted
// to MP3; video is fetched as MP4 when available. The written path is returned.
func (y *YTDLP) Download(ctx context.Context, url, media, outputDir, baseName string) (string, error) {
	if err := y.validate.Var(url, "required,http_url"); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, url)
	}

	args, err := buildArgs(url, media, filepath.Join(outputDir, baseName))
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	// #nosec G204 - the binary path is set by the application; url is validated
	cmd := exec.CommandContext(ctx, y.path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("yt-dlp cancelled: %w", ctx.Err())
		}
		return "", &ToolError{Args: args, Stderr: stderr.String(), Err: err}
	}

	if path := lastLine(stdout.String()); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	// Fall back to whatever yt-dlp left under the requested base name.
	matches, _ := filepath.Glob(filepath.Join(outputDir, baseName+".*"))
	for _, m := range matches {
		if !strings.HasSuffix(m, ".part") && !strings.HasSuffix(m, ".ytdl") {
			return m, nil
		}
	}
	return "", ErrNoOutput
}

// buildArgs returns the yt-dlp arguments for a media selector. outputBase is
// the output path without extension.
func buildArgs(url, media, outputBase string) ([]string, error) {
	args := []string{
		"--no-playlist",
		"--no-progress",
		"--restrict-filenames",
		"-o", outputBase + ".%(ext)s",
		"--print", "after_move:filepath",
	}

	switch media {
	case MediaAudio:
		args = append(args,
			"-x",                    // Extract audio
			"--audio-format", "mp3", // Transcode to mp3
		)
	case MediaVideo:
		args = append(args,
			"-f", "bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4]/bv*+ba/b",
			"--merge-output-format", "mp4",
		)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMedia, media)
	}

	return append(args, "--", url), nil
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// ToolError represents a failed yt-dlp run. Reason extracts the ERROR line
// yt-dlp prints for invalid URLs, geo or login restrictions and network failures.
type ToolError struct {
	Args   []string
	Stderr string
	Err    error
}

// Reason returns the last "ERROR:" line from stderr, or the exit error.
func (e *ToolError) Reason() string {
	lines := strings.Split(strings.TrimSpace(e.Stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(lines[i], "ERROR:") {
			return strings.TrimSpace(lines[i])
		}
	}
	return e.Err.Error()
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("yt-dlp error: %s", e.Reason())
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
