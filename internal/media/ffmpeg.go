// Package media provides audio, video and image transcoding through the
// ffmpeg CLI.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Static errors for media operations.
var (
	// ErrUnsupportedAudioFormat is returned when no encoder is mapped for an audio format.
	ErrUnsupportedAudioFormat = errors.New("unsupported audio format")
	// ErrInputMissing is returned when the source file does not exist.
	ErrInputMissing = errors.New("input file does not exist")
)

// audioCodec holds the ffmpeg muxer and encoder for an audio output format.
type audioCodec struct {
	muxer   string
	encoder string
}

var audioCodecs = map[string]audioCodec{
	"mp3": {muxer: "mp3", encoder: "libmp3lame"},
	"wav": {muxer: "wav", encoder: "pcm_s16le"},
	"ogg": {muxer: "ogg", encoder: "libvorbis"},
}

// FFmpegTranscoder implements audio/video conversion and WEBP encoding using
// the ffmpeg CLI.
type FFmpegTranscoder struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
}

// NewFFmpegTranscoder creates a new FFmpegTranscoder.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegTranscoder(ffmpegPath string) *FFmpegTranscoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegTranscoder{ffmpegPath: ffmpegPath}
}

// ExtractAudio drops the video stream and encodes the audio of src into dst.
func (t *FFmpegTranscoder) ExtractAudio(ctx context.Context, src, dst, format string) error {
	args, err := extractAudioArgs(src, dst, format)
	if err != nil {
		return err
	}
	return t.run(ctx, src, dst, args)
}

// ConvertAudio re-encodes an audio file into format.
func (t *FFmpegTranscoder) ConvertAudio(ctx context.Context, src, dst, format string) error {
	args, err := convertAudioArgs(src, dst, format)
	if err != nil {
		return err
	}
	return t.run(ctx, src, dst, args)
}

// ConvertVideo converts src into the container implied by dst's extension,
// leaving codec selection to ffmpeg's defaults for that container.
func (t *FFmpegTranscoder) ConvertVideo(ctx context.Context, src, dst string) error {
	return t.run(ctx, src, dst, convertVideoArgs(src, dst))
}

// EncodeWebP writes the first frame of src as a WEBP image.
func (t *FFmpegTranscoder) EncodeWebP(ctx context.Context, src, dst string) error {
	return t.run(ctx, src, dst, encodeWebPArgs(src, dst))
}

func extractAudioArgs(src, dst, format string) ([]string, error) {
	codec, ok := audioCodecs[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAudioFormat, format)
	}
	return []string{
		"-y",      // Overwrite output file without asking
		"-i", src, // Input file
		"-vn",                    // Drop video
		"-acodec", codec.encoder, // Audio encoder
		"-f", codec.muxer, // Output container
		dst,
	}, nil
}

func convertAudioArgs(src, dst, format string) ([]string, error) {
	codec, ok := audioCodecs[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAudioFormat, format)
	}
	return []string{
		"-y",
		"-i", src,
		"-vn", // Drop embedded cover art
		"-c:a", codec.encoder,
		"-f", codec.muxer,
		dst,
	}, nil
}

func convertVideoArgs(src, dst string) []string {
	return []string{
		"-y",
		"-i", src,
		dst,
	}
}

func encodeWebPArgs(src, dst string) []string {
	return []string{
		"-y",
		"-i", src,
		"-frames:v", "1", // Single image
		"-c:v", "libwebp",
		"-f", "webp",
		dst,
	}
}

// run checks src, ensures dst's directory exists and executes ffmpeg.
func (t *FFmpegTranscoder) run(ctx context.Context, src, dst string, args []string) error {
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("%w: %s", ErrInputMissing, src)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return t.runFFmpeg(ctx, args)
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (t *FFmpegTranscoder) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, t.ffmpegPath, append([]string{"-hide_banner", "-nostdin"}, args...)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
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
