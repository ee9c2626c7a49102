package download

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewYTDLP(t *testing.T) {
	assert.Equal(t, "yt-dlp", NewYTDLP("").path)
	assert.Equal(t, "/usr/local/bin/yt-dlp", NewYTDLP("/usr/local/bin/yt-dlp").path)
}

func TestBuildArgs(t *testing.T) {
	t.Run("audio", func(t *testing.T) {
		args, err := buildArgs("https://example.com/v/1", MediaAudio, "/out/dl")
		require.NoError(t, err)
		assert.Contains(t, args, "-x")
		assert.Contains(t, args, "mp3")
		assert.Contains(t, args, "/out/dl.%(ext)s")
		assert.Equal(t, []string{"--", "https://example.com/v/1"}, args[len(args)-2:])
	})

	t.Run("video", func(t *testing.T) {
		args, err := buildArgs("https://example.com/v/1", MediaVideo, "/out/dl")
		require.NoError(t, err)
		assert.Contains(t, args, "--merge-output-format")
		assert.NotContains(t, args, "-x")
	})

	t.Run("unknown media", func(t *testing.T) {
		_, err := buildArgs("https://example.com/v/1", "subtitles", "/out/dl")
		assert.ErrorIs(t, err, ErrUnknownMedia)
	})
}

func TestDownload_InvalidURL(t *testing.T) {
	tests := []string{"", "not a url", "ftp://example.com/a.mp4", "/local/file.mp4"}

	for _, url := range tests {
		t.Run(url, func(t *testing.T) {
			_, err := NewYTDLP("").Download(context.Background(), url, MediaVideo, t.TempDir(), "dl")
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

// fakeYTDLP writes a shell script standing in for yt-dlp.
func fakeYTDLP(t *testing.T, script string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH, skipping test")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0700))
	return path
}

func TestDownload_ReportsPrintedPath(t *testing.T) {
	out := t.TempDir()
	bin := fakeYTDLP(t, `
touch "`+out+`/dl.mp4"
echo "`+out+`/dl.mp4"
`)

	path, err := NewYTDLP(bin).Download(context.Background(), "https://example.com/v/1", MediaVideo, out, "dl")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "dl.mp4"), path)
}

func TestDownload_FallsBackToGlob(t *testing.T) {
	out := t.TempDir()
	bin := fakeYTDLP(t, `touch "`+out+`/dl.mp3"`)

	path, err := NewYTDLP(bin).Download(context.Background(), "https://example.com/v/1", MediaAudio, out, "dl")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "dl.mp3"), path)
}

func TestDownload_NoOutput(t *testing.T) {
	bin := fakeYTDLP(t, "exit 0")

	_, err := NewYTDLP(bin).Download(context.Background(), "https://example.com/v/1", MediaAudio, t.TempDir(), "dl")
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestDownload_ToolErrorReason(t *testing.T) {
	bin := fakeYTDLP(t, `
echo "[generic] Extracting URL" >&2
echo "ERROR: [youtube] abc: Video unavailable. This video is not available in your country" >&2
exit 1
`)

	_, err := NewYTDLP(bin).Download(context.Background(), "https://example.com/v/1", MediaVideo, t.TempDir(), "dl")
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Contains(t, toolErr.Reason(), "not available in your country")
	assert.Contains(t, err.Error(), "ERROR: [youtube]")
}
