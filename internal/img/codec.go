// Package img implements image format conversion and the brightness/contrast
// enhancement using the imaging library.
package img

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WEBP input
)

// ErrUnsupportedFormat is returned for output formats the codec cannot write.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// WebPEncoder writes src as a WEBP image. The imaging library decodes WEBP
// but cannot encode it, so this is delegated to ffmpeg.
type WebPEncoder interface {
	EncodeWebP(ctx context.Context, src, dst string) error
}

// Codec converts images between PNG, JPEG and WEBP.
type Codec struct {
	webp    WebPEncoder
	quality int
}

// NewCodec creates a Codec. webp may be nil, in which case WEBP output fails.
func NewCodec(webp WebPEncoder) *Codec {
	return &Codec{webp: webp, quality: 95}
}

// ConvertImage decodes src and writes it to dst in the given format.
func (c *Codec) ConvertImage(ctx context.Context, src, dst, format string) error {
	switch format {
	case "webp":
		if c.webp == nil {
			return fmt.Errorf("%w: no webp encoder configured", ErrUnsupportedFormat)
		}
		return c.webp.EncodeWebP(ctx, src, dst)
	case "png", "jpg":
		im, err := imaging.Open(src, imaging.AutoOrientation(true))
		if err != nil {
			return fmt.Errorf("open: %w", err)
		}
		f, err := imaging.FormatFromExtension(format)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
		}
		return save(im, dst, f, c.quality)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// save encodes im to dst in format f regardless of dst's extension.
func save(im image.Image, dst string, f imaging.Format, quality int) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	out, err := os.Create(dst) // #nosec G304 - dst is generated by the dispatcher
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if err := imaging.Encode(out, im, f, imaging.JPEGQuality(quality)); err != nil {
		_ = out.Close()
		return fmt.Errorf("encode: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
