package img

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Adjust returns a copy of src with each color channel multiplied by
// brightness and then by contrast, clamped to [0, 255] and truncated to
// 8 bits. Alpha is left untouched. With both factors at 1 the pixels are
// unchanged.
func Adjust(src image.Image, brightness, contrast float64) *image.NRGBA {
	return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: scale(c.R, brightness, contrast),
			G: scale(c.G, brightness, contrast),
			B: scale(c.B, brightness, contrast),
			A: c.A,
		}
	})
}

func scale(v uint8, brightness, contrast float64) uint8 {
	x := float64(v) * brightness * contrast
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}

// Enhancer applies Adjust to image files.
type Enhancer struct {
	quality int
}

// NewEnhancer creates an Enhancer.
func NewEnhancer() *Enhancer {
	return &Enhancer{quality: 95}
}

// Enhance reads src, applies Adjust and writes the result to dst in the
// format given by dst's extension.
func (e *Enhancer) Enhance(_ context.Context, src, dst string, brightness, contrast float64) error {
	// Pixels are adjusted as stored; EXIF orientation is not applied.
	im, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}

	f, err := imaging.FormatFromFilename(dst)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, dst)
	}
	return save(Adjust(im, brightness, contrast), dst, f, e.quality)
}
