package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/maauso/mediaconv/internal/format"
	"github.com/maauso/mediaconv/internal/outname"
)

// Factor bounds for image enhancement.
const (
	MinFactor = 0.5
	MaxFactor = 2.0
)

// Static errors for dispatcher wiring.
var (
	// ErrCollaboratorMissing is returned when no collaborator is configured for an action.
	ErrCollaboratorMissing = errors.New("no collaborator configured")
	// ErrCollaboratorPanic wraps a panic raised inside a collaborator.
	ErrCollaboratorPanic = errors.New("collaborator panicked")
)

// Output file name prefixes per action.
var prefixes = map[format.ActionKind]string{
	format.ImageConvert:    "converted_image",
	format.VideoToAudio:    "extracted_audio",
	format.AudioConvert:    "converted_audio",
	format.VideoConvert:    "converted_video",
	format.ImageEnhance:    "enhanced_image",
	format.DocumentConvert: "converted_doc",
	format.RemoteDownload:  "download",
}

// Dispatcher maps a Request to the collaborator for its action. It holds no
// mutable state; concurrent calls only share the output directory, where each
// call writes a distinctly named file.
type Dispatcher struct {
	outputDir string
	c         Collaborators
	logger    *slog.Logger
	name      func(prefix, ext string) string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithNamer overrides output file name generation.
func WithNamer(fn func(prefix, ext string) string) Option {
	return func(d *Dispatcher) {
		d.name = fn
	}
}

// NewDispatcher creates a Dispatcher writing outputs to outputDir.
func NewDispatcher(outputDir string, c Collaborators, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		outputDir: outputDir,
		c:         c,
		logger:    logger,
		name:      outname.Generate,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OutputDir returns the directory outputs are written to.
func (d *Dispatcher) OutputDir() string {
	return d.outputDir
}

// Convert validates req, runs the matching collaborator and returns exactly
// one Result. It never panics and never returns a partially written output.
func (d *Dispatcher) Convert(ctx context.Context, req Request) (res Result) {
	start := time.Now()
	defer func() {
		d.log(req, res, time.Since(start))
	}()

	if !req.Kind.Valid() {
		return failed(UnsupportedFormat, "unknown action kind %q", req.Kind)
	}

	out := format.Normalize(req.Format)
	if out == "" {
		out = format.DefaultOutput(req.Kind)
	}
	if !format.Allows(req.Kind, out) {
		return failed(UnsupportedFormat, "%s cannot produce %q (allowed: %s)",
			req.Kind, req.Format, strings.Join(format.AllowedOutputs(req.Kind), ", "))
	}
	if !format.IsAcceptedInput(req.Kind, req.Input) {
		return failed(UnsupportedInput, "%s does not accept %q", req.Kind, filepath.Base(req.Input))
	}

	if err := os.MkdirAll(d.outputDir, 0750); err != nil {
		return failed(CollaboratorError, "create output directory: %v", err)
	}

	path, written, err := d.dispatch(ctx, req, out)
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			return Result{Failure: f}
		}
		return failed(CollaboratorError, "%v", err)
	}

	return succeeded(path, written, d.mimeOf(path, written))
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request, out string) (string, string, error) {
	switch req.Kind {
	case format.ImageConvert:
		return d.produce(req.Kind, out, func(dst string) error {
			if d.c.Images == nil {
				return ErrCollaboratorMissing
			}
			return d.c.Images.ConvertImage(ctx, req.Input, dst, out)
		})
	case format.VideoToAudio:
		return d.produce(req.Kind, out, func(dst string) error {
			if d.c.Transcoder == nil {
				return ErrCollaboratorMissing
			}
			return d.c.Transcoder.ExtractAudio(ctx, req.Input, dst, out)
		})
	case format.AudioConvert:
		return d.produce(req.Kind, out, func(dst string) error {
			if d.c.Transcoder == nil {
				return ErrCollaboratorMissing
			}
			return d.c.Transcoder.ConvertAudio(ctx, req.Input, dst, out)
		})
	case format.VideoConvert:
		return d.produce(req.Kind, out, func(dst string) error {
			if d.c.Transcoder == nil {
				return ErrCollaboratorMissing
			}
			return d.c.Transcoder.ConvertVideo(ctx, req.Input, dst)
		})
	case format.ImageEnhance:
		b, c := ClampFactor(req.Brightness), ClampFactor(req.Contrast)
		return d.produce(req.Kind, out, func(dst string) error {
			if d.c.Enhancer == nil {
				return ErrCollaboratorMissing
			}
			return d.c.Enhancer.Enhance(ctx, req.Input, dst, b, c)
		})
	case format.DocumentConvert:
		return d.convertDocument(ctx, req, out)
	case format.RemoteDownload:
		return d.download(ctx, req, out)
	default:
		return "", "", &Failure{Kind: UnsupportedFormat, Message: fmt.Sprintf("unknown action kind %q", req.Kind)}
	}
}

// convertDocument supports PDF to DOCX only: one paragraph per page, in
// page order.
func (d *Dispatcher) convertDocument(ctx context.Context, req Request, out string) (string, string, error) {
	src := format.Ext(req.Input)
	if src != "pdf" || out != "docx" {
		return "", "", &Failure{
			Kind:    NotImplemented,
			Message: fmt.Sprintf("%s to %s conversion is not implemented", strings.ToUpper(src), strings.ToUpper(out)),
		}
	}

	return d.produce(req.Kind, out, func(dst string) error {
		if d.c.Extractor == nil || d.c.Writer == nil {
			return ErrCollaboratorMissing
		}
		pages, err := d.c.Extractor.ExtractPages(ctx, req.Input)
		if err != nil {
			return fmt.Errorf("extract text: %w", err)
		}
		if err := d.c.Writer.WriteParagraphs(dst, pages); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
		return nil
	})
}

// download delegates naming of the extension to the downloader, since the
// container is only known once the remote media has been fetched.
func (d *Dispatcher) download(ctx context.Context, req Request, media string) (string, string, error) {
	if d.c.Downloader == nil {
		return "", "", ErrCollaboratorMissing
	}

	base := d.name(prefixes[req.Kind]+"_"+media, "")
	var path string
	err := guard(func() error {
		var err error
		path, err = d.c.Downloader.Download(ctx, req.Input, media, d.outputDir, base)
		return err
	})
	if err != nil {
		d.removeMatching(base)
		return "", "", err
	}
	return path, format.Ext(path), nil
}

// produce runs fn against a fresh output path and removes the file if fn fails.
func (d *Dispatcher) produce(kind format.ActionKind, out string, fn func(dst string) error) (string, string, error) {
	dst := filepath.Join(d.outputDir, d.name(prefixes[kind], out))
	if err := guard(func() error { return fn(dst) }); err != nil {
		_ = os.Remove(dst)
		return "", "", err
	}
	return dst, out, nil
}

func (d *Dispatcher) removeMatching(base string) {
	matches, _ := filepath.Glob(filepath.Join(d.outputDir, base+"*"))
	for _, m := range matches {
		_ = os.Remove(m)
	}
}

// mimeOf prefers the registry MIME type and falls back to content sniffing
// for containers the registry does not list.
func (d *Dispatcher) mimeOf(path, written string) string {
	if m := format.MIMEFor(written); m != "" {
		return m
	}
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "application/octet-stream"
	}
	return m.String()
}

func (d *Dispatcher) log(req Request, res Result, elapsed time.Duration) {
	attrs := []any{
		slog.String("kind", string(req.Kind)),
		slog.String("format", req.Format),
		slog.Duration("duration", elapsed),
	}
	switch {
	case res.Failure == nil:
		d.logger.Info("conversion completed", append(attrs,
			slog.String("output", res.Output.Path),
			slog.String("written", res.Output.Format),
		)...)
	case res.Failure.Kind == CollaboratorError:
		d.logger.Warn("collaborator failed", append(attrs,
			slog.String("error", res.Failure.Message),
		)...)
	default:
		d.logger.Info("conversion rejected", append(attrs,
			slog.String("failure", string(res.Failure.Kind)),
			slog.String("error", res.Failure.Message),
		)...)
	}
}

// guard runs fn and turns a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCollaboratorPanic, r)
		}
	}()
	return fn()
}

// ClampFactor maps an enhancement factor into [MinFactor, MaxFactor].
// Zero (unset) and NaN yield 1.
func ClampFactor(v float64) float64 {
	switch {
	case v == 0 || math.IsNaN(v):
		return 1
	case v < MinFactor:
		return MinFactor
	case v > MaxFactor:
		return MaxFactor
	default:
		return v
	}
}
