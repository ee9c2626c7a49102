package convert

import "context"

// ImageCodec re-encodes an image file into the given output format.
type ImageCodec interface {
	ConvertImage(ctx context.Context, src, dst, format string) error
}

// ImageEnhancer writes src with every color channel multiplied by
// brightness*contrast to dst.
type ImageEnhancer interface {
	Enhance(ctx context.Context, src, dst string, brightness, contrast float64) error
}

// Transcoder runs audio and video conversions.
type Transcoder interface {
	// ExtractAudio writes the audio track of a video to dst.
	ExtractAudio(ctx context.Context, src, dst, format string) error
	// ConvertAudio re-encodes an audio file.
	ConvertAudio(ctx context.Context, src, dst, format string) error
	// ConvertVideo converts a video into the container implied by dst.
	ConvertVideo(ctx context.Context, src, dst string) error
}

// TextExtractor returns the plain text of every page of a PDF, in page order.
type TextExtractor interface {
	ExtractPages(ctx context.Context, pdfPath string) ([]string, error)
}

// DocumentWriter writes one paragraph per entry to a new DOCX file.
type DocumentWriter interface {
	WriteParagraphs(dst string, paragraphs []string) error
}

// Downloader fetches remote media into outputDir. The file is named
// baseName plus whatever extension the downloaded container has; the full
// path is returned.
type Downloader interface {
	Download(ctx context.Context, url, media, outputDir, baseName string) (string, error)
}

// Collaborators groups the external tools the Dispatcher delegates to.
// A nil collaborator makes its actions fail with CollaboratorError.
type Collaborators struct {
	Images     ImageCodec
	Enhancer   ImageEnhancer
	Transcoder Transcoder
	Extractor  TextExtractor
	Writer     DocumentWriter
	Downloader Downloader
}
