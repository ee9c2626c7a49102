package convert

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediaconv/internal/format"
)

// mockImages implements ImageCodec and ImageEnhancer for testing.
type mockImages struct {
	mock.Mock
}

func (m *mockImages) ConvertImage(ctx context.Context, src, dst, f string) error {
	args := m.Called(ctx, src, dst, f)
	return args.Error(0)
}

func (m *mockImages) Enhance(ctx context.Context, src, dst string, brightness, contrast float64) error {
	args := m.Called(ctx, src, dst, brightness, contrast)
	return args.Error(0)
}

// mockTranscoder implements Transcoder for testing.
type mockTranscoder struct {
	mock.Mock
}

func (m *mockTranscoder) ExtractAudio(ctx context.Context, src, dst, f string) error {
	args := m.Called(ctx, src, dst, f)
	return args.Error(0)
}

func (m *mockTranscoder) ConvertAudio(ctx context.Context, src, dst, f string) error {
	args := m.Called(ctx, src, dst, f)
	return args.Error(0)
}

func (m *mockTranscoder) ConvertVideo(ctx context.Context, src, dst string) error {
	args := m.Called(ctx, src, dst)
	return args.Error(0)
}

// mockExtractor implements TextExtractor for testing.
type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) ExtractPages(ctx context.Context, pdfPath string) ([]string, error) {
	args := m.Called(ctx, pdfPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// recordingWriter implements DocumentWriter and keeps the paragraphs it wrote.
type recordingWriter struct {
	paragraphs []string
	err        error
}

func (w *recordingWriter) WriteParagraphs(dst string, paragraphs []string) error {
	if w.err != nil {
		return w.err
	}
	w.paragraphs = append([]string(nil), paragraphs...)
	return os.WriteFile(dst, []byte("docx"), 0600)
}

// mockDownloader implements Downloader for testing.
type mockDownloader struct {
	mock.Mock
}

func (m *mockDownloader) Download(ctx context.Context, url, media, outputDir, baseName string) (string, error) {
	args := m.Called(ctx, url, media, outputDir, baseName)
	if fn, ok := args.Get(0).(func(context.Context, string, string, string, string) (string, error)); ok {
		return fn(ctx, url, media, outputDir, baseName)
	}
	return args.String(0), args.Error(1)
}

type fixture struct {
	d          *Dispatcher
	outDir     string
	images     *mockImages
	transcoder *mockTranscoder
	extractor  *mockExtractor
	writer     *recordingWriter
	downloader *mockDownloader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		outDir:     filepath.Join(t.TempDir(), "out"),
		images:     &mockImages{},
		transcoder: &mockTranscoder{},
		extractor:  &mockExtractor{},
		writer:     &recordingWriter{},
		downloader: &mockDownloader{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.d = NewDispatcher(f.outDir, Collaborators{
		Images:     f.images,
		Enhancer:   f.images,
		Transcoder: f.transcoder,
		Extractor:  f.extractor,
		Writer:     f.writer,
		Downloader: f.downloader,
	}, logger)
	return f
}

// writeDst is a mock Run func that creates the file at the dst argument.
func writeDst(index int) func(mock.Arguments) {
	return func(args mock.Arguments) {
		_ = os.WriteFile(args.String(index), []byte("output"), 0600)
	}
}

func (f *fixture) outputs(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.outDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestConvert_SupportedPairs(t *testing.T) {
	inputs := map[format.ActionKind]string{
		format.ImageConvert:    "photo.png",
		format.VideoToAudio:    "clip.mp4",
		format.AudioConvert:    "voice.wav",
		format.VideoConvert:    "clip.avi",
		format.ImageEnhance:    "photo.jpg",
		format.DocumentConvert: "paper.pdf",
		format.RemoteDownload:  "https://example.com/watch?v=1",
	}

	for _, kind := range format.Kinds() {
		for _, out := range format.AllowedOutputs(kind) {
			t.Run(string(kind)+"/"+out, func(t *testing.T) {
				f := newFixture(t)
				f.images.On("ConvertImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Run(writeDst(2)).Return(nil).Maybe()
				f.images.On("Enhance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Run(writeDst(2)).Return(nil).Maybe()
				f.transcoder.On("ExtractAudio", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Run(writeDst(2)).Return(nil).Maybe()
				f.transcoder.On("ConvertAudio", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Run(writeDst(2)).Return(nil).Maybe()
				f.transcoder.On("ConvertVideo", mock.Anything, mock.Anything, mock.Anything).Run(writeDst(2)).Return(nil).Maybe()
				f.extractor.On("ExtractPages", mock.Anything, mock.Anything).Return([]string{"p1"}, nil).Maybe()
				f.downloader.On("Download", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(filepath.Join(f.outDir, "dl.mp4"), nil).Maybe()

				res := f.d.Convert(context.Background(), Request{Kind: kind, Input: inputs[kind], Format: out})

				if res.Failure != nil {
					assert.NotEqual(t, UnsupportedFormat, res.Failure.Kind, res.Failure.Message)
				}
			})
		}
	}
}

func TestConvert_UnsupportedFormat(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"gif image", Request{Kind: format.ImageConvert, Input: "photo.png", Format: "gif"}},
		{"flac audio", Request{Kind: format.AudioConvert, Input: "voice.wav", Format: "flac"}},
		{"mkv video", Request{Kind: format.VideoConvert, Input: "clip.mp4", Format: "mkv"}},
		{"empty format without default", Request{Kind: format.ImageConvert, Input: "photo.png"}},
		{"txt document", Request{Kind: format.DocumentConvert, Input: "paper.pdf", Format: "txt"}},
		{"unknown kind", Request{Kind: "resize", Input: "photo.png", Format: "png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			res := f.d.Convert(context.Background(), tt.req)

			require.False(t, res.OK())
			require.NotNil(t, res.Failure)
			assert.Nil(t, res.Output)
			assert.Equal(t, UnsupportedFormat, res.Failure.Kind)
			assert.Empty(t, f.outputs(t))
			f.images.AssertNotCalled(t, "ConvertImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestConvert_UnsupportedInput(t *testing.T) {
	f := newFixture(t)

	res := f.d.Convert(context.Background(), Request{Kind: format.VideoToAudio, Input: "voice.wav", Format: "mp3"})

	require.NotNil(t, res.Failure)
	assert.Equal(t, UnsupportedInput, res.Failure.Kind)
	assert.Contains(t, res.Failure.Message, "voice.wav")
	f.transcoder.AssertNotCalled(t, "ExtractAudio", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConvert_ImageConvertSuccess(t *testing.T) {
	f := newFixture(t)
	f.images.On("ConvertImage", mock.Anything, "/in/photo.png", mock.Anything, "jpg").Run(writeDst(2)).Return(nil)

	res := f.d.Convert(context.Background(), Request{Kind: format.ImageConvert, Input: "/in/photo.png", Format: "JPEG"})

	require.True(t, res.OK(), "%v", res.Err())
	assert.Equal(t, "jpg", res.Output.Format)
	assert.Equal(t, "image/jpeg", res.Output.MIMEType)
	assert.Equal(t, f.outDir, filepath.Dir(res.Output.Path))
	assert.Regexp(t, `^converted_image_.*\.jpg$`, filepath.Base(res.Output.Path))
	assert.FileExists(t, res.Output.Path)
	f.images.AssertExpectations(t)
}

func TestConvert_VideoToAudioDefaultsToMP3(t *testing.T) {
	f := newFixture(t)
	f.transcoder.On("ExtractAudio", mock.Anything, "clip.mov", mock.Anything, "mp3").Run(writeDst(2)).Return(nil)

	res := f.d.Convert(context.Background(), Request{Kind: format.VideoToAudio, Input: "clip.mov"})

	require.True(t, res.OK(), "%v", res.Err())
	assert.Equal(t, "mp3", res.Output.Format)
	assert.Equal(t, "audio/mpeg", res.Output.MIMEType)
	assert.Regexp(t, `^extracted_audio_.*\.mp3$`, filepath.Base(res.Output.Path))
}

func TestConvert_VideoConvertPassesDestination(t *testing.T) {
	f := newFixture(t)
	f.transcoder.On("ConvertVideo", mock.Anything, "clip.mp4", mock.MatchedBy(func(dst string) bool {
		return filepath.Ext(dst) == ".mov"
	})).Run(writeDst(2)).Return(nil)

	res := f.d.Convert(context.Background(), Request{Kind: format.VideoConvert, Input: "clip.mp4", Format: "mov"})

	require.True(t, res.OK(), "%v", res.Err())
	f.transcoder.AssertExpectations(t)
}

func TestConvert_ImageEnhanceClampsFactors(t *testing.T) {
	tests := []struct {
		name                 string
		brightness, contrast float64
		wantB, wantC         float64
	}{
		{"unset means identity", 0, 0, 1, 1},
		{"within range", 1.5, 0.75, 1.5, 0.75},
		{"above range", 5, 2.5, 2, 2},
		{"below range", 0.1, -3, 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.images.On("Enhance", mock.Anything, "photo.png", mock.Anything, tt.wantB, tt.wantC).Run(writeDst(2)).Return(nil)

			res := f.d.Convert(context.Background(), Request{
				Kind:       format.ImageEnhance,
				Input:      "photo.png",
				Brightness: tt.brightness,
				Contrast:   tt.contrast,
			})

			require.True(t, res.OK(), "%v", res.Err())
			assert.Equal(t, "jpg", res.Output.Format)
			f.images.AssertExpectations(t)
		})
	}
}

func TestConvert_PDFToDOCXWritesOneParagraphPerPage(t *testing.T) {
	f := newFixture(t)
	f.extractor.On("ExtractPages", mock.Anything, "paper.pdf").Return([]string{"first page", "second page"}, nil)

	res := f.d.Convert(context.Background(), Request{Kind: format.DocumentConvert, Input: "paper.pdf", Format: "docx"})

	require.True(t, res.OK(), "%v", res.Err())
	assert.Equal(t, "docx", res.Output.Format)
	assert.Equal(t, []string{"first page", "second page"}, f.writer.paragraphs)
	assert.Regexp(t, `^converted_doc_.*\.docx$`, filepath.Base(res.Output.Path))
}

func TestConvert_DocumentPairsWithoutPath(t *testing.T) {
	tests := []struct {
		input, out string
	}{
		{"report.docx", "pdf"},
		{"report.docx", "docx"},
		{"paper.pdf", "pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.input+"->"+tt.out, func(t *testing.T) {
			f := newFixture(t)

			res := f.d.Convert(context.Background(), Request{Kind: format.DocumentConvert, Input: tt.input, Format: tt.out})

			require.NotNil(t, res.Failure)
			assert.Nil(t, res.Output)
			assert.Equal(t, NotImplemented, res.Failure.Kind)
			assert.Empty(t, f.outputs(t))
			f.extractor.AssertNotCalled(t, "ExtractPages", mock.Anything, mock.Anything)
		})
	}
}

func TestConvert_CollaboratorErrorIsCaptured(t *testing.T) {
	f := newFixture(t)
	f.transcoder.On("ConvertAudio", mock.Anything, "voice.wav", mock.Anything, "ogg").
		Run(writeDst(2)).
		Return(errors.New("Unknown encoder 'libvorbis'"))

	res := f.d.Convert(context.Background(), Request{Kind: format.AudioConvert, Input: "voice.wav", Format: "ogg"})

	require.NotNil(t, res.Failure)
	assert.Equal(t, CollaboratorError, res.Failure.Kind)
	assert.Contains(t, res.Failure.Message, "libvorbis")
	assert.Empty(t, f.outputs(t), "partial output must be removed")

	var failure *Failure
	require.ErrorAs(t, res.Err(), &failure)
	assert.Equal(t, CollaboratorError, failure.Kind)
}

func TestConvert_CollaboratorPanicIsCaptured(t *testing.T) {
	f := newFixture(t)
	f.images.On("ConvertImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("decoder exploded")
	}).Return(nil)

	var res Result
	require.NotPanics(t, func() {
		res = f.d.Convert(context.Background(), Request{Kind: format.ImageConvert, Input: "photo.png", Format: "png"})
	})

	require.NotNil(t, res.Failure)
	assert.Equal(t, CollaboratorError, res.Failure.Kind)
	assert.Contains(t, res.Failure.Message, "decoder exploded")
}

func TestConvert_ExtractorErrorIsCollaboratorError(t *testing.T) {
	f := newFixture(t)
	f.extractor.On("ExtractPages", mock.Anything, "broken.pdf").Return(nil, errors.New("Syntax Error: Couldn't find trailer dictionary"))

	res := f.d.Convert(context.Background(), Request{Kind: format.DocumentConvert, Input: "broken.pdf", Format: "docx"})

	require.NotNil(t, res.Failure)
	assert.Equal(t, CollaboratorError, res.Failure.Kind)
	assert.Contains(t, res.Failure.Message, "trailer dictionary")
}

func TestConvert_MissingCollaborator(t *testing.T) {
	d := NewDispatcher(t.TempDir(), Collaborators{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	res := d.Convert(context.Background(), Request{Kind: format.VideoConvert, Input: "clip.mp4", Format: "mp4"})

	require.NotNil(t, res.Failure)
	assert.Equal(t, CollaboratorError, res.Failure.Kind)
}

func TestConvert_RemoteDownload(t *testing.T) {
	t.Run("success reports the written container", func(t *testing.T) {
		f := newFixture(t)
		f.downloader.On("Download", mock.Anything, "https://example.com/v/1", "audio", f.outDir, mock.Anything).
			Return(func(_ context.Context, _, _, dir, base string) (string, error) {
				path := filepath.Join(dir, base+".mp3")
				return path, os.WriteFile(path, []byte("id3"), 0600)
			}, nil)

		res := f.d.Convert(context.Background(), Request{Kind: format.RemoteDownload, Input: "https://example.com/v/1", Format: "audio"})

		require.True(t, res.OK(), "%v", res.Err())
		assert.Equal(t, "mp3", res.Output.Format)
		assert.Equal(t, "audio/mpeg", res.Output.MIMEType)
	})

	t.Run("failure removes partial files", func(t *testing.T) {
		f := newFixture(t)
		f.downloader.On("Download", mock.Anything, mock.Anything, "video", f.outDir, mock.Anything).
			Return(func(_ context.Context, _, _, dir, base string) (string, error) {
				_ = os.WriteFile(filepath.Join(dir, base+".mp4.part"), []byte("x"), 0600)
				return "", errors.New("ERROR: Video unavailable. This video is not available in your country")
			}, nil)

		res := f.d.Convert(context.Background(), Request{Kind: format.RemoteDownload, Input: "https://example.com/v/2"})

		require.NotNil(t, res.Failure)
		assert.Equal(t, CollaboratorError, res.Failure.Kind)
		assert.Contains(t, res.Failure.Message, "not available in your country")
		assert.Empty(t, f.outputs(t))
	})

	t.Run("non-url input", func(t *testing.T) {
		f := newFixture(t)

		res := f.d.Convert(context.Background(), Request{Kind: format.RemoteDownload, Input: "clip.mp4", Format: "video"})

		require.NotNil(t, res.Failure)
		assert.Equal(t, UnsupportedInput, res.Failure.Kind)
	})
}

func TestClampFactor(t *testing.T) {
	assert.Equal(t, 1.0, ClampFactor(0))
	assert.Equal(t, 0.5, ClampFactor(0.2))
	assert.Equal(t, 2.0, ClampFactor(9))
	assert.Equal(t, 1.25, ClampFactor(1.25))
}

func TestResult(t *testing.T) {
	ok := succeeded("/out/a.png", "png", "image/png")
	assert.True(t, ok.OK())
	assert.NoError(t, ok.Err())

	bad := failed(NotImplemented, "%s to %s", "DOCX", "PDF")
	assert.False(t, bad.OK())
	assert.EqualError(t, bad.Err(), "NotImplemented: DOCX to PDF")
}
