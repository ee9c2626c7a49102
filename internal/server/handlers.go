package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/maauso/mediaconv/internal/convert"
	"github.com/maauso/mediaconv/internal/format"
	"github.com/maauso/mediaconv/internal/storage"
)

//go:embed static/index.html
var indexHTML []byte

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to disk.
const multipartMemory = 32 << 20

// Converter runs conversions. *convert.Dispatcher satisfies it.
type Converter interface {
	Convert(ctx context.Context, req convert.Request) convert.Result
	OutputDir() string
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	conv      Converter
	store     storage.Storage
	validator *validator.Validate
	logger    *slog.Logger
	maxUpload int64
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithMaxUploadBytes limits the size of POST /convert bodies.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(conv Converter, store storage.Storage, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		conv:      conv,
		store:     store,
		validator: validator.New(),
		logger:    logger,
		maxUpload: 512 << 20,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Index handles GET / by serving the single-page UI.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexHTML)
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Actions handles GET /actions by listing the format registry.
func (h *Handlers) Actions(w http.ResponseWriter, r *http.Request) {
	kinds := format.Kinds()
	resp := make([]ActionResponse, 0, len(kinds))
	for _, k := range kinds {
		resp = append(resp, ActionResponse{
			Kind:           string(k),
			AcceptedInputs: format.AcceptedInputs(k),
			AllowedOutputs: format.AllowedOutputs(k),
			DefaultOutput:  format.DefaultOutput(k),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Convert handles POST /convert multipart uploads.
func (h *Handlers) Convert(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit", "UPLOAD_TOO_LARGE")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit", "UPLOAD_TOO_LARGE")
			return
		}
		h.logger.Warn("failed to parse multipart form",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid multipart form", "INVALID_FORM")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required", "MISSING_FILE")
		return
	}
	defer file.Close()

	form, err := parseConvertForm(r, header.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_FORM")
		return
	}

	// Validate request
	if err := h.validator.Struct(form); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	// Conversions outlive client disconnects.
	ctx := context.WithoutCancel(r.Context())

	input, err := h.store.SaveTemp(ctx, form.Filename, file)
	if err != nil {
		h.logger.Error("failed to store upload",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to store upload", "UPLOAD_FAILED")
		return
	}
	defer func() {
		if err := h.store.CleanupTemp(ctx, []string{input}); err != nil {
			h.logger.Warn("failed to remove upload",
				slog.String("path", input),
				slog.String("error", err.Error()),
			)
		}
	}()

	res := h.conv.Convert(ctx, convert.Request{
		Kind:       format.KindOf(form.Kind),
		Input:      input,
		Format:     form.Format,
		Brightness: form.Brightness,
		Contrast:   form.Contrast,
	})
	h.respond(ctx, w, res, form.Publish)
}

// Download handles POST /download requests.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	res := h.conv.Convert(ctx, convert.Request{
		Kind:   format.RemoteDownload,
		Input:  strings.TrimSpace(req.URL),
		Format: req.Media,
	})
	h.respond(ctx, w, res, req.Publish)
}

// Files handles GET /files/{name} by serving a produced output.
func (h *Handlers) Files(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !safeName(name) {
		writeError(w, http.StatusBadRequest, "invalid file name", "INVALID_NAME")
		return
	}

	path := filepath.Join(h.conv.OutputDir(), name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "file not found", "FILE_NOT_FOUND")
			return
		}
		h.logger.Error("failed to open output",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to open file", "FILE_READ_FAILED")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "file not found", "FILE_NOT_FOUND")
		return
	}

	w.Header().Set("Content-Type", contentType(path))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// respond renders res, publishing the output first when asked to.
func (h *Handlers) respond(ctx context.Context, w http.ResponseWriter, res convert.Result, publish bool) {
	if res.Failure != nil {
		writeJSON(w, statusFor(res.Failure.Kind), ConversionResponse{
			Failure: &FailureDTO{Kind: string(res.Failure.Kind), Message: res.Failure.Message},
		})
		return
	}
	if res.Output == nil {
		writeError(w, http.StatusInternalServerError, "conversion produced no result", "EMPTY_RESULT")
		return
	}

	name := filepath.Base(res.Output.Path)
	out := &OutputResponse{
		File:     name,
		URL:      "/files/" + name,
		Format:   res.Output.Format,
		MIMEType: res.Output.MIMEType,
	}

	if publish {
		url, err := h.publish(ctx, res.Output.Path)
		if err != nil {
			h.logger.Warn("failed to publish output",
				slog.String("file", name),
				slog.String("error", err.Error()),
			)
			out.PublishError = err.Error()
		} else {
			out.PublishedURL = url
		}
	}

	writeJSON(w, http.StatusOK, ConversionResponse{OK: true, Output: out})
}

func (h *Handlers) publish(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open output: %w", err)
	}
	defer f.Close()

	return h.store.Publish(ctx, filepath.Base(path), f)
}

// parseConvertForm reads the non-file fields of a /convert request.
func parseConvertForm(r *http.Request, filename string) (ConvertForm, error) {
	form := ConvertForm{
		Kind:     r.FormValue("kind"),
		Format:   r.FormValue("format"),
		Filename: filename,
	}

	var err error
	if form.Brightness, err = parseFactor(r.FormValue("brightness")); err != nil {
		return form, fmt.Errorf("brightness: %w", err)
	}
	if form.Contrast, err = parseFactor(r.FormValue("contrast")); err != nil {
		return form, fmt.Errorf("contrast: %w", err)
	}
	if v := r.FormValue("publish"); v != "" {
		if form.Publish, err = strconv.ParseBool(v); err != nil {
			return form, fmt.Errorf("publish: %w", err)
		}
	}
	return form, nil
}

// parseFactor parses an enhancement factor. Empty means unset.
func parseFactor(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}

// statusFor maps a failure kind to its HTTP status.
func statusFor(kind convert.FailureKind) int {
	switch kind {
	case convert.UnsupportedFormat, convert.UnsupportedInput:
		return http.StatusUnprocessableEntity
	case convert.NotImplemented:
		return http.StatusNotImplemented
	case convert.CollaboratorError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// safeName accepts plain file names only.
func safeName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return name == filepath.Base(name) && !strings.ContainsAny(name, `/\`)
}

// contentType declares the registry MIME type of a produced file, sniffing
// the content when the extension is not a registry format.
func contentType(path string) string {
	if ct := format.MIMEFor(format.Ext(path)); ct != "" {
		return ct
	}
	if m, err := mimetype.DetectFile(path); err == nil {
		return m.String()
	}
	return "application/octet-stream"
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
