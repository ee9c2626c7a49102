// Package document extracts text from PDF files with poppler and writes
// DOCX files.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrNoPages is returned when a PDF yields no pages at all.
var ErrNoPages = errors.New("pdf has no pages")

// PopplerExtractor extracts per-page plain text using pdftotext.
type PopplerExtractor struct {
	pdftotextPath string
}

// NewPopplerExtractor creates a PopplerExtractor.
// If pdftotextPath is empty, it defaults to "pdftotext" (found via PATH).
func NewPopplerExtractor(pdftotextPath string) *PopplerExtractor {
	if pdftotextPath == "" {
		pdftotextPath = "pdftotext"
	}
	return &PopplerExtractor{pdftotextPath: pdftotextPath}
}

// ExtractPages returns the text of every page of pdfPath in page order.
// Pages without text are returned as empty strings so page positions are kept.
func (p *PopplerExtractor) ExtractPages(ctx context.Context, pdfPath string) ([]string, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	args := []string{
		"-enc", "UTF-8",
		pdfPath,
		"-", // Write to stdout
	}

	// #nosec G204 - pdftotextPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.pdftotextPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("pdftotext cancelled: %w", ctx.Err())
		}
		return nil, &ToolError{Tool: "pdftotext", Args: args, Stderr: stderr.String(), Err: err}
	}

	pages := splitPages(stdout.String())
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	return pages, nil
}

// splitPages splits pdftotext output on the form feed it emits after every
// page. Surrounding whitespace of each page is trimmed.
func splitPages(out string) []string {
	if out == "" {
		return nil
	}
	parts := strings.Split(out, "\f")
	if strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	pages := make([]string, len(parts))
	for i, part := range parts {
		pages[i] = strings.TrimSpace(part)
	}
	return pages
}

// ToolError represents a failed document tool invocation.
type ToolError struct {
	Tool   string
	Args   []string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s error: %v\nargs: %v\nstderr: %s", e.Tool, e.Err, e.Args, e.Stderr)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
