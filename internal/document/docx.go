package document

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gomutex/godocx"
)

// DocxWriter writes plain paragraphs into a new DOCX document.
type DocxWriter struct{}

// NewDocxWriter creates a DocxWriter.
func NewDocxWriter() *DocxWriter {
	return &DocxWriter{}
}

// WriteParagraphs creates dst with one paragraph per entry, in order.
func (w *DocxWriter) WriteParagraphs(dst string, paragraphs []string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("new document: %w", err)
	}

	for _, p := range paragraphs {
		doc.AddParagraph(p)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := doc.SaveTo(dst); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}
