// Package extractor turns raw uploaded bytes into page-numbered text,
// dispatching by content type or file extension.
package extractor

import (
	"fmt"
	"path/filepath"
	"strings"

	"docrag/internal/errs"
)

// Page is one logical page or section of extracted text.
type Page struct {
	Number int
	Text   string
}

// Extractor turns raw bytes into a sequence of pages.
type Extractor interface {
	Extract(data []byte) ([]Page, error)
}

// Registry dispatches by normalized content type, falling back to file
// extension when the content type is empty or generic.
type Registry struct {
	byContentType map[string]Extractor
	byExtension   map[string]Extractor
}

func NewRegistry() *Registry {
	pdf := &PDFExtractor{}
	text := &TextExtractor{}
	csv := &CSVExtractor{}
	docx := &DOCXExtractor{}
	xlsx := &XLSXExtractor{}

	return &Registry{
		byContentType: map[string]Extractor{
			"application/pdf": pdf,
			"text/plain":      text,
			"text/csv":        csv,
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": docx,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       xlsx,
		},
		byExtension: map[string]Extractor{
			".pdf":  pdf,
			".txt":  text,
			".csv":  csv,
			".docx": docx,
			".xlsx": xlsx,
		},
	}
}

// Extract dispatches to the right backend and renders the result as
// "[Page N]\n{text}" blocks joined by a blank line.
func (r *Registry) Extract(filename, contentType string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	ct := strings.ToLower(strings.TrimSpace(contentType))

	impl := r.byContentType[ct]
	if impl == nil {
		impl = r.byExtension[ext]
	}
	if impl == nil {
		return "", errs.BadRequest(
			fmt.Sprintf("unsupported content type %q (extension %q)", contentType, ext),
			map[string]any{"content_type": contentType, "extension": ext},
		)
	}

	pages, err := impl.Extract(data)
	if err != nil {
		return "", err
	}

	blocks := make([]string, 0, len(pages))
	for _, p := range pages {
		blocks = append(blocks, fmt.Sprintf("[Page %d]\n%s", p.Number, p.Text))
	}
	return strings.Join(blocks, "\n\n"), nil
}
