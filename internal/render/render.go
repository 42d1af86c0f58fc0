// Package render turns raw document bytes into page-scoped layout
// primitives: text blocks with font metadata, images, and tables.
package render

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docstruct/internal/layout"
)

// Renderer converts raw document bytes into a layout document.
type Renderer interface {
	Render(r io.Reader, filename string) (*layout.Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".html": true,
	".htm":  true,
	".md":   true,

	".markdown": true,
}

// ForFile returns the appropriate renderer for a filename.
func ForFile(filename string) (Renderer, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFRenderer{}, nil
	case ".docx":
		return &DOCXRenderer{}, nil
	case ".html", ".htm":
		return &HTMLRenderer{}, nil
	case ".md", ".markdown":
		return &MarkdownRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
