// Package local extracts plain text from resume files on disk.
//
// Dispatch is by file extension: PDF via ledongthuc/pdf, DOC/DOCX via
// nguyenthenguyen/docx, TXT read as-is. Anything else is unsupported.
package local

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
	"github.com/fairyhunter13/ai-resume-screener/pkg/textx"
)

var (
	paragraphEnd = regexp.MustCompile(`</w:p>`)
	xmlTag       = regexp.MustCompile(`<[^>]*>`)
)

// Extractor implements domain.TextExtractor for local files.
type Extractor struct{}

// New constructs an Extractor.
func New() *Extractor { return &Extractor{} }

// ExtractPath reads path and returns sanitized plain text.
func (e *Extractor) ExtractPath(ctx domain.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("op=local.ExtractPath: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.extractPDF(path)
	case ".doc", ".docx":
		return e.extractDocx(path)
	case ".txt":
		return e.extractTxt(path)
	default:
		return "", fmt.Errorf("op=local.ExtractPath: ext=%s: %w", filepath.Ext(path), domain.ErrUnsupportedFormat)
	}
}

func (e *Extractor) extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("op=local.extractPDF: open: %v: %w", err, domain.ErrExtractionFailed)
	}
	defer func() { _ = f.Close() }()

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("op=local.extractPDF: plaintext: %v: %w", err, domain.ErrExtractionFailed)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", fmt.Errorf("op=local.extractPDF: read: %v: %w", err, domain.ErrExtractionFailed)
	}
	return textx.SanitizeText(buf.String()), nil
}

func (e *Extractor) extractDocx(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("op=local.extractDocx: open: %v: %w", err, domain.ErrExtractionFailed)
	}
	defer func() { _ = r.Close() }()

	content := r.Editable().GetContent()
	// One line per paragraph, tags stripped, entities unescaped.
	content = paragraphEnd.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")
	return textx.SanitizeText(html.UnescapeString(content)), nil
}

func (e *Extractor) extractTxt(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("op=local.extractTxt: %v: %w", err, domain.ErrNotFound)
		}
		return "", fmt.Errorf("op=local.extractTxt: %v: %w", err, domain.ErrExtractionFailed)
	}
	return textx.SanitizeText(string(raw)), nil
}
