// Package textx provides small text and filename utilities used across the project.
package textx

import (
	"path/filepath"
	"regexp"
	"strings"
)

// NotFound is the sentinel standing in for a failed extraction. It is a
// value, not an error: absence of a match is a successful outcome.
const NotFound = "Not found"

var nonWordRun = regexp.MustCompile(`\W+`)

// SanitizeText removes control characters except tab/newline/CR and trims spaces.
func SanitizeText(s string) string {
	// strip control chars outside tab/newline/carriage return
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// NormalizeFolderName collapses every non-word run into a single underscore
// and lowercases the result. Resume subfolders are keyed by this form of the
// job-description filename (without extension).
func NormalizeFolderName(s string) string {
	return nonWordRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_")
}

// JobTitleFromFilename derives a human job title from a job-description
// filename. The naming contract: the filename must contain the phrase
// "application for" (case-insensitive); the title is everything after the
// first "for", with known extensions stripped and whitespace trimmed.
// Filenames outside the contract yield NotFound.
func JobTitleFromFilename(name string) string {
	base := filepath.Base(name)
	if !strings.Contains(strings.ToLower(base), "application for") {
		return NotFound
	}
	_, after, ok := strings.Cut(base, "for")
	if !ok {
		after = base
	}
	for _, ext := range []string{".docx", ".doc", ".pdf", ".txt"} {
		after = strings.ReplaceAll(after, ext, "")
	}
	return strings.TrimSpace(after)
}
