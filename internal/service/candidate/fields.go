// Package candidate pulls identity fields out of raw resume text.
package candidate

import (
	"regexp"

	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
	"github.com/fairyhunter13/ai-resume-screener/pkg/textx"
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	// Pakistani mobile numbers: optional +92 or 0 prefix, then 3 and nine digits.
	mobileRe = regexp.MustCompile(`(?:\+92|0)?3\d{9}\b`)
	// Two to four capitalized words (or all-caps acronyms) in a row.
	nameRe = regexp.MustCompile(`\b(?:[A-Z][a-z]+|[A-Z]{2,})(?:\s(?:[A-Z][a-z]+|[A-Z]{2,})){1,3}\b`)
)

// Extractor finds candidate identity fields in resume text.
type Extractor struct{}

// NewExtractor constructs an Extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// Extract returns the first match of each identity pattern. A field with no
// match is set to the "Not found" sentinel; extraction itself never fails.
func (e *Extractor) Extract(text string) domain.CandidateFields {
	return domain.CandidateFields{
		Name:   firstMatch(nameRe, text),
		Email:  firstMatch(emailRe, text),
		Mobile: firstMatch(mobileRe, text),
	}
}

func firstMatch(re *regexp.Regexp, text string) string {
	if m := re.FindString(text); m != "" {
		return m
	}
	return textx.NotFound
}
