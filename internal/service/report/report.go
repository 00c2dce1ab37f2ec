// Package report turns the scorer's free-text output into structured fields.
package report

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
)

// scoreRe finds the numeric score within a line. The label match is lazy so
// "Score (0-10): 7.5" still resolves to 7.5.
var scoreRe = regexp.MustCompile(`(?i)score.*?:\s*(\d+\.?\d*)`)

// Rule routes report lines containing any of Labels into Field.
type Rule struct {
	Labels []string `yaml:"labels"`
	Field  string   `yaml:"field"`
}

// Field names accepted in rules.
const (
	FieldStrengths      = "strengths"
	FieldRecommendation = "recommendation"
	FieldGaps           = "gaps"
)

func defaultRules() []Rule {
	return []Rule{
		{Labels: []string{"strengths"}, Field: FieldStrengths},
		{Labels: []string{"recommendation"}, Field: FieldRecommendation},
		{Labels: []string{"gap"}, Field: FieldGaps},
	}
}

// Parser extracts a domain.Report from raw report text using an ordered rule
// list. Per line, the first matching rule wins; across lines, the last
// matching line wins for each field.
type Parser struct {
	rules []Rule
}

// NewParser returns a Parser with the built-in grammar.
func NewParser() *Parser { return &Parser{rules: defaultRules()} }

// NewParserFromFile loads a YAML rule list from path. An empty path yields
// the built-in grammar.
func NewParserFromFile(path string) (*Parser, error) {
	if path == "" {
		return NewParser(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("op=report.NewParserFromFile: %w", err)
	}
	var rules []Rule
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("op=report.NewParserFromFile: %w", err)
	}
	for _, r := range rules {
		switch r.Field {
		case FieldStrengths, FieldRecommendation, FieldGaps:
		default:
			return nil, fmt.Errorf("op=report.NewParserFromFile: unknown field %q: %w", r.Field, domain.ErrInvalidArgument)
		}
	}
	if len(rules) == 0 {
		rules = defaultRules()
	}
	return &Parser{rules: rules}, nil
}

// Parse never fails: unmatched fields stay empty and an unmatched score
// stays zero, so a garbled report still yields a storable record.
func (p *Parser) Parse(text string) domain.Report {
	var rep domain.Report
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		// A score line is consumed even when its number does not parse; the
		// running score only changes on a successful match.
		if strings.Contains(lower, "score") {
			if m := scoreRe.FindStringSubmatch(line); m != nil {
				if v, err := strconv.ParseFloat(m[1], 64); err == nil {
					rep.Score = v
				}
			}
			continue
		}
		for _, rule := range p.rules {
			if !matchesAny(lower, rule.Labels) {
				continue
			}
			val := lineValue(line)
			switch rule.Field {
			case FieldStrengths:
				rep.Strengths = val
			case FieldRecommendation:
				rep.Recommendation = val
			case FieldGaps:
				rep.Gaps = val
			}
			break
		}
	}
	return rep
}

func matchesAny(lower string, labels []string) bool {
	for _, l := range labels {
		if strings.Contains(lower, strings.ToLower(l)) {
			return true
		}
	}
	return false
}

// lineValue keeps the text after the first colon, or the whole line when the
// label has no colon.
func lineValue(line string) string {
	if _, after, ok := strings.Cut(line, ":"); ok {
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(line)
}
