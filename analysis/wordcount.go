// Package analysis is the aggregation core: it folds per-reference text
// measurements into per-agency maps, rolls totals up the agency tree
// without double counting, and merges correction records reachable
// through multiple agency paths.
package analysis

import (
	"regexp"
	"strings"
)

// Citation boilerplate stripped before word counting: Federal Register
// source credits like "[86 FR 12345, Mar. 1, 2021]" and bracketed
// editorial notes ("[Reserved]"). One tokenization rule is applied
// everywhere word counts are reported so normalization stays comparable
// across agencies.
var boilerplatePattern = regexp.MustCompile(`\[\d+\s+FR\s+[^\]]*\]|\[Reserved\]`)

// StripBoilerplate removes citation boilerplate from regulation text.
func StripBoilerplate(text string) string {
	return boilerplatePattern.ReplaceAllString(text, " ")
}

// WordCount counts whitespace-delimited tokens after boilerplate
// stripping. "We promote equity and inclusion. Equity matters." counts 8.
func WordCount(text string) int {
	return len(strings.Fields(StripBoilerplate(text)))
}
