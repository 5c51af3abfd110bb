// Package keyword provides word-boundary keyword and phrase matching for
// regulation text. Matching is pure and deterministic: the same text and
// keyword list always produce the same counts.
package keyword

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// MatchResult holds per-keyword occurrence counts and their sum.
type MatchResult struct {
	PerKeyword map[string]int
	Total      int
}

// Matcher counts occurrences of a fixed keyword list in text.
//
// Each keyword gets its own compiled pattern rather than one big
// alternation: overlapping occurrences of different keywords (e.g.
// "equity" inside "gender equity") must each count independently, and a
// single alternation would consume the span for whichever branch wins.
type Matcher struct {
	keywords []string
	patterns []*regexp.Regexp
}

// New compiles a matcher for the given keywords. Keywords are lowercased
// and deduplicated; a keyword may be a multi-word phrase, matched across
// any run of whitespace. An empty list is valid and matches nothing.
func New(keywords []string) (*Matcher, error) {
	seen := make(map[string]struct{}, len(keywords))
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		normalized = append(normalized, kw)
	}
	sort.Strings(normalized)

	m := &Matcher{keywords: normalized}
	for _, kw := range normalized {
		parts := strings.Fields(kw)
		for i, p := range parts {
			parts[i] = regexp.QuoteMeta(p)
		}
		expr := `(?i)\b` + strings.Join(parts, `\s+`) + `\b`
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile keyword %q: %w", kw, err)
		}
		m.patterns = append(m.patterns, re)
	}
	return m, nil
}

// MustNew is like New but panics on compile failure. Intended for the
// built-in word lists, which are known-good.
func MustNew(keywords []string) *Matcher {
	m, err := New(keywords)
	if err != nil {
		panic(err)
	}
	return m
}

// Keywords returns the normalized keyword list in sorted order.
func (m *Matcher) Keywords() []string {
	out := make([]string, len(m.keywords))
	copy(out, m.keywords)
	return out
}

// Match counts every occurrence of every keyword in text. Empty text or an
// empty keyword list yields a zero result, not an error. Repeated
// occurrences of one keyword all count; occurrences of different keywords
// over the same span each count.
func (m *Matcher) Match(text string) MatchResult {
	result := MatchResult{PerKeyword: make(map[string]int)}
	if text == "" || len(m.keywords) == 0 {
		return result
	}
	for i, re := range m.patterns {
		n := len(re.FindAllStringIndex(text, -1))
		if n > 0 {
			result.PerKeyword[m.keywords[i]] = n
			result.Total += n
		}
	}
	return result
}
