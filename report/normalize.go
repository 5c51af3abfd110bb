// Package report turns accumulated analysis data into the JSON artifacts
// the dashboard consumes. Field names in the artifact structs are part of
// the downstream contract and must not change.
package report

import (
	"math"
	"sort"
)

// Score is a raw metric value with its word-count-normalized forms.
type Score struct {
	Raw           float64 `json:"raw"`
	Per1000Words  float64 `json:"per_1000_words"`
	Per10000Words float64 `json:"per_10000_words"`
}

// Normalize scales a raw count by an agency's word count. A zero or
// missing word count yields zero normalized scores, never NaN or Inf;
// such agencies are excluded from ranked views rather than ranked with a
// substitute denominator.
func Normalize(raw, words int) Score {
	s := Score{Raw: float64(raw)}
	if words <= 0 {
		return s
	}
	s.Per1000Words = round2(float64(raw) / float64(words) * 1000)
	s.Per10000Words = round2(float64(raw) / float64(words) * 10000)
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Ranked is one agency's position in a ranked view.
type Ranked struct {
	Slug string `json:"slug"`
	Score
}

// TopN ranks agencies descending by normalized score (per 10k words),
// ties broken by slug so repeated runs produce identical output. Agencies
// with a zero word count are excluded.
func TopN(raw, words map[string]int, n int) []Ranked {
	if n <= 0 {
		return nil
	}
	ranked := make([]Ranked, 0, len(raw))
	for slug, r := range raw {
		w := words[slug]
		if w <= 0 {
			continue
		}
		ranked = append(ranked, Ranked{Slug: slug, Score: Normalize(r, w)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Per10000Words != ranked[j].Per10000Words {
			return ranked[i].Per10000Words > ranked[j].Per10000Words
		}
		return ranked[i].Slug < ranked[j].Slug
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// AgencyTotal is one agency's position in a totals-ranked view.
type AgencyTotal struct {
	Slug  string `json:"slug"`
	Total int    `json:"total"`
}

// TopTotals ranks agencies descending by an absolute total (e.g. subtree
// word count), ties broken by slug. Zero totals are excluded.
func TopTotals(totals map[string]int, n int) []AgencyTotal {
	if n <= 0 {
		return nil
	}
	ranked := make([]AgencyTotal, 0, len(totals))
	for slug, total := range totals {
		if total <= 0 {
			continue
		}
		ranked = append(ranked, AgencyTotal{Slug: slug, Total: total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		return ranked[i].Slug < ranked[j].Slug
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
