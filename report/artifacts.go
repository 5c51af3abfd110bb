package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/ecfrscan/analysis"
	"github.com/c360studio/ecfrscan/cfr"
	"github.com/c360studio/ecfrscan/corpus"
	"github.com/c360studio/ecfrscan/hierarchy"
)

// RefCount is one reference's entry in the word-count artifact.
type RefCount struct {
	Count       int    `json:"count"`
	Description string `json:"description"`
}

// AgencyCounts is one agency's entry in the word-count artifact.
type AgencyCounts struct {
	Total      int                  `json:"total"`
	References map[cfr.Key]RefCount `json:"references"`
}

// WordCounts is the word_count_by_agency.json artifact.
type WordCounts struct {
	Timestamp      string                  `json:"timestamp"`
	TotalWordCount int                     `json:"total_word_count"`
	TitleTotals    map[int]int             `json:"title_totals"`
	Agencies       map[string]AgencyCounts `json:"agencies"`
}

// BuildWordCounts assembles the word-count artifact. The grand total and
// the per-title totals count each distinct reference once, even when
// several agencies share it; per-agency entries keep the shared view.
func BuildWordCounts(data map[string]*analysis.AgencyData, now time.Time) *WordCounts {
	art := &WordCounts{
		Timestamp:   now.Format(time.RFC3339),
		TitleTotals: make(map[int]int),
		Agencies:    make(map[string]AgencyCounts, len(data)),
	}
	distinct := make(map[cfr.Key]int)
	for slug, agency := range data {
		entry := AgencyCounts{
			Total:      agency.Total,
			References: make(map[cfr.Key]RefCount, len(agency.References)),
		}
		for key, ref := range agency.References {
			entry.References[key] = RefCount{Count: ref.Count, Description: ref.Description}
			distinct[key] = ref.Count
		}
		art.Agencies[slug] = entry
	}
	for key, count := range distinct {
		art.TotalWordCount += count
		if ref, err := cfr.ParseKey(key); err == nil {
			art.TitleTotals[ref.Title] += count
		}
	}
	return art
}

// FootprintRef is one reference's entry in a footprint artifact.
type FootprintRef struct {
	Count          int            `json:"count"`
	Description    string         `json:"description"`
	KeywordMatches map[string]int `json:"keyword_matches"`
	TotalMatches   int            `json:"total_matches"`
}

// FootprintAgency is one agency's entry in a footprint artifact: the raw
// match total plus its word-count-normalized scores.
type FootprintAgency struct {
	Total         int                      `json:"total"`
	Per1000Words  float64                  `json:"per_1000_words"`
	Per10000Words float64                  `json:"per_10000_words"`
	References    map[cfr.Key]FootprintRef `json:"references"`
}

// Footprint is a <name>_footprint.json artifact.
type Footprint struct {
	Timestamp    string                     `json:"timestamp"`
	Keywords     []string                   `json:"keywords"`
	TotalMatches int                        `json:"total_matches"`
	TitleTotals  map[int]int                `json:"title_totals"`
	Agencies     map[string]FootprintAgency `json:"agencies"`
}

// BuildFootprint assembles one footprint artifact. Normalized scores use
// each agency's own word count; agencies with no measured words keep a
// zero score. Totals dedup shared references like BuildWordCounts.
func BuildFootprint(keywords []string, data, words map[string]*analysis.AgencyData, now time.Time) *Footprint {
	art := &Footprint{
		Timestamp:   now.Format(time.RFC3339),
		Keywords:    keywords,
		TitleTotals: make(map[int]int),
		Agencies:    make(map[string]FootprintAgency, len(data)),
	}
	distinct := make(map[cfr.Key]int)
	for slug, agency := range data {
		var agencyWords int
		if w, ok := words[slug]; ok {
			agencyWords = w.Total
		}
		score := Normalize(agency.Total, agencyWords)
		entry := FootprintAgency{
			Total:         agency.Total,
			Per1000Words:  score.Per1000Words,
			Per10000Words: score.Per10000Words,
			References:    make(map[cfr.Key]FootprintRef, len(agency.References)),
		}
		for key, ref := range agency.References {
			entry.References[key] = FootprintRef{
				Count:          ref.Count,
				Description:    ref.Description,
				KeywordMatches: ref.KeywordMatches,
				TotalMatches:   ref.TotalMatches,
			}
			distinct[key] = ref.TotalMatches
		}
		art.Agencies[slug] = entry
	}
	for key, matches := range distinct {
		art.TotalMatches += matches
		if ref, err := cfr.ParseKey(key); err == nil {
			art.TitleTotals[ref.Title] += matches
		}
	}
	return art
}

// CorrectionRef is one reference's entry in the corrections artifact.
type CorrectionRef struct {
	CFRReference string              `json:"cfr_reference"`
	Corrections  []corpus.Correction `json:"corrections"`
}

// AgencyCorrections is one agency's entry in the corrections artifact.
type AgencyCorrections struct {
	Total      int                       `json:"total"`
	References map[cfr.Key]CorrectionRef `json:"references"`
}

// Corrections is the corrections_by_agency.json artifact.
type Corrections struct {
	Timestamp        string                       `json:"timestamp"`
	TotalCorrections int                          `json:"total_corrections"`
	TitleTotals      map[int]int                  `json:"title_totals"`
	Agencies         map[string]AgencyCorrections `json:"agencies"`
}

// BuildCorrections assembles the corrections artifact. The grand total
// and the per-title totals count each correction id once across all
// agencies; per-agency totals count ids distinct within that agency.
func BuildCorrections(data map[string]*analysis.AgencyCorrections, now time.Time) *Corrections {
	art := &Corrections{
		Timestamp:        now.Format(time.RFC3339),
		TotalCorrections: analysis.DistinctTotal(data),
		TitleTotals:      analysis.CorrectionTitleTotals(data),
		Agencies:         make(map[string]AgencyCorrections, len(data)),
	}
	for slug, agency := range data {
		entry := AgencyCorrections{
			Total:      agency.Total,
			References: make(map[cfr.Key]CorrectionRef, len(agency.References)),
		}
		for key, ref := range agency.References {
			entry.References[key] = CorrectionRef{
				CFRReference: ref.CFRReference,
				Corrections:  ref.Corrections,
			}
		}
		art.Agencies[slug] = entry
	}
	return art
}

// HierarchyMap is the agency_hierarchy_map.json artifact: the resolved
// agency forest passed through unmodified.
type HierarchyMap struct {
	Timestamp string              `json:"timestamp"`
	Agencies  []*hierarchy.Agency `json:"agencies"`
}

// BuildHierarchyMap assembles the hierarchy pass-through artifact.
func BuildHierarchyMap(h *hierarchy.Hierarchy, now time.Time) *HierarchyMap {
	return &HierarchyMap{
		Timestamp: now.Format(time.RFC3339),
		Agencies:  h.Roots(),
	}
}

// Summary is the analysis_summary.json artifact: one run's identity,
// headline totals, ranked views, and the data-quality counters.
type Summary struct {
	RunID            string              `json:"run_id"`
	Timestamp        string              `json:"timestamp"`
	TotalWordCount   int                 `json:"total_word_count"`
	TotalCorrections int                 `json:"total_corrections"`
	FootprintTotals  map[string]int      `json:"footprint_totals"`
	TopAgencies      []AgencyTotal       `json:"top_agencies_by_word_count"`
	FootprintLeaders map[string][]Ranked `json:"footprint_leaders"`
	DataQuality      analysis.Quality    `json:"data_quality"`
}

// BuildSummary assembles the run summary. Top agencies rank top-level
// agencies by subtree word totals, so each dashboard card reflects a
// whole organization and no organization appears twice through its
// children; footprint leaders rank by score normalized against each
// agency's own word count.
func BuildSummary(h *hierarchy.Hierarchy, result *analysis.Result, topN int, now time.Time) *Summary {
	s := &Summary{
		RunID:            uuid.NewString(),
		Timestamp:        now.Format(time.RFC3339),
		FootprintTotals:  make(map[string]int, len(result.Footprints)),
		FootprintLeaders: make(map[string][]Ranked, len(result.Footprints)),
		DataQuality:      result.Quality,
	}

	wordTotals := ownTotals(result.WordCounts)
	s.TotalWordCount = distinctTotal(result.WordCounts, func(r *analysis.RefAggregate) int { return r.Count })
	rollup := analysis.NewRollup(h, result.WordCounts, nil)
	topLevel := make(map[string]int)
	for slug, total := range rollup.SubtreeTotals() {
		if h.Parent(slug) == "" {
			topLevel[slug] = total
		}
	}
	s.TopAgencies = TopTotals(topLevel, topN)

	for name, data := range result.Footprints {
		s.FootprintTotals[name] = distinctTotal(data, func(r *analysis.RefAggregate) int { return r.TotalMatches })
		s.FootprintLeaders[name] = TopN(ownTotals(data), wordTotals, topN)
	}

	if result.Corrections != nil {
		s.TotalCorrections = analysis.DistinctTotal(result.Corrections)
	}
	return s
}

func ownTotals(data map[string]*analysis.AgencyData) map[string]int {
	totals := make(map[string]int, len(data))
	for slug, agency := range data {
		totals[slug] = agency.Total
	}
	return totals
}

// distinctTotal sums a per-reference metric counting each reference once,
// no matter how many agencies share it.
func distinctTotal(data map[string]*analysis.AgencyData, metric func(*analysis.RefAggregate) int) int {
	seen := make(map[cfr.Key]int)
	for _, agency := range data {
		for key, ref := range agency.References {
			seen[key] = metric(ref)
		}
	}
	total := 0
	for _, v := range seen {
		total += v
	}
	return total
}
