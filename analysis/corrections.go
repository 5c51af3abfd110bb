package analysis

import (
	"sort"
	"strconv"

	"github.com/c360studio/ecfrscan/cfr"
	"github.com/c360studio/ecfrscan/corpus"
)

// CorrectionRef is one reference's corrections under one agency, with the
// citation string preserved for the dashboard.
type CorrectionRef struct {
	CFRReference string
	Corrections  []corpus.Correction
}

// AgencyCorrections aggregates corrections for one agency. Total counts
// DISTINCT correction ids reachable from the agency — a correction
// attached to two of the agency's references still counts once.
type AgencyCorrections struct {
	Total      int
	References map[cfr.Key]*CorrectionRef
}

// MergeCorrections attributes corrections to every agency whose reference
// set matches their citation. Within one agency's one reference bucket a
// correction id appears at most once; the same id legitimately appears
// under multiple agencies that share the citation.
func MergeCorrections(refsBySlug map[string][]cfr.Reference, byTitle map[int][]corpus.Correction) map[string]*AgencyCorrections {
	out := make(map[string]*AgencyCorrections)

	for slug, refs := range refsBySlug {
		var agency *AgencyCorrections
		seenInAgency := make(map[string]struct{})

		for _, ref := range refs {
			key := ref.Key()
			seenInBucket := make(map[string]struct{})

			for _, c := range byTitle[ref.Title] {
				if !correctionMatches(c.Hierarchy, ref) {
					continue
				}
				if _, dup := seenInBucket[c.ID]; dup {
					continue
				}
				seenInBucket[c.ID] = struct{}{}

				if agency == nil {
					agency = &AgencyCorrections{References: make(map[cfr.Key]*CorrectionRef)}
					out[slug] = agency
				}
				bucket := agency.References[key]
				if bucket == nil {
					bucket = &CorrectionRef{CFRReference: c.CFRReference}
					agency.References[key] = bucket
				}
				bucket.Corrections = append(bucket.Corrections, c)

				// Agency total counts each id once even when malformed
				// data attaches it to several of the agency's references.
				if _, counted := seenInAgency[c.ID]; !counted {
					seenInAgency[c.ID] = struct{}{}
					agency.Total++
				}
			}
		}
	}
	return out
}

// correctionMatches reports whether a correction's citation hierarchy
// applies to a reference. Titles must agree; deeper levels constrain the
// match only when both sides carry them — a correction pinned at part
// level applies to a part-level or broader reference of the same lineage.
func correctionMatches(h corpus.CorrectionHierarchy, ref cfr.Reference) bool {
	if h.Title != strconv.Itoa(ref.Title) {
		return false
	}
	for _, level := range []struct{ corr, ref string }{
		{h.Subtitle, ref.Subtitle},
		{h.Chapter, ref.Chapter},
		{h.Subchapter, ref.Subchapter},
		{h.Part, ref.Part},
		{h.Section, ref.Section},
	} {
		if level.ref != "" && level.corr != "" && level.corr != level.ref {
			return false
		}
	}
	return true
}

// DistinctTotal counts distinct correction ids across all agencies. The
// per-agency totals intentionally overlap when agencies share citations;
// the global count must not inflate with the number of sharers.
func DistinctTotal(data map[string]*AgencyCorrections) int {
	seen := make(map[string]struct{})
	for _, agency := range data {
		for _, bucket := range agency.References {
			for _, c := range bucket.Corrections {
				seen[c.ID] = struct{}{}
			}
		}
	}
	return len(seen)
}

// CorrectionTitleTotals counts distinct correction ids per CFR title.
// Agencies and references are visited in sorted order so each id is
// attributed to a deterministic title even in malformed cross-title data.
func CorrectionTitleTotals(data map[string]*AgencyCorrections) map[int]int {
	slugs := make([]string, 0, len(data))
	for slug := range data {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	totals := make(map[int]int)
	seen := make(map[string]struct{})
	for _, slug := range slugs {
		agency := data[slug]
		for _, key := range cfr.SortKeys(agency.References) {
			ref, err := cfr.ParseKey(key)
			if err != nil {
				continue
			}
			for _, c := range agency.References[key].Corrections {
				if _, dup := seen[c.ID]; dup {
					continue
				}
				seen[c.ID] = struct{}{}
				totals[ref.Title]++
			}
		}
	}
	return totals
}
