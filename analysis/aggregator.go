package analysis

import (
	"errors"

	"github.com/c360studio/ecfrscan/cfr"
	"github.com/c360studio/ecfrscan/corpus"
	"github.com/c360studio/ecfrscan/keyword"
)

// ErrUnknownAgency marks a slug present in reference or correction data
// but absent from the agency hierarchy. Such data is logged and excluded
// from rollups, never fatal.
var ErrUnknownAgency = errors.New("agency slug not in hierarchy")

// RefAggregate accumulates everything measured for one CFR reference
// under one agency.
type RefAggregate struct {
	// Count is the reference text's word count.
	Count int
	// Description is the human-readable citation.
	Description string
	// KeywordMatches maps keyword to occurrence count (footprint
	// aggregates only).
	KeywordMatches map[string]int
	// TotalMatches is the sum of KeywordMatches.
	TotalMatches int
}

// AgencyData is the per-agency aggregate: a reference-keyed map plus a
// running total of the aggregate's metric (word count for word-count
// data, total matches for footprint data). Totals are own-agency only;
// subtree totals come from Rollup at read time.
type AgencyData struct {
	Total      int
	References map[cfr.Key]*RefAggregate
}

func newAgencyData() *AgencyData {
	return &AgencyData{References: make(map[cfr.Key]*RefAggregate)}
}

// Measurement is the pure, per-record computation result. Producing
// measurements is stateless and safe to parallelize; folding them is the
// single-threaded reduce step.
type Measurement struct {
	Key         cfr.Key
	Slugs       []string
	Description string
	Words       int
	// Matches holds one result per configured footprint.
	Matches map[string]keyword.MatchResult
}

// Measure computes a record's word count and keyword matches. Pure:
// identical records always measure identically.
func Measure(rec corpus.Record, matchers map[string]*keyword.Matcher) Measurement {
	m := Measurement{
		Key:         rec.Ref.Key(),
		Slugs:       rec.Slugs,
		Description: rec.Description,
		Words:       WordCount(rec.Text),
	}
	if len(matchers) > 0 {
		m.Matches = make(map[string]keyword.MatchResult, len(matchers))
		for name, matcher := range matchers {
			m.Matches[name] = matcher.Match(rec.Text)
		}
	}
	return m
}

// Aggregator folds measurements into per-agency maps: one word-count map
// and one map per footprint. A duplicate (slug, reference) observation
// overwrites the previous one — source data is a snapshot, not an event
// log — so re-adding the same input is idempotent and totals never
// double-add.
type Aggregator struct {
	words      map[string]*AgencyData
	footprints map[string]map[string]*AgencyData
}

// NewAggregator creates an aggregator for the given footprint names.
func NewAggregator(footprints []string) *Aggregator {
	a := &Aggregator{
		words:      make(map[string]*AgencyData),
		footprints: make(map[string]map[string]*AgencyData, len(footprints)),
	}
	for _, name := range footprints {
		a.footprints[name] = make(map[string]*AgencyData)
	}
	return a
}

// Add measures a record and folds it in.
func (a *Aggregator) Add(rec corpus.Record, matchers map[string]*keyword.Matcher) {
	a.Fold(Measure(rec, matchers))
}

// Fold merges one measurement into the per-agency maps. Folding is
// commutative across distinct (slug, reference) pairs and last-write-wins
// for duplicates.
func (a *Aggregator) Fold(m Measurement) {
	for _, slug := range m.Slugs {
		data := a.words[slug]
		if data == nil {
			data = newAgencyData()
			a.words[slug] = data
		}
		if prev, ok := data.References[m.Key]; ok {
			data.Total -= prev.Count
		}
		data.References[m.Key] = &RefAggregate{Count: m.Words, Description: m.Description}
		data.Total += m.Words

		for name, result := range m.Matches {
			byAgency := a.footprints[name]
			if byAgency == nil {
				continue // unconfigured footprint in a stray measurement
			}
			fdata := byAgency[slug]
			if prev, ok := fdata.ref(m.Key); ok {
				fdata.Total -= prev.TotalMatches
				delete(fdata.References, m.Key)
			}
			if result.Total == 0 {
				continue // zero-match references stay out of footprint maps
			}
			if fdata == nil {
				fdata = newAgencyData()
				byAgency[slug] = fdata
			}
			fdata.References[m.Key] = &RefAggregate{
				Count:          m.Words,
				Description:    m.Description,
				KeywordMatches: result.PerKeyword,
				TotalMatches:   result.Total,
			}
			fdata.Total += result.Total
		}
	}
}

// ref looks up a reference aggregate, tolerating a nil receiver.
func (d *AgencyData) ref(key cfr.Key) (*RefAggregate, bool) {
	if d == nil {
		return nil, false
	}
	r, ok := d.References[key]
	return r, ok
}

// WordCounts returns the per-agency word-count aggregates.
func (a *Aggregator) WordCounts() map[string]*AgencyData {
	return a.words
}

// Footprint returns the per-agency aggregates for one footprint, or nil
// when the name was not configured.
func (a *Aggregator) Footprint(name string) map[string]*AgencyData {
	return a.footprints[name]
}

// FootprintNames returns the configured footprint names.
func (a *Aggregator) FootprintNames() []string {
	names := make([]string, 0, len(a.footprints))
	for name := range a.footprints {
		names = append(names, name)
	}
	return names
}
