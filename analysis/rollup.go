package analysis

import (
	"log/slog"
	"sort"

	"github.com/c360studio/ecfrscan/hierarchy"
)

// Rollup computes read-time subtree totals over per-agency data. Stored
// AgencyData totals are never mutated: a reference can be attributed to
// both a parent and a child, and caching a combined total into the parent
// would double count on the next read. The tree is immutable during a
// run, so subtree sums are memoized.
type Rollup struct {
	h    *hierarchy.Hierarchy
	data map[string]*AgencyData

	memo    map[string]int
	unknown []string
}

// NewRollup builds a rollup over data keyed by agency slug. Slugs missing
// from the hierarchy are logged and excluded from all totals.
func NewRollup(h *hierarchy.Hierarchy, data map[string]*AgencyData, logger *slog.Logger) *Rollup {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Rollup{
		h:    h,
		data: data,
		memo: make(map[string]int),
	}
	for slug := range data {
		if h.Lookup(slug) == nil {
			r.unknown = append(r.unknown, slug)
		}
	}
	sort.Strings(r.unknown)
	for _, slug := range r.unknown {
		logger.Warn("reference data for agency not in hierarchy, excluded from rollups",
			slog.String("slug", slug), slog.String("error", ErrUnknownAgency.Error()))
	}
	return r
}

// OwnTotal returns the agency's directly-attributed total. An agency in
// the tree with no data has an own total of zero; a slug outside the tree
// always reports zero.
func (r *Rollup) OwnTotal(slug string) int {
	if r.h.Lookup(slug) == nil {
		return 0
	}
	if data, ok := r.data[slug]; ok {
		return data.Total
	}
	return 0
}

// SubtreeTotal returns the agency's own total plus the subtree totals of
// all its children. Each reference contributes once per agency that
// directly owns it — sharing between parent and child is preserved, not
// collapsed.
func (r *Rollup) SubtreeTotal(slug string) int {
	if total, ok := r.memo[slug]; ok {
		return total
	}
	agency := r.h.Lookup(slug)
	if agency == nil {
		return 0
	}
	total := r.OwnTotal(slug)
	for _, child := range agency.Children {
		total += r.SubtreeTotal(child.Slug)
	}
	r.memo[slug] = total
	return total
}

// SubtreeTotals returns subtree totals for every agency in the tree,
// including zero entries for agencies without data.
func (r *Rollup) SubtreeTotals() map[string]int {
	totals := make(map[string]int)
	for _, slug := range r.h.Slugs() {
		totals[slug] = r.SubtreeTotal(slug)
	}
	return totals
}

// Unknown returns the slugs that were excluded for not being in the
// hierarchy, in lexical order.
func (r *Rollup) Unknown() []string {
	return r.unknown
}
