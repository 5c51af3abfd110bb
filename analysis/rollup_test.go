package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/ecfrscan/cfr"
	"github.com/c360studio/ecfrscan/hierarchy"
)

func epaTree(t *testing.T) *hierarchy.Hierarchy {
	t.Helper()
	h, err := hierarchy.Build([]*hierarchy.Agency{
		{
			Name: "Environmental Protection Agency",
			Slug: "epa",
			Children: []*hierarchy.Agency{
				{Name: "EPA Office of Inspector General", Slug: "epa-oig"},
			},
		},
		{Name: "General Services Administration", Slug: "gsa"},
	})
	require.NoError(t, err)
	return h
}

func agencyData(total int, refs map[cfr.Key]int) *AgencyData {
	d := &AgencyData{Total: total, References: make(map[cfr.Key]*RefAggregate)}
	for k, count := range refs {
		d.References[k] = &RefAggregate{Count: count}
	}
	return d
}

func TestRollup_ChildOnlyData(t *testing.T) {
	// Reference 40 CFR 1.1 (100 words) attributed only to the child.
	key := cfr.Reference{Title: 40, Part: "1", Section: "1.1"}.Key()
	data := map[string]*AgencyData{
		"epa-oig": agencyData(100, map[cfr.Key]int{key: 100}),
	}
	r := NewRollup(epaTree(t), data, nil)

	assert.Equal(t, 0, r.OwnTotal("epa"))
	assert.Equal(t, 100, r.SubtreeTotal("epa"))
	assert.Equal(t, 100, r.OwnTotal("epa-oig"))
}

func TestRollup_SharedReferenceCountsPerOwner(t *testing.T) {
	// Parent and child both directly own the same reference. Each level
	// that owns it contributes once; the subtree total is the sum of the
	// owning levels, not a deduplicated view and not a doubled one.
	key := cfr.Reference{Title: 40, Chapter: "I"}.Key()
	data := map[string]*AgencyData{
		"epa":     agencyData(50, map[cfr.Key]int{key: 50}),
		"epa-oig": agencyData(50, map[cfr.Key]int{key: 50}),
	}
	r := NewRollup(epaTree(t), data, nil)

	assert.Equal(t, 50, r.OwnTotal("epa"))
	assert.Equal(t, 50, r.OwnTotal("epa-oig"))
	assert.Equal(t, 100, r.SubtreeTotal("epa"))
}

func TestRollup_UnknownSlugExcluded(t *testing.T) {
	data := map[string]*AgencyData{
		"gsa":       agencyData(10, nil),
		"not-real":  agencyData(999, nil),
		"also-fake": agencyData(1, nil),
	}
	r := NewRollup(epaTree(t), data, nil)

	assert.Equal(t, []string{"also-fake", "not-real"}, r.Unknown())
	assert.Zero(t, r.OwnTotal("not-real"))
	assert.Zero(t, r.SubtreeTotal("not-real"))
	assert.Equal(t, 10, r.SubtreeTotal("gsa"), "known agencies unaffected")
}

func TestRollup_TreeNodeWithoutDataIsZeroNotOmitted(t *testing.T) {
	r := NewRollup(epaTree(t), map[string]*AgencyData{}, nil)

	totals := r.SubtreeTotals()
	assert.Contains(t, totals, "epa")
	assert.Contains(t, totals, "epa-oig")
	assert.Contains(t, totals, "gsa")
	for slug, total := range totals {
		assert.Zero(t, total, "slug %s", slug)
	}
}

func TestRollup_MemoizationStable(t *testing.T) {
	key := cfr.Reference{Title: 40, Part: "1"}.Key()
	data := map[string]*AgencyData{
		"epa-oig": agencyData(7, map[cfr.Key]int{key: 7}),
	}
	r := NewRollup(epaTree(t), data, nil)

	first := r.SubtreeTotal("epa")
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, r.SubtreeTotal("epa"))
	}
}

func TestRollup_DoesNotMutateStoredTotals(t *testing.T) {
	key := cfr.Reference{Title: 40, Part: "1"}.Key()
	data := map[string]*AgencyData{
		"epa-oig": agencyData(7, map[cfr.Key]int{key: 7}),
	}
	r := NewRollup(epaTree(t), data, nil)
	_ = r.SubtreeTotal("epa")
	_ = r.SubtreeTotal("epa")

	assert.Equal(t, 7, data["epa-oig"].Total, "rollup must never write into stored data")
	assert.NotContains(t, data, "epa")
}
