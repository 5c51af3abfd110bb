package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Scales(t *testing.T) {
	s := Normalize(3, 8)
	assert.Equal(t, 3.0, s.Raw)
	assert.Equal(t, 375.0, s.Per1000Words)
	assert.Equal(t, 3750.0, s.Per10000Words)
}

func TestNormalize_Rounds(t *testing.T) {
	s := Normalize(1, 3)
	assert.Equal(t, 333.33, s.Per1000Words)
	assert.Equal(t, 3333.33, s.Per10000Words)
}

func TestNormalize_ZeroWordsNeverNaN(t *testing.T) {
	// Matches with no measured words: score is zero, not Inf, and never a
	// score against a substituted default denominator.
	s := Normalize(5, 0)
	assert.Equal(t, 5.0, s.Raw)
	assert.Zero(t, s.Per1000Words)
	assert.Zero(t, s.Per10000Words)
}

func TestTopN_RanksByNormalizedScore(t *testing.T) {
	raw := map[string]int{"epa": 10, "gsa": 10, "usda": 1}
	words := map[string]int{"epa": 1000, "gsa": 100, "usda": 10}

	ranked := TopN(raw, words, 3)

	slugs := make([]string, len(ranked))
	for i, r := range ranked {
		slugs[i] = r.Slug
	}
	// usda: 1/10 → 1000/10k; gsa: 10/100 → 1000/10k; epa: 10/1000 → 100/10k.
	// usda and gsa tie, broken by slug.
	assert.Equal(t, []string{"gsa", "usda", "epa"}, slugs)
}

func TestTopN_TieBreakIsDeterministic(t *testing.T) {
	raw := map[string]int{"zeta": 1, "alpha": 1, "mid": 1}
	words := map[string]int{"zeta": 100, "alpha": 100, "mid": 100}

	for i := 0; i < 5; i++ {
		ranked := TopN(raw, words, 3)
		assert.Equal(t, "alpha", ranked[0].Slug)
		assert.Equal(t, "mid", ranked[1].Slug)
		assert.Equal(t, "zeta", ranked[2].Slug)
	}
}

func TestTopN_ExcludesZeroWordAgencies(t *testing.T) {
	raw := map[string]int{"ghost": 50, "epa": 1}
	words := map[string]int{"epa": 100}

	ranked := TopN(raw, words, 10)

	assert.Len(t, ranked, 1)
	assert.Equal(t, "epa", ranked[0].Slug)
}

func TestTopN_Truncates(t *testing.T) {
	raw := map[string]int{"a": 3, "b": 2, "c": 1}
	words := map[string]int{"a": 10, "b": 10, "c": 10}

	ranked := TopN(raw, words, 2)
	assert.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].Slug)

	assert.Nil(t, TopN(raw, words, 0))
}

func TestTopTotals_RanksAndTruncates(t *testing.T) {
	totals := map[string]int{"epa": 100, "gsa": 100, "usda": 5, "empty": 0}

	ranked := TopTotals(totals, 2)

	assert.Equal(t, []AgencyTotal{
		{Slug: "epa", Total: 100},
		{Slug: "gsa", Total: 100},
	}, ranked)
}
