package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/ecfrscan/cfr"
	"github.com/c360studio/ecfrscan/corpus"
	"github.com/c360studio/ecfrscan/hierarchy"
	"github.com/c360studio/ecfrscan/keyword"
	"github.com/c360studio/ecfrscan/metrics"
)

const pipelineTitleXML = `<ECFR><DIV1 N="40" TYPE="TITLE">
  <DIV5 N="50" TYPE="PART"><P>We promote equity and inclusion. Equity matters.</P></DIV5>
  <DIV5 N="51" TYPE="PART"><P>Plain procedural text without relevant terms.</P></DIV5>
</DIV1></ECFR>`

const pipelineCorrections = `{"ecfr_corrections": [{
  "id": 900,
  "year": 2022,
  "corrective_action": "Amended",
  "fr_citation": "87 FR 1",
  "cfr_references": [{"cfr_reference": "40 CFR 50", "hierarchy": {"title": "40", "part": "50"}}]
}]}`

func pipelineFixture(t *testing.T) *Pipeline {
	t.Helper()
	dir := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write("text/title_40_2024-01-01_full_text.xml", pipelineTitleXML)
	write("corrections/title_40_corrections.json", pipelineCorrections)

	h, err := hierarchy.Build([]*hierarchy.Agency{
		{
			Name:          "Environmental Protection Agency",
			Slug:          "epa",
			CFRReferences: []cfr.Reference{{Title: 40, Part: "51"}},
			Children: []*hierarchy.Agency{
				{
					Name:          "EPA Office of Air",
					Slug:          "epa-air",
					CFRReferences: []cfr.Reference{{Title: 40, Part: "50"}},
				},
			},
		},
	})
	require.NoError(t, err)

	return &Pipeline{
		Hierarchy: h,
		Store:     corpus.NewStore(filepath.Join(dir, "text"), filepath.Join(dir, "corrections"), nil),
		Matchers: map[string]*keyword.Matcher{
			"dei": keyword.MustNew([]string{"equity", "inclusion"}),
		},
		Workers: 4,
		Metrics: metrics.New(),
	}
}

func TestPipeline_Run_EndToEnd(t *testing.T) {
	p := pipelineFixture(t)

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	// Word counts: part 50 has 8 words and belongs to the child only.
	part50 := cfr.Reference{Title: 40, Part: "50"}.Key()
	require.NotNil(t, result.WordCounts["epa-air"])
	assert.Equal(t, 8, result.WordCounts["epa-air"].References[part50].Count)
	assert.NotContains(t, result.WordCounts["epa"].References, part50)

	// Footprint: only the child's reference matches DEI terms.
	dei := result.Footprints["dei"]
	require.NotNil(t, dei["epa-air"])
	assert.Equal(t, 3, dei["epa-air"].Total)
	assert.Nil(t, dei["epa"])

	// Rollup semantics from the stored own-totals.
	r := NewRollup(p.Hierarchy, result.WordCounts, nil)
	assert.Equal(t, r.OwnTotal("epa")+r.OwnTotal("epa-air"), r.SubtreeTotal("epa"))

	// Corrections: part 50's correction lands on the child agency.
	require.NoError(t, result.CorrectionsErr)
	require.NotNil(t, result.Corrections["epa-air"])
	assert.Equal(t, 1, result.Corrections["epa-air"].Total)
	assert.Equal(t, 1, DistinctTotal(result.Corrections))

	assert.Empty(t, result.Quality.UnknownAgencies)
	assert.Empty(t, result.Quality.MissingTitles)
}

func TestPipeline_Run_Deterministic(t *testing.T) {
	p := pipelineFixture(t)

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.WordCounts, second.WordCounts)
	assert.Equal(t, first.Footprints, second.Footprints)
	assert.Equal(t, first.Corrections, second.Corrections)
}

func TestPipeline_Run_MissingTitleIsNotFatal(t *testing.T) {
	p := pipelineFixture(t)
	// Add a reference to a title with no text file.
	p.Hierarchy.Lookup("epa").CFRReferences = append(
		p.Hierarchy.Lookup("epa").CFRReferences, cfr.Reference{Title: 99, Part: "1"})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{99}, result.Quality.MissingTitles)
	assert.NotNil(t, result.WordCounts["epa-air"], "other titles still analyzed")
}

func TestPipeline_Run_NoCorpusIsFatal(t *testing.T) {
	p := pipelineFixture(t)
	p.Store = corpus.NewStore(t.TempDir(), t.TempDir(), nil)

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, corpus.ErrMissingData)
}

func TestPipeline_Run_MissingCorrectionsFailsOnlyCorrections(t *testing.T) {
	p := pipelineFixture(t)
	dir := t.TempDir()
	// Rebuild the store with text but no corrections directory content.
	src, err := os.ReadFile(mustTitleFile(t, p))
	require.NoError(t, err)
	textDir := filepath.Join(dir, "text")
	require.NoError(t, os.MkdirAll(textDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(textDir, "title_40_2024-01-01_full_text.xml"), src, 0o644))
	p.Store = corpus.NewStore(textDir, filepath.Join(dir, "corrections"), nil)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, result.CorrectionsErr, corpus.ErrMissingData)
	assert.NotNil(t, result.WordCounts["epa-air"], "word counts unaffected")
}

func mustTitleFile(t *testing.T, p *Pipeline) string {
	t.Helper()
	path, err := p.Store.TitleFile(40)
	require.NoError(t, err)
	return path
}

func TestPipeline_Run_Cancelled(t *testing.T) {
	p := pipelineFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
