package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/ecfrscan/corpus"
)

func TestWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "analysis")
	w := NewWriter(dir, nil)

	require.NoError(t, w.Write("sample.json", map[string]int{"total": 3}))

	raw, err := os.ReadFile(filepath.Join(dir, "sample.json"))
	require.NoError(t, err)
	var decoded map[string]int
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 3, decoded["total"])

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriter_WriteReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	require.NoError(t, w.Write("sample.json", map[string]int{"total": 1}))
	require.NoError(t, w.Write("sample.json", map[string]int{"total": 2}))

	raw, err := os.ReadFile(filepath.Join(dir, "sample.json"))
	require.NoError(t, err)
	var decoded map[string]int
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 2, decoded["total"])
}

func TestWriter_WriteAll(t *testing.T) {
	h, result := summaryFixture(t)
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	keywords := map[string][]string{"dei": {"equity", "inclusion"}}
	require.NoError(t, w.WriteAll(h, result, keywords, 5, fixedTime))

	for _, name := range []string{
		WordCountFile,
		FootprintFile("dei"),
		CorrectionsFile,
		HierarchyFile,
		SummaryFile,
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestWriter_WriteAllSkipsFailedCorrections(t *testing.T) {
	h, result := summaryFixture(t)
	result.Corrections = nil
	result.CorrectionsErr = errors.New("corrections unavailable")
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	require.NoError(t, w.WriteAll(h, result, nil, 5, fixedTime))

	_, err := os.Stat(filepath.Join(dir, CorrectionsFile))
	assert.True(t, os.IsNotExist(err), "corrections artifact must not be written")
	_, err = os.Stat(filepath.Join(dir, WordCountFile))
	assert.NoError(t, err, "other artifacts still written")
}

func TestFootprintFile(t *testing.T) {
	assert.Equal(t, "dei_footprint.json", FootprintFile("dei"))
	assert.Equal(t, "bureaucracy_footprint.json", FootprintFile("bureaucracy"))
}

// Guard against accidental dependence on corrections data in the summary.
func TestWriteAll_SummaryWithNilCorrections(t *testing.T) {
	h, result := summaryFixture(t)
	result.Corrections = nil
	result.CorrectionsErr = corpus.ErrMissingData
	dir := t.TempDir()

	require.NoError(t, NewWriter(dir, nil).WriteAll(h, result, nil, 5, fixedTime))

	raw, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)
	var s Summary
	require.NoError(t, json.Unmarshal(raw, &s))
	assert.Zero(t, s.TotalCorrections)
	assert.Equal(t, 140, s.TotalWordCount)
}
