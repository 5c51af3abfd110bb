package cfr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReference_Key_OmitsEmptyLevels(t *testing.T) {
	r := Reference{Title: 40, Chapter: "I", Part: "50"}
	assert.Equal(t, Key("title=40/chapter=I/part=50"), r.Key())
}

func TestReference_Key_DistinguishesLevels(t *testing.T) {
	// The same value on different levels must never collide. The old
	// positional tuple form ("(1, '', 'A', '', '')") could merge these.
	a := Reference{Title: 1, Subtitle: "A"}
	b := Reference{Title: 1, Chapter: "A"}
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestReference_Key_EscapesDelimiters(t *testing.T) {
	a := Reference{Title: 1, Part: "50/51"}
	b := Reference{Title: 1, Part: "50", Section: "51"}
	assert.NotEqual(t, a.Key(), b.Key())

	back, err := ParseKey(a.Key())
	require.NoError(t, err)
	assert.Equal(t, a, back)
}

func TestParseKey_RoundTrip(t *testing.T) {
	refs := []Reference{
		{Title: 1},
		{Title: 7, Subtitle: "B"},
		{Title: 40, Chapter: "I", Subchapter: "C", Part: "50", Section: "50.1"},
		{Title: 12, Part: "pt=odd/value"},
	}
	for _, r := range refs {
		back, err := ParseKey(r.Key())
		require.NoError(t, err, "key %q", r.Key())
		assert.Equal(t, r, back)
	}
}

func TestParseKey_Malformed(t *testing.T) {
	_, err := ParseKey("chapter=I")
	assert.Error(t, err, "key without title level")

	_, err = ParseKey("title=x")
	assert.Error(t, err, "non-numeric title")

	_, err = ParseKey("title=1/bogus")
	assert.Error(t, err, "segment without separator")
}

func TestReference_Describe(t *testing.T) {
	r := Reference{Title: 40, Chapter: "I", Part: "50"}
	assert.Equal(t, "Title 40, Chapter I, Part 50", r.Describe())

	assert.Equal(t, "Title 1", Reference{Title: 1}.Describe())
}

func TestKey_AsJSONMapKey(t *testing.T) {
	m := map[Key]int{
		Reference{Title: 40, Part: "50"}.Key(): 7,
	}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title=40/part=50": 7}`, string(data))

	var back map[Key]int
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m, back)
}

func TestSortKeys_Deterministic(t *testing.T) {
	m := map[Key]struct{}{
		"title=2":           {},
		"title=1":           {},
		"title=1/chapter=I": {},
	}
	keys := SortKeys(m)
	assert.Equal(t, []Key{"title=1", "title=1/chapter=I", "title=2"}, keys)
}
