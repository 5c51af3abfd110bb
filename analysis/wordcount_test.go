package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordCount_WhitespaceTokens(t *testing.T) {
	assert.Equal(t, 8, WordCount("We promote equity and inclusion. Equity matters."))
}

func TestWordCount_Empty(t *testing.T) {
	assert.Zero(t, WordCount(""))
	assert.Zero(t, WordCount("   \n\t "))
}

func TestWordCount_StripsCitationBoilerplate(t *testing.T) {
	text := "The standard applies. [86 FR 12345, Mar. 1, 2021] Compliance is required."
	assert.Equal(t, 6, WordCount(text))
}

func TestWordCount_StripsReservedMarkers(t *testing.T) {
	assert.Equal(t, 2, WordCount("Section intentionally [Reserved]"))
}

func TestStripBoilerplate_LeavesOrdinaryBracketsAlone(t *testing.T) {
	text := "see [appendix A] for details"
	assert.Equal(t, text, StripBoilerplate(text))
}
