// Package corpus loads the raw eCFR corpus: per-title full-text XML files
// and per-title correction records. It is the input boundary — everything
// it returns is strongly typed and validated, so aggregation never sees a
// half-formed record.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/c360studio/ecfrscan/cfr"
)

// Input boundary errors.
var (
	// ErrMissingData is returned when a required input file is absent.
	ErrMissingData = errors.New("input data not found")
	// ErrSchemaMismatch marks a record missing expected fields. Such
	// records are skipped and counted, never silently dropped.
	ErrSchemaMismatch = errors.New("record missing expected fields")
)

// Record is one unit of analyzable text: a CFR reference, the agencies
// that administer it, and the extracted regulation text.
type Record struct {
	Ref         cfr.Reference
	Slugs       []string
	Text        string
	Description string
}

// Correction is one official amendment record tied to a CFR citation.
type Correction struct {
	ID               string              `json:"id"`
	Year             int                 `json:"year"`
	CorrectiveAction string              `json:"corrective_action"`
	ErrorCorrected   string              `json:"error_corrected,omitempty"`
	ErrorOccurred    string              `json:"error_occurred,omitempty"`
	FRCitation       string              `json:"fr_citation"`
	CFRReference     string              `json:"cfr_reference"`
	Hierarchy        CorrectionHierarchy `json:"hierarchy"`
}

// CorrectionHierarchy pins the citation a correction applies to. Title is
// required; deeper levels constrain matching only when present.
type CorrectionHierarchy struct {
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle,omitempty"`
	Chapter    string `json:"chapter,omitempty"`
	Subchapter string `json:"subchapter,omitempty"`
	Part       string `json:"part,omitempty"`
	Section    string `json:"section,omitempty"`
}

// Valid reports whether the correction carries the fields aggregation
// depends on.
func (c Correction) Valid() bool {
	return c.ID != "" && c.Hierarchy.Title != ""
}

// flexID accepts either a JSON number or string id; the eCFR API has
// shipped both over time.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("correction id is neither string nor number: %s", strings.TrimSpace(string(data)))
	}
	*f = flexID(n.String())
	return nil
}
