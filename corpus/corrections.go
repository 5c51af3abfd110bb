package corpus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// correctionsFile mirrors the eCFR corrections API response for one
// title: a list of corrections, each citing one or more CFR references.
type correctionsFile struct {
	Corrections []rawCorrection `json:"ecfr_corrections"`
}

type rawCorrection struct {
	ID               flexID          `json:"id"`
	Year             int             `json:"year"`
	CorrectiveAction string          `json:"corrective_action"`
	ErrorCorrected   string          `json:"error_corrected"`
	ErrorOccurred    string          `json:"error_occurred"`
	FRCitation       string          `json:"fr_citation"`
	CFRReferences    []rawCFRRef     `json:"cfr_references"`
}

// rawCFRRef is one citation within a correction record.
type rawCFRRef struct {
	CFRReference string              `json:"cfr_reference"`
	Hierarchy    CorrectionHierarchy `json:"hierarchy"`
}

// LoadCorrections reads the corrections file for a title and flattens it
// into one Correction per cited CFR reference. Malformed records are
// skipped and counted, not fatal.
func (s *Store) LoadCorrections(title int) ([]Correction, int, error) {
	path := filepath.Join(s.correctionsDir, fmt.Sprintf("title_%d_corrections.json", title))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("%w: %s", ErrMissingData, path)
		}
		return nil, 0, fmt.Errorf("read corrections for title %d: %w", title, err)
	}

	var file correctionsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, 0, fmt.Errorf("parse corrections for title %d: %w", title, err)
	}

	var out []Correction
	skipped := 0
	for _, raw := range file.Corrections {
		if raw.ID == "" || len(raw.CFRReferences) == 0 {
			skipped++
			continue
		}
		for _, ref := range raw.CFRReferences {
			c := Correction{
				ID:               string(raw.ID),
				Year:             raw.Year,
				CorrectiveAction: raw.CorrectiveAction,
				ErrorCorrected:   raw.ErrorCorrected,
				ErrorOccurred:    raw.ErrorOccurred,
				FRCitation:       raw.FRCitation,
				CFRReference:     ref.CFRReference,
				Hierarchy:        ref.Hierarchy,
			}
			if !c.Valid() {
				skipped++
				continue
			}
			out = append(out, c)
		}
	}

	if skipped > 0 {
		s.log.Warn("skipped malformed correction records",
			slog.Int("title", title),
			slog.Int("skipped", skipped))
	}
	return out, skipped, nil
}
