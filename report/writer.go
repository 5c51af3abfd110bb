package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/c360studio/ecfrscan/analysis"
	"github.com/c360studio/ecfrscan/hierarchy"
)

// Artifact filenames consumed by the dashboard.
const (
	WordCountFile   = "word_count_by_agency.json"
	CorrectionsFile = "corrections_by_agency.json"
	HierarchyFile   = "agency_hierarchy_map.json"
	SummaryFile     = "analysis_summary.json"
)

// FootprintFile returns the artifact filename for a footprint name.
func FootprintFile(name string) string {
	return name + "_footprint.json"
}

// Writer serializes artifacts into an output directory.
type Writer struct {
	dir string
	log *slog.Logger
}

// NewWriter creates a writer rooted at dir. The directory is created on
// first write.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, log: logger}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Write marshals v as indented JSON and atomically replaces
// <dir>/<name>. A dashboard polling the directory never observes a
// half-written artifact.
func (w *Writer) Write(name string, v any) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	data = append(data, '\n')

	path := filepath.Join(w.dir, name)
	tmp, err := os.CreateTemp(w.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	w.log.Info("wrote artifact", slog.String("file", name), slog.Int("bytes", len(data)))
	return nil
}

// WriteAll builds and writes every artifact for one run. Report failures
// are isolated: a failing corrections report (already recorded on the
// result) skips that artifact but the rest are still written. The
// returned error joins any write failures.
func (w *Writer) WriteAll(h *hierarchy.Hierarchy, result *analysis.Result, keywords map[string][]string, topN int, now time.Time) error {
	var errs []error

	if err := w.Write(WordCountFile, BuildWordCounts(result.WordCounts, now)); err != nil {
		errs = append(errs, err)
	}
	for name, data := range result.Footprints {
		art := BuildFootprint(keywords[name], data, result.WordCounts, now)
		if err := w.Write(FootprintFile(name), art); err != nil {
			errs = append(errs, err)
		}
	}
	if result.CorrectionsErr != nil {
		w.log.Error("corrections report unavailable, artifact skipped",
			slog.String("error", result.CorrectionsErr.Error()))
	} else if err := w.Write(CorrectionsFile, BuildCorrections(result.Corrections, now)); err != nil {
		errs = append(errs, err)
	}
	if err := w.Write(HierarchyFile, BuildHierarchyMap(h, now)); err != nil {
		errs = append(errs, err)
	}
	if err := w.Write(SummaryFile, BuildSummary(h, result, topN, now)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
