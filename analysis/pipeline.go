package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/c360studio/ecfrscan/cfr"
	"github.com/c360studio/ecfrscan/corpus"
	"github.com/c360studio/ecfrscan/hierarchy"
	"github.com/c360studio/ecfrscan/keyword"
	"github.com/c360studio/ecfrscan/metrics"
)

// Pipeline runs one full analysis pass: a parallel map over CFR
// references producing measurements, then a single reduce into per-agency
// maps. All I/O (title text, corrections) is resolved through the Store;
// nothing blocks on the network.
type Pipeline struct {
	Hierarchy *hierarchy.Hierarchy
	Store     *corpus.Store
	// Matchers maps footprint name to its compiled keyword matcher.
	Matchers map[string]*keyword.Matcher
	// Workers bounds the parallel map phase; zero means GOMAXPROCS.
	Workers int
	Log     *slog.Logger
	Metrics *metrics.Metrics
}

// Quality summarizes the data issues absorbed during a run. It is
// surfaced in the summary artifact so input problems are visible instead
// of silently swallowed.
type Quality struct {
	SkippedAgencyRecords     int      `json:"skipped_agency_records"`
	SkippedCorrectionRecords int      `json:"skipped_correction_records"`
	EmptyReferences          int      `json:"empty_references"`
	MissingTitles            []int    `json:"missing_titles,omitempty"`
	MissingCorrectionTitles  []int    `json:"missing_correction_titles,omitempty"`
	UnknownAgencies          []string `json:"unknown_agencies,omitempty"`
}

// Result is everything one run produced.
type Result struct {
	WordCounts  map[string]*AgencyData
	Footprints  map[string]map[string]*AgencyData
	Corrections map[string]*AgencyCorrections
	// CorrectionsErr is set when the corrections report failed as a
	// whole; the other reports remain valid.
	CorrectionsErr error
	Quality        Quality
}

// refTask is one unit of the parallel map phase: a distinct reference and
// every agency that administers it.
type refTask struct {
	ref   cfr.Reference
	slugs []string
}

// Run executes the pipeline. Per-record problems are skipped and counted;
// only a corpus with no usable title text at all is fatal.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	tasks, titles := p.collectTasks()
	log.Info("starting analysis run",
		slog.Int("references", len(tasks)),
		slog.Int("titles", len(titles)),
		slog.Int("workers", workers))

	result := &Result{Quality: Quality{SkippedAgencyRecords: p.Hierarchy.Skipped()}}

	agg := NewAggregator(footprintNames(p.Matchers))
	if err := p.mapReduce(ctx, tasks, workers, agg, result, log); err != nil {
		return nil, err
	}
	result.WordCounts = agg.WordCounts()
	result.Footprints = make(map[string]map[string]*AgencyData, len(p.Matchers))
	for name := range p.Matchers {
		result.Footprints[name] = agg.Footprint(name)
	}

	p.mergeCorrections(titles, result, log)

	rollup := NewRollup(p.Hierarchy, result.WordCounts, log)
	result.Quality.UnknownAgencies = rollup.Unknown()
	if p.Metrics != nil {
		p.Metrics.RecordsSkipped.WithLabelValues(metrics.ReasonUnknownAgency).
			Add(float64(len(result.Quality.UnknownAgencies)))
	}
	return result, nil
}

// collectTasks inverts slug→references into one task per distinct
// reference key; the titles involved come from the hierarchy's per-title
// agency index.
func (p *Pipeline) collectTasks() ([]refTask, []int) {
	type entry struct {
		ref   cfr.Reference
		slugs map[string]struct{}
	}
	byKey := make(map[cfr.Key]*entry)

	for slug, refs := range p.Hierarchy.References() {
		for _, ref := range refs {
			if ref.Title <= 0 {
				continue
			}
			key := ref.Key()
			e := byKey[key]
			if e == nil {
				e = &entry{ref: ref, slugs: make(map[string]struct{})}
				byKey[key] = e
			}
			e.slugs[slug] = struct{}{}
		}
	}

	tasks := make([]refTask, 0, len(byKey))
	for _, key := range cfr.SortKeys(byKey) {
		e := byKey[key]
		slugs := make([]string, 0, len(e.slugs))
		for s := range e.slugs {
			slugs = append(slugs, s)
		}
		sort.Strings(slugs)
		tasks = append(tasks, refTask{ref: e.ref, slugs: slugs})
	}

	byTitle := p.Hierarchy.TitleAgencies()
	titles := make([]int, 0, len(byTitle))
	for t := range byTitle {
		titles = append(titles, t)
	}
	sort.Ints(titles)
	return tasks, titles
}

// mapReduce runs the bounded parallel map over references and folds
// measurements through a single reducer goroutine.
func (p *Pipeline) mapReduce(ctx context.Context, tasks []refTask, workers int, agg *Aggregator, result *Result, log *slog.Logger) error {
	measurements := make(chan Measurement, workers)
	missingTitles := make(map[int]struct{})
	emptyRefs := 0
	processed := 0

	reduceDone := make(chan struct{})
	go func() {
		defer close(reduceDone)
		for m := range measurements {
			agg.Fold(m)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	type skip struct {
		title int
		empty bool
	}
	skips := make(chan skip, len(tasks))

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, desc, err := p.Store.ExtractText(task.ref)
			if err != nil {
				if errors.Is(err, corpus.ErrMissingData) {
					skips <- skip{title: task.ref.Title}
					return nil
				}
				return fmt.Errorf("extract %s: %w", task.ref, err)
			}
			if text == "" {
				skips <- skip{empty: true}
				return nil
			}
			m := Measure(corpus.Record{
				Ref:         task.ref,
				Slugs:       task.slugs,
				Text:        text,
				Description: desc,
			}, p.Matchers)
			select {
			case measurements <- m:
			case <-gctx.Done():
				return gctx.Err()
			}
			return nil
		})
	}

	err := g.Wait()
	close(measurements)
	close(skips)
	<-reduceDone
	if err != nil {
		return err
	}

	for s := range skips {
		if s.empty {
			emptyRefs++
		} else {
			missingTitles[s.title] = struct{}{}
		}
	}
	processed = len(tasks) - emptyRefs - countMissing(tasks, missingTitles)

	result.Quality.EmptyReferences = emptyRefs
	for t := range missingTitles {
		result.Quality.MissingTitles = append(result.Quality.MissingTitles, t)
	}
	sort.Ints(result.Quality.MissingTitles)
	for _, t := range result.Quality.MissingTitles {
		log.Warn("no full-text file for title, references skipped", slog.Int("title", t))
	}

	if p.Metrics != nil {
		p.Metrics.ReferencesProcessed.Add(float64(processed))
		p.Metrics.RecordsSkipped.WithLabelValues(metrics.ReasonEmptyText).Add(float64(emptyRefs))
		p.Metrics.RecordsSkipped.WithLabelValues(metrics.ReasonMissingTitle).Add(float64(len(result.Quality.MissingTitles)))

		taskTitles := make(map[int]struct{})
		for _, t := range tasks {
			taskTitles[t.ref.Title] = struct{}{}
		}
		p.Metrics.TitlesLoaded.Add(float64(len(taskTitles) - len(missingTitles)))
	}

	if len(tasks) > 0 && processed == 0 && emptyRefs == 0 {
		return fmt.Errorf("%w: no title text available for any referenced title", corpus.ErrMissingData)
	}
	return nil
}

// mergeCorrections loads per-title corrections and merges them. A missing
// file for one title is logged and skipped; all titles missing fails the
// corrections report alone.
func (p *Pipeline) mergeCorrections(titles []int, result *Result, log *slog.Logger) {
	byTitle := make(map[int][]corpus.Correction)
	loaded := 0
	for _, title := range titles {
		corrections, skipped, err := p.Store.LoadCorrections(title)
		result.Quality.SkippedCorrectionRecords += skipped
		if err != nil {
			if errors.Is(err, corpus.ErrMissingData) {
				result.Quality.MissingCorrectionTitles = append(result.Quality.MissingCorrectionTitles, title)
				continue
			}
			result.CorrectionsErr = err
			return
		}
		loaded++
		byTitle[title] = corrections
	}
	if p.Metrics != nil {
		p.Metrics.RecordsSkipped.WithLabelValues(metrics.ReasonSchema).
			Add(float64(result.Quality.SkippedCorrectionRecords))
	}
	if len(titles) > 0 && loaded == 0 {
		result.CorrectionsErr = fmt.Errorf("%w: no corrections data for any referenced title", corpus.ErrMissingData)
		return
	}

	result.Corrections = MergeCorrections(p.Hierarchy.References(), byTitle)
	if p.Metrics != nil {
		var merged int
		for _, agency := range result.Corrections {
			for _, bucket := range agency.References {
				merged += len(bucket.Corrections)
			}
		}
		p.Metrics.CorrectionsMerged.Add(float64(merged))
	}
}

func footprintNames(matchers map[string]*keyword.Matcher) []string {
	names := make([]string, 0, len(matchers))
	for name := range matchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// countMissing counts tasks whose title had no text file.
func countMissing(tasks []refTask, missingTitles map[int]struct{}) int {
	n := 0
	for _, t := range tasks {
		if _, ok := missingTitles[t.ref.Title]; ok {
			n++
		}
	}
	return n
}
