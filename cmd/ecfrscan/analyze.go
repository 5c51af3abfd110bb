package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/ecfrscan/analysis"
	"github.com/c360studio/ecfrscan/config"
	"github.com/c360studio/ecfrscan/corpus"
	"github.com/c360studio/ecfrscan/hierarchy"
	"github.com/c360studio/ecfrscan/metrics"
	"github.com/c360studio/ecfrscan/report"
)

func analyzeCmd(flags *rootFlags) *cobra.Command {
	var only []string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analysis pass and write the dashboard artifacts",
		Long: `Analyze runs the full pipeline: word counts, every configured
keyword footprint, and the corrections merge, then writes the JSON
artifacts. Report failures are isolated: a missing corrections corpus
skips that artifact and the rest are still written.

Use --only to restrict which artifacts are written (word-counts,
footprints, corrections, hierarchy, summary).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(flags.logLevel)
			cfg, err := loadConfig(flags, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			m := metrics.New()
			return runAnalysis(ctx, cfg, logger, m, only)
		},
	}

	cmd.Flags().StringSliceVar(&only, "only", nil,
		"Artifacts to write (word-counts, footprints, corrections, hierarchy, summary); empty = all")
	return cmd
}

// runAnalysis executes one pipeline run and writes the selected
// artifacts. Shared by analyze and watch.
func runAnalysis(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, only []string) error {
	start := time.Now()

	h, err := hierarchy.Load(cfg.AgenciesFile())
	if err != nil {
		return fmt.Errorf("load agency hierarchy: %w", err)
	}
	matchers, err := cfg.Matchers()
	if err != nil {
		return err
	}

	pipeline := &analysis.Pipeline{
		Hierarchy: h,
		Store:     corpus.NewStore(cfg.TextDir(), cfg.CorrectionsDir(), logger),
		Matchers:  matchers,
		Workers:   cfg.Analysis.Workers,
		Log:       logger,
		Metrics:   m,
	}
	result, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("analysis run: %w", err)
	}

	writer := report.NewWriter(cfg.OutputDir(), logger)
	now := time.Now().UTC()
	if err := writeArtifacts(writer, h, result, cfg, only, now, logger); err != nil {
		return err
	}

	if m != nil {
		m.RunDuration.Observe(time.Since(start).Seconds())
	}
	logger.Info("analysis complete",
		slog.String("output", cfg.OutputDir()),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// writeArtifacts writes either every artifact or the --only selection.
func writeArtifacts(w *report.Writer, h *hierarchy.Hierarchy, result *analysis.Result, cfg *config.Config, only []string, now time.Time, logger *slog.Logger) error {
	if len(only) == 0 {
		return w.WriteAll(h, result, cfg.Keywords(), cfg.Analysis.TopN, now)
	}

	for _, name := range only {
		switch name {
		case "word-counts":
			if err := w.Write(report.WordCountFile, report.BuildWordCounts(result.WordCounts, now)); err != nil {
				return err
			}
		case "footprints":
			keywords := cfg.Keywords()
			for fp, data := range result.Footprints {
				art := report.BuildFootprint(keywords[fp], data, result.WordCounts, now)
				if err := w.Write(report.FootprintFile(fp), art); err != nil {
					return err
				}
			}
		case "corrections":
			if result.CorrectionsErr != nil {
				logger.Error("corrections report unavailable, artifact skipped",
					slog.String("error", result.CorrectionsErr.Error()))
				continue
			}
			if err := w.Write(report.CorrectionsFile, report.BuildCorrections(result.Corrections, now)); err != nil {
				return err
			}
		case "hierarchy":
			if err := w.Write(report.HierarchyFile, report.BuildHierarchyMap(h, now)); err != nil {
				return err
			}
		case "summary":
			if err := w.Write(report.SummaryFile, report.BuildSummary(h, result, cfg.Analysis.TopN, now)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown artifact %q (expected word-counts, footprints, corrections, hierarchy, or summary)", name)
		}
	}
	return nil
}
