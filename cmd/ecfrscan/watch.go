package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/c360studio/ecfrscan/config"
	"github.com/c360studio/ecfrscan/metrics"
)

// debounce window between a corpus change and the re-run, so bulk file
// drops trigger one analysis instead of one per file.
const watchSettle = 2 * time.Second

func watchCmd(flags *rootFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the analysis whenever the corpus changes",
		Long: `Watch runs one analysis pass, then watches the data directories
(text, corrections, and the agencies file) and re-runs on changes.
Changes are debounced so a bulk snapshot drop triggers a single run.

With --listen, Prometheus metrics are served at /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(flags.logLevel)
			cfg, err := loadConfig(flags, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			m := metrics.New()
			if listen != "" {
				go serveMetrics(ctx, listen, m, logger)
			}
			return watch(ctx, cfg, logger, m)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Address for the Prometheus metrics endpoint (e.g. :9090)")
	return cmd
}

func watch(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) error {
	// Initial pass; a broken corpus at startup is fatal, later failures
	// only log so a half-written snapshot drop can settle.
	if err := runAnalysis(ctx, cfg, logger, m, nil); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, dir := range []string{cfg.TextDir(), cfg.CorrectionsDir()} {
		if err := watcher.Add(dir); err != nil {
			logger.Warn("cannot watch directory", slog.String("dir", dir), slog.String("error", err.Error()))
		} else {
			logger.Info("watching", slog.String("dir", dir))
		}
	}
	if err := watcher.Add(cfg.AgenciesFile()); err != nil {
		logger.Warn("cannot watch agencies file",
			slog.String("file", cfg.AgenciesFile()), slog.String("error", err.Error()))
	}

	settle := &debouncer{window: watchSettle}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("corpus change", slog.String("event", event.String()))
			settle.trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", slog.String("error", err.Error()))
		case <-settle.c():
			settle.fired()
			logger.Info("corpus changed, re-running analysis")
			if err := runAnalysis(ctx, cfg, logger, m, nil); err != nil {
				logger.Error("analysis run failed", slog.String("error", err.Error()))
			}
		}
	}
}

// debouncer collapses a burst of triggers into one tick, delivered once
// the window has passed without further triggers. Each trigger abandons
// the previous timer and its channel entirely, so a tick from a timer
// that fired before being stopped can never be read as the fresh one.
type debouncer struct {
	window time.Duration
	timer  *time.Timer
}

// trigger starts or restarts the settle window.
func (d *debouncer) trigger() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.NewTimer(d.window)
}

// c returns the pending tick channel, or nil (blocking forever in a
// select) when nothing is pending.
func (d *debouncer) c() <-chan time.Time {
	if d.timer == nil {
		return nil
	}
	return d.timer.C
}

// fired marks the pending tick consumed.
func (d *debouncer) fired() {
	d.timer = nil
}

func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server failed", slog.String("error", err.Error()))
	}
}
