// Package main provides the ecfrscan binary entry point.
// Ecfrscan computes per-agency text metrics over the eCFR corpus:
// word counts, keyword footprints, and correction-history aggregates,
// serialized as JSON artifacts for the dashboard.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/ecfrscan/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ecfrscan"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	dataDir    string
	outputDir  string
	logLevel   string
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "eCFR per-agency text metrics engine",
		Long: `Ecfrscan analyzes the Electronic Code of Federal Regulations corpus
and produces per-agency metrics for the dashboard:

- word counts per agency and CFR reference
- keyword footprints (DEI, bureaucracy, or custom lists)
- correction-history aggregates

Inputs are the agency hierarchy JSON, per-title full-text XML snapshots,
and per-title corrections JSON. Outputs are JSON artifacts in the
configured output directory.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&flags.dataDir, "data", "", "Data root directory (overrides config)")
	pf.StringVar(&flags.outputDir, "output", "", "Artifact output directory (overrides config)")
	pf.StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(analyzeCmd(flags))
	cmd.AddCommand(watchCmd(flags))
	cmd.AddCommand(hierarchyCmd(flags))
	cmd.AddCommand(initCmd(flags))

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func initCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the user config file with defaults",
		Long: `Init writes ~/.config/ecfrscan/config.yaml with the default
configuration (data directories, worker count, and the built-in DEI and
bureaucracy footprints) as a starting point for editing. An existing
config file is left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(flags.logLevel)
			return config.NewLoader(logger).EnsureUserConfig()
		},
	}
}

// setupLogger configures the default slog logger and returns it.
func setupLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// loadConfig resolves configuration: an explicit --config file merged
// over defaults, or the layered loader, then flag overrides.
func loadConfig(flags *rootFlags, logger *slog.Logger) (*config.Config, error) {
	var cfg *config.Config
	if flags.configPath != "" {
		fileCfg, err := config.LoadFromFile(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = config.DefaultConfig()
		cfg.Merge(fileCfg)
	} else {
		loaded, err := config.NewLoader(logger).Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if flags.dataDir != "" {
		cfg.Data.Dir = flags.dataDir
	}
	if flags.outputDir != "" {
		cfg.Data.OutputDir = flags.outputDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
