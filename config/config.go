// Package config provides configuration loading and management for
// ecfrscan.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/ecfrscan/keyword"
)

// Config represents the complete ecfrscan configuration
type Config struct {
	Data       DataConfig        `yaml:"data"`
	Analysis   AnalysisConfig    `yaml:"analysis"`
	Footprints []FootprintConfig `yaml:"footprints"`
}

// DataConfig configures where corpus inputs live and where artifacts go
type DataConfig struct {
	// Dir is the data root; the other paths default to subdirectories
	// of it when left empty
	Dir string `yaml:"dir"`
	// TextDir holds the per-title full-text XML snapshots
	TextDir string `yaml:"text_dir"`
	// CorrectionsDir holds the per-title corrections JSON files
	CorrectionsDir string `yaml:"corrections_dir"`
	// AgenciesFile is the agency hierarchy JSON
	AgenciesFile string `yaml:"agencies_file"`
	// OutputDir receives the analysis artifacts
	OutputDir string `yaml:"output_dir"`
}

// AnalysisConfig configures the analysis run
type AnalysisConfig struct {
	// Workers bounds parallel text extraction (0 = number of CPUs)
	Workers int `yaml:"workers"`
	// TopN is the length of ranked views in the summary artifact
	TopN int `yaml:"top_n"`
}

// FootprintConfig is one named keyword footprint
type FootprintConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Dir: "data",
		},
		Analysis: AnalysisConfig{
			Workers: 0, // Number of CPUs
			TopN:    10,
		},
		Footprints: []FootprintConfig{
			{Name: "dei", Keywords: keyword.DEIWords},
			{Name: "bureaucracy", Keywords: keyword.BureaucracyWords},
		},
	}
}

// TextDir returns the resolved text directory
func (c *Config) TextDir() string {
	if c.Data.TextDir != "" {
		return c.Data.TextDir
	}
	return filepath.Join(c.Data.Dir, "text")
}

// CorrectionsDir returns the resolved corrections directory
func (c *Config) CorrectionsDir() string {
	if c.Data.CorrectionsDir != "" {
		return c.Data.CorrectionsDir
	}
	return filepath.Join(c.Data.Dir, "corrections")
}

// AgenciesFile returns the resolved agency hierarchy path
func (c *Config) AgenciesFile() string {
	if c.Data.AgenciesFile != "" {
		return c.Data.AgenciesFile
	}
	return filepath.Join(c.Data.Dir, "agencies.json")
}

// OutputDir returns the resolved artifact directory
func (c *Config) OutputDir() string {
	if c.Data.OutputDir != "" {
		return c.Data.OutputDir
	}
	return filepath.Join(c.Data.Dir, "analysis")
}

// Matchers compiles one keyword matcher per configured footprint
func (c *Config) Matchers() (map[string]*keyword.Matcher, error) {
	matchers := make(map[string]*keyword.Matcher, len(c.Footprints))
	for _, fp := range c.Footprints {
		m, err := keyword.New(fp.Keywords)
		if err != nil {
			return nil, fmt.Errorf("footprint %q: %w", fp.Name, err)
		}
		matchers[fp.Name] = m
	}
	return matchers, nil
}

// Keywords returns the normalized keyword list per footprint, for the
// artifact headers
func (c *Config) Keywords() map[string][]string {
	out := make(map[string][]string, len(c.Footprints))
	for _, fp := range c.Footprints {
		out[fp.Name] = keyword.MustNew(fp.Keywords).Keywords()
	}
	return out
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Data.Dir == "" && (c.Data.TextDir == "" || c.Data.CorrectionsDir == "" || c.Data.AgenciesFile == "") {
		return fmt.Errorf("data.dir is required when data paths are not set individually")
	}
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must not be negative")
	}
	if c.Analysis.TopN <= 0 {
		return fmt.Errorf("analysis.top_n must be positive")
	}
	seen := make(map[string]struct{}, len(c.Footprints))
	for _, fp := range c.Footprints {
		if fp.Name == "" {
			return fmt.Errorf("footprint name is required")
		}
		if _, dup := seen[fp.Name]; dup {
			return fmt.Errorf("duplicate footprint name %q", fp.Name)
		}
		seen[fp.Name] = struct{}{}
		if len(fp.Keywords) == 0 {
			return fmt.Errorf("footprint %q has no keywords", fp.Name)
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Data
	if other.Data.Dir != "" {
		c.Data.Dir = other.Data.Dir
	}
	if other.Data.TextDir != "" {
		c.Data.TextDir = other.Data.TextDir
	}
	if other.Data.CorrectionsDir != "" {
		c.Data.CorrectionsDir = other.Data.CorrectionsDir
	}
	if other.Data.AgenciesFile != "" {
		c.Data.AgenciesFile = other.Data.AgenciesFile
	}
	if other.Data.OutputDir != "" {
		c.Data.OutputDir = other.Data.OutputDir
	}

	// Analysis
	if other.Analysis.Workers != 0 {
		c.Analysis.Workers = other.Analysis.Workers
	}
	if other.Analysis.TopN != 0 {
		c.Analysis.TopN = other.Analysis.TopN
	}

	// Footprints replace as a set; merging keyword lists element-wise
	// would silently mix configurations
	if len(other.Footprints) > 0 {
		c.Footprints = other.Footprints
	}
}
