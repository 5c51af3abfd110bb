package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	l := NewLoader(nil)
	if err := l.EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}

	path := filepath.Join(home, UserConfigDir, UserConfigFile)
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("failed to load created config: %v", err)
	}
	if loaded.Data.Dir != "data" {
		t.Errorf("expected default data dir in created config, got %s", loaded.Data.Dir)
	}
	if len(loaded.Footprints) != 2 {
		t.Errorf("expected default footprints in created config, got %d", len(loaded.Footprints))
	}
}

func TestEnsureUserConfigKeepsExisting(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(home, UserConfigDir, UserConfigFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	existing := "data:\n  dir: /custom\n"
	if err := os.WriteFile(path, []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}

	if err := NewLoader(nil).EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != existing {
		t.Error("existing user config must not be overwritten")
	}
}

func TestLoaderLoadAppliesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(home, UserConfigDir, UserConfigFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	content := "analysis:\n  top_n: 3\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	// Run from an empty directory so no project config interferes.
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Fatal(err)
		}
	})

	cfg, err := NewLoader(nil).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Analysis.TopN != 3 {
		t.Errorf("expected user config top_n 3, got %d", cfg.Analysis.TopN)
	}
	if cfg.Data.Dir != "data" {
		t.Errorf("expected defaults to survive merge, got data dir %s", cfg.Data.Dir)
	}
}
