package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/imkarma/rcvlf/internal/task"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `version: 1
log_level: debug
ready_confidence: 0.8
defaults:
  confidence: 0.6
  value: 3
  learning: 1
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.LogLevel)
	}
	if cfg.MinConfidence() != 0.8 {
		t.Errorf("expected ready confidence 0.8, got %v", cfg.MinConfidence())
	}
	if cfg.Defaults.Value != 3 || cfg.Defaults.Learning != 1 || cfg.Defaults.Confidence != 0.6 {
		t.Errorf("unexpected defaults %+v", cfg.Defaults)
	}
}

func TestLoad_MissingFieldsUseDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "version: 1\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MinConfidence() != 0.7 {
		t.Errorf("expected default ready confidence 0.7, got %v", cfg.MinConfidence())
	}
	if cfg.Defaults.Value != 2 {
		t.Errorf("expected default value 2, got %d", cfg.Defaults.Value)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"version":   "version: 0\n",
		"log level": "version: 1\nlog_level: loud\n",
		"ready":     "version: 1\nready_confidence: 1.5\n",
		"defaults":  "version: 1\ndefaults:\n  confidence: 0.5\n  value: 7\n  learning: 2\n",
		"yaml":      "version: [\n",
	}
	for name, content := range cases {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoad_InvalidDefaultsWrapScoreError(t *testing.T) {
	_, err := Load(writeConfig(t, "version: 1\ndefaults:\n  confidence: 2\n  value: 2\n  learning: 2\n"))
	if !errors.Is(err, task.ErrInvalidScore) {
		t.Errorf("expected wrapped INVALID_SCORE, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.LogLevel = "warn"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.LogLevel != "warn" || loaded.Defaults != cfg.Defaults {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestDefaultsParams(t *testing.T) {
	p := DefaultConfig().Defaults.Params("Write docs", "parent")
	if p.Name != "Write docs" || p.ParentID != "parent" || p.Value != 2 {
		t.Errorf("unexpected params %+v", p)
	}
	if err := task.ValidateParams(p); err != nil {
		t.Errorf("default params invalid: %v", err)
	}
}
