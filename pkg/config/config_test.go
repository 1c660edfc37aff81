package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flint.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileFillsDefaults(t *testing.T) {
	path := writeConfig(t, "test_root: ./specs\n")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TestRoot != "./specs" {
		t.Errorf("TestRoot = %q", cfg.TestRoot)
	}
	if cfg.IndexPath != ".cache/index.db" || cfg.DefaultTag != "default" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Adapter.Kind != "memory" || cfg.Format != "summary" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadFileRemoteAdapter(t *testing.T) {
	path := writeConfig(t, "adapter:\n  kind: remote\n  url: ws://localhost:9000/test\n")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Adapter.Kind != "remote" || cfg.Adapter.URL != "ws://localhost:9000/test" {
		t.Errorf("adapter = %+v", cfg.Adapter)
	}
}

func TestLoadFileRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "test_dir: ./specs\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestLoadFileRejectsBadValues(t *testing.T) {
	path := writeConfig(t, "adapter:\n  kind: carrier-pigeon\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for unknown adapter kind")
	}

	path = writeConfig(t, "format: pdf\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "flint.yaml")

	cfg, err := Load(missing, false)
	if err != nil {
		t.Fatalf("implicit missing config should fall back to defaults: %v", err)
	}
	if cfg.TestRoot != "./test" {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := Load(missing, true); err == nil {
		t.Error("explicit missing config should error")
	}
}
