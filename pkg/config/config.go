// Package config loads the optional flint.yaml project configuration. CLI
// flags override anything set here.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AdapterConfig selects the world adapter for runs.
type AdapterConfig struct {
	// Kind is "memory" or "remote".
	Kind string `yaml:"kind"`
	// URL is the server binding address for the remote adapter.
	URL string `yaml:"url,omitempty"`
}

// Config is the flint.yaml document.
type Config struct {
	TestRoot   string        `yaml:"test_root,omitempty"`
	IndexPath  string        `yaml:"index_path,omitempty"`
	DefaultTag string        `yaml:"default_tag,omitempty"`
	Adapter    AdapterConfig `yaml:"adapter,omitempty"`
	// Format is the default report format: summary, json, tap, junit, ci.
	Format string `yaml:"format,omitempty"`
}

// Default returns the configuration used when no flint.yaml exists.
func Default() *Config {
	return &Config{
		TestRoot:   "./test",
		IndexPath:  ".cache/index.db",
		DefaultTag: "default",
		Adapter:    AdapterConfig{Kind: "memory"},
		Format:     "summary",
	}
}

// LoadFile reads and strictly decodes a flint.yaml, filling unset fields
// with defaults. Unknown fields are rejected.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	def := Default()
	if cfg.TestRoot == "" {
		cfg.TestRoot = def.TestRoot
	}
	if cfg.IndexPath == "" {
		cfg.IndexPath = def.IndexPath
	}
	if cfg.DefaultTag == "" {
		cfg.DefaultTag = def.DefaultTag
	}
	if cfg.Adapter.Kind == "" {
		cfg.Adapter.Kind = def.Adapter.Kind
	}
	if cfg.Format == "" {
		cfg.Format = def.Format
	}

	switch cfg.Adapter.Kind {
	case "memory", "remote":
	default:
		return nil, fmt.Errorf("%s: unknown adapter kind %q (memory or remote)", path, cfg.Adapter.Kind)
	}
	switch cfg.Format {
	case "summary", "json", "tap", "junit", "ci":
	default:
		return nil, fmt.Errorf("%s: unknown format %q (summary, json, tap, junit, or ci)", path, cfg.Format)
	}

	return &cfg, nil
}

// Load returns the configuration at path if it exists, defaults otherwise.
// An explicit path that does not exist is an error; the implicit default
// path may be absent.
func Load(path string, explicit bool) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return LoadFile(path)
}
