// Package config holds the conversion settings shared by the CLI and
// the pipeline.
//
// Config file locations (priority order):
//  1. $BREPGRAPH_CONFIG
//  2. ./brepgraph.yaml
//  3. ~/.config/brepgraph/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface.
type Config struct {
	// GridResolution is the per-axis UV sample count of every face
	// feature grid.
	GridResolution int `yaml:"grid_resolution"`
	// EdgeSampleCount is the number of curve samples per graph edge.
	EdgeSampleCount int `yaml:"edge_sample_count"`
	// WorkerCount bounds concurrent file conversions.
	WorkerCount int `yaml:"worker_count"`
	// ConversionTimeoutSeconds bounds a single file's conversion.
	ConversionTimeoutSeconds float64 `yaml:"conversion_timeout_seconds"`
	// ManifestPath is the sqlite run-manifest database location.
	ManifestPath string `yaml:"manifest_path"`
	// OutputDir is where converted graph files land by default.
	OutputDir string `yaml:"output_dir"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Load finds and loads the config file, or returns defaults if none
// is found.
func Load() (*Config, string, error) {
	path := findConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

func findConfigPath() string {
	if p := os.Getenv("BREPGRAPH_CONFIG"); p != "" {
		return p
	}
	candidates := []string{"./brepgraph.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "brepgraph", "config.yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		GridResolution:           10,
		EdgeSampleCount:          10,
		WorkerCount:              runtime.NumCPU(),
		ConversionTimeoutSeconds: 300,
		ManifestPath:             "./brepgraph.db",
		OutputDir:                "./graphs",
		LogLevel:                 "info",
	}
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.GridResolution == 0 {
		c.GridResolution = d.GridResolution
	}
	if c.EdgeSampleCount == 0 {
		c.EdgeSampleCount = d.EdgeSampleCount
	}
	if c.WorkerCount == 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.ConversionTimeoutSeconds == 0 {
		c.ConversionTimeoutSeconds = d.ConversionTimeoutSeconds
	}
	if c.ManifestPath == "" {
		c.ManifestPath = d.ManifestPath
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.GridResolution < 2 {
		return fmt.Errorf("grid_resolution %d: must be >= 2", c.GridResolution)
	}
	if c.EdgeSampleCount < 2 {
		return fmt.Errorf("edge_sample_count %d: must be >= 2", c.EdgeSampleCount)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker_count %d: must be >= 1", c.WorkerCount)
	}
	if c.ConversionTimeoutSeconds <= 0 {
		return fmt.Errorf("conversion_timeout_seconds %g: must be > 0", c.ConversionTimeoutSeconds)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q: must be debug, info, warn or error", c.LogLevel)
	}
	return nil
}

// ConversionTimeout returns the per-file timeout as a duration.
func (c *Config) ConversionTimeout() time.Duration {
	return time.Duration(c.ConversionTimeoutSeconds * float64(time.Second))
}
