package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.GridResolution)
	assert.Equal(t, 10, cfg.EdgeSampleCount)
	assert.GreaterOrEqual(t, cfg.WorkerCount, 1)
	assert.Equal(t, 5*time.Minute, cfg.ConversionTimeout())
	assert.Equal(t, "./graphs", cfg.OutputDir)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brepgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"grid_resolution: 16\nworker_count: 2\nconversion_timeout_seconds: 1.5\n",
	), 0o644))

	cfg, loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, loaded)
	assert.Equal(t, 16, cfg.GridResolution)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 1500*time.Millisecond, cfg.ConversionTimeout())
	// Unset keys take defaults.
	assert.Equal(t, 10, cfg.EdgeSampleCount)
}

func TestLoadFromPathRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"grid too small":   "grid_resolution: 1\n",
		"sample too small": "edge_sample_count: 1\n",
		"bad workers":      "worker_count: -3\n",
		"bad timeout":      "conversion_timeout_seconds: -1\n",
		"bad log level":    "log_level: loud\n",
		"bad yaml":         "grid_resolution: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, _, err := LoadFromPath(path)
			require.Error(t, err)
		})
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid_resolution: 7\n"), 0o644))
	t.Setenv("BREPGRAPH_CONFIG", path)

	cfg, loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, path, loaded)
	assert.Equal(t, 7, cfg.GridResolution)
}
