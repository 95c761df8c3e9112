package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 30, cfg.MaxLeadDays)
	assert.Equal(t, 11.5, cfg.DefaultVehicleCapacity)
	assert.Equal(t, "console", cfg.OutputFormat)
	assert.Equal(t, "FPS.csv", cfg.Files.Outlets)
	assert.Equal(t, 30*time.Second, cfg.KafkaTimeout)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "distsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input_dir: /data/scenario
output_format: parquet
kafka_timeout: 5s
files:
  vehicles: Fleet.csv
database:
  enabled: true
  url: postgres://localhost/distsim
`), 0o644))
	t.Setenv("DISTSIM_MAX_LEAD_DAYS", "12")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/scenario", cfg.InputDir)
	assert.Equal(t, "parquet", cfg.OutputFormat)
	assert.Equal(t, 5*time.Second, cfg.KafkaTimeout)
	assert.Equal(t, "Fleet.csv", cfg.Files.Vehicles)
	assert.Equal(t, "Settings.csv", cfg.Files.Settings)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres://localhost/distsim", cfg.Database.URL)
	assert.Equal(t, 12, cfg.MaxLeadDays)
}
