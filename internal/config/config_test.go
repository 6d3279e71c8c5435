package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 0.85, cfg.Duplicates.SimilarityThreshold)
	assert.Equal(t, 10, cfg.Duplicates.DurationBucketSeconds)
	assert.Equal(t, 64, cfg.Duplicates.DimensionBucket)
	assert.Equal(t, 64*1024, cfg.Duplicates.SampleBytes)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
duplicates:
  similarity_threshold: 0.92
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.92, cfg.Duplicates.SimilarityThreshold)
	// Untouched values keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesWin(t *testing.T) {
	t.Setenv("MEDIAKEEP_PORT", "7070")
	t.Setenv("MEDIAKEEP_SIMILARITY_THRESHOLD", "0.75")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 0.75, cfg.Duplicates.SimilarityThreshold)
}

func TestLoad_InvalidThresholdIgnored(t *testing.T) {
	t.Setenv("MEDIAKEEP_SIMILARITY_THRESHOLD", "1.5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.85, cfg.Duplicates.SimilarityThreshold)
}
