package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.Equal(t, int64(10_000), cfg.Compression.MinTargetSizeBytes)
	assert.Equal(t, 1024, cfg.Compression.MaxDimension)
	assert.Equal(t, "jpeg", cfg.Compression.OutputFormat)
	assert.Equal(t, 15*time.Minute, cfg.API.PresignTTL)
	assert.GreaterOrEqual(t, cfg.Worker.MaxActiveJobs, 1)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PIXELPRESS_API_ADDR", ":9999")
	t.Setenv("PIXELPRESS_COMPRESSION_MAX_DIMENSION", "2048")
	t.Setenv("PIXELPRESS_WEBHOOK_MAX_BACKOFF", "30s")
	t.Setenv("PIXELPRESS_STORAGE_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.API.Addr)
	assert.Equal(t, 2048, cfg.Compression.MaxDimension)
	assert.Equal(t, 30*time.Second, cfg.Webhook.MaxBackoff)
	assert.True(t, cfg.Storage.UseSSL)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pixelpress.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
compression:
  min_target_size_bytes: 50000
  output_format: png
background:
  endpoint: http://rembg:7000/api/remove
`), 0o644))
	t.Setenv("PIXELPRESS_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(50_000), cfg.Compression.MinTargetSizeBytes)
	assert.Equal(t, "png", cfg.Compression.OutputFormat)
	assert.Equal(t, "http://rembg:7000/api/remove", cfg.Background.Endpoint)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("PIXELPRESS_COMPRESSION_OUTPUT_FORMAT", "tiff")

	_, err := Load()
	require.Error(t, err)
}
