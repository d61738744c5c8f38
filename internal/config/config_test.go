package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "geojson_output", cfg.Convert.OutputDir)
	assert.Equal(t, 4, cfg.Convert.Workers)
	assert.Equal(t, 2, cfg.Convert.Indent)
	assert.Equal(t, "heatmap_output", cfg.Heatmap.OutputDir)
	assert.InDelta(t, 0.01, cfg.Heatmap.Radius, 1e-9)
	assert.InDelta(t, 0.001, cfg.Heatmap.PixelSize, 1e-9)
	assert.Equal(t, "quartic", cfg.Heatmap.Kernel)
	assert.Equal(t, "geotracks.db", cfg.Store.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 10.0, cfg.Server.RateLimit, 1e-9)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	data, err := yaml.Marshal(map[string]any{
		"convert": map[string]any{"workers": 8, "indent": 0},
		"heatmap": map[string]any{"kernel": "triangular"},
		"log":     map[string]any{"level": "debug", "format": "json"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Convert.Workers)
	assert.Equal(t, 0, cfg.Convert.Indent)
	assert.Equal(t, "triangular", cfg.Heatmap.Kernel)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, "geojson_output", cfg.Convert.OutputDir)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	raw := "log:\n  level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(raw), 0644))

	t.Setenv("GEOTRACKS_LOG_LEVEL", "warn")
	t.Setenv("GEOTRACKS_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestValidateConvert(t *testing.T) {
	cfg := &Config{Convert: ConvertConfig{Workers: 4, Indent: 2}}
	assert.NoError(t, cfg.Validate("convert"))

	cfg.Convert.Workers = 0
	assert.Error(t, cfg.Validate("convert"))

	cfg.Convert.Workers = 65
	assert.Error(t, cfg.Validate("convert"))

	cfg.Convert.Workers = 4
	cfg.Convert.Indent = -1
	assert.Error(t, cfg.Validate("convert"))
}

func TestValidateHeatmap(t *testing.T) {
	cfg := &Config{Heatmap: HeatmapConfig{Radius: 0.01, PixelSize: 0.001, Kernel: "quartic"}}
	assert.NoError(t, cfg.Validate("heatmap"))

	cfg.Heatmap.Radius = 0
	err := cfg.Validate("heatmap")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "heatmap.radius")

	cfg.Heatmap.Radius = 0.01
	cfg.Heatmap.Kernel = "gaussian"
	err = cfg.Validate("heatmap")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "heatmap.kernel")
}

func TestValidateServe(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: 9090}}
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate("serve"))

	cfg.Server.Port = 9090
	cfg.Server.RateLimit = -1
	assert.Error(t, cfg.Validate("serve"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
