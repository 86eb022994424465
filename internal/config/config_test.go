package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/landform/internal/engine"
	"github.com/talgya/landform/internal/terrain"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	t.Setenv(EnvDBPath, "")
	t.Setenv(EnvAdminKey, "")
	path := writeFile(t, `
grid_size = 33
max_steps = 250
preset = "banded"
diffusion = false

[params]
rain = 50.0
uplift_u = 2.5
`)
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 33, s.GridSize)
	assert.Equal(t, 250, s.MaxSteps)
	assert.Equal(t, "banded", s.Preset)
	assert.False(t, s.Diffusion)
	assert.Equal(t, 10, s.ReportEvery, "unset keys keep their defaults")
	assert.Equal(t, "terrain_output.asc", s.ExportPath)
	assert.Equal(t, 50.0, s.Params.Rain)
	assert.Equal(t, 2.5, s.Params.Uplift)
	assert.Equal(t, engine.DefaultParams().Erode, s.Params.Erode)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(EnvDBPath, "")
	t.Setenv(EnvAdminKey, "")
	s, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadBadSyntaxReturnsDefaults(t *testing.T) {
	t.Setenv(EnvDBPath, "")
	t.Setenv(EnvAdminKey, "")
	s, err := Load(writeFile(t, "grid_size = [oops"))
	assert.Error(t, err)
	assert.Equal(t, 65, s.GridSize)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvDBPath, "/tmp/other.db")
	t.Setenv(EnvAdminKey, "secret")
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", s.DBPath)
	assert.Equal(t, "secret", s.AdminKey)
}

func TestLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for name, want := range cases {
		assert.Equal(t, want, Settings{LogLevel: name}.Level(), name)
	}
}

func TestModelConfig(t *testing.T) {
	s := Default()
	s.GridSize = 21
	s.Seed = 99
	s.Preset = "simplex"
	s.Diffusion = false

	cfg, err := s.ModelConfig()
	require.NoError(t, err)
	assert.Equal(t, 21, cfg.Width)
	assert.Equal(t, 21, cfg.Height)
	assert.Equal(t, int64(99), cfg.Terrain.Seed)
	assert.Equal(t, terrain.PresetSimplex, cfg.Terrain.Preset)
	assert.False(t, cfg.Erosion.Diffusion)

	s.Preset = "volcanic"
	_, err = s.ModelConfig()
	assert.Error(t, err)
}
