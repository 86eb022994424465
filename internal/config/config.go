// Package config loads run settings from a TOML file with environment
// overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/talgya/landform/internal/engine"
	"github.com/talgya/landform/internal/terrain"
)

// Environment variables read by Load.
const (
	EnvDBPath   = "LANDSIM_DB_PATH"
	EnvAdminKey = "LANDSIM_ADMIN_KEY"
)

// Settings holds everything the driver needs to set up a run.
type Settings struct {
	GridSize    int    `toml:"grid_size"`
	MaxSteps    int    `toml:"max_steps"`
	ReportEvery int    `toml:"report_every"`
	Seed        int64  `toml:"seed"` // 0 = random
	Preset      string `toml:"preset"`
	Diffusion   bool   `toml:"diffusion"`
	DBPath      string `toml:"db_path"` // Empty = no persistence
	ExportPath  string `toml:"export_path"`
	APIPort     int    `toml:"api_port"`
	AdminKey    string `toml:"admin_key"`
	LogLevel    string `toml:"log_level"`

	Params engine.Params `toml:"params"`
}

// Default returns a 65x65 fractal run of 100 steps with the standard
// coefficients.
func Default() Settings {
	return Settings{
		GridSize:    65,
		MaxSteps:    100,
		ReportEvery: 10,
		Preset:      terrain.PresetFractal.String(),
		Diffusion:   true,
		DBPath:      "data/landform.db",
		ExportPath:  "terrain_output.asc",
		APIPort:     8080,
		LogLevel:    "info",
		Params:      engine.DefaultParams(),
	}
}

// Load decodes path over Default and applies environment overrides. If the
// file cannot be read or parsed the defaults (with overrides) are returned
// together with the error, so callers may warn and continue.
func Load(path string) (Settings, error) {
	s := Default()
	var err error
	if path != "" {
		var md toml.MetaData
		md, err = toml.DecodeFile(path, &s)
		if err != nil {
			s = Default()
			err = fmt.Errorf("load settings %s: %w", path, err)
		} else if undecoded := md.Undecoded(); len(undecoded) > 0 {
			slog.Warn("unknown settings keys ignored", "path", path, "keys", undecoded)
		}
	}
	s.applyEnv()
	return s, err
}

func (s *Settings) applyEnv() {
	if v := os.Getenv(EnvDBPath); v != "" {
		s.DBPath = v
	}
	if v := os.Getenv(EnvAdminKey); v != "" {
		s.AdminKey = v
	}
}

// Level maps LogLevel onto a slog level. Unknown names mean Info.
func (s Settings) Level() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ModelConfig builds the engine configuration the settings describe.
func (s Settings) ModelConfig() (engine.Config, error) {
	preset, err := terrain.ParsePreset(s.Preset)
	if err != nil {
		return engine.Config{}, err
	}
	cfg := engine.DefaultConfig()
	cfg.Width, cfg.Height = s.GridSize, s.GridSize
	cfg.Params = s.Params
	cfg.Terrain = terrain.ConfigFor(preset)
	cfg.Terrain.Seed = s.Seed
	cfg.Erosion.Diffusion = s.Diffusion
	return cfg, nil
}
