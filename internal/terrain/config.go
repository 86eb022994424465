package terrain

import "fmt"

// Preset selects a terrain initialisation strategy.
type Preset int

const (
	PresetFractal Preset = iota // Sine·cosine octaves over a central mountain
	PresetBanded                // Sinusoidal dome with striped hardness
	PresetSimplex               // Simplex octaves with noise-driven hardness
)

// GenConfig holds terrain generation parameters. Fields a preset does not
// use are ignored.
type GenConfig struct {
	Preset Preset
	Seed   int64 // Random seed (0 = random)

	// Fractal and simplex octave noise.
	Octaves     int
	Persistence float64
	Lacunarity  float64
	Frequency   float64 // Base frequency in cycles per cell
	Amplitude   float64 // First-octave amplitude

	// Central mountain bias.
	BaseElevation  float64
	MountainHeight float64
	MountainSpread float64 // Gaussian sigma as a fraction of width

	// Banded lithology.
	DomeHeight      float64
	JitterAmplitude float64 // Jitter is uniform in ±JitterAmplitude
	BandWidth       int     // Rows per hardness stripe
	HardRock        float64
	SoftRock        float64
}

// DefaultGenConfig returns the fractal central-mountain terrain.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Preset:         PresetFractal,
		Seed:           0,
		Octaves:        6,
		Persistence:    0.45,
		Lacunarity:     2.0,
		Frequency:      0.015,
		Amplitude:      1000,
		BaseElevation:  500,
		MountainHeight: 2000,
		MountainSpread: 0.4,
		HardRock:       1.0,
		SoftRock:       1.0,
	}
}

// BandedGenConfig returns a sinusoidal dome crossed by alternating hard and
// soft stripes, for studying lithologic control on channel steepness.
func BandedGenConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Preset = PresetBanded
	cfg.DomeHeight = 1500
	cfg.JitterAmplitude = 5
	cfg.BandWidth = 20
	cfg.HardRock = 2.0
	cfg.SoftRock = 0.5
	return cfg
}

// SimplexGenConfig returns simplex-noise terrain with variable hardness.
func SimplexGenConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Preset = PresetSimplex
	cfg.Octaves = 5
	cfg.Persistence = 0.5
	cfg.Frequency = 0.03
	cfg.HardRock = 2.0
	cfg.SoftRock = 0.5
	return cfg
}

// SmallTestConfig returns a deterministic fractal setup for tests.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Seed = 42
	return cfg
}

// ParsePreset maps a preset name to its Preset.
func ParsePreset(name string) (Preset, error) {
	switch name {
	case "fractal", "":
		return PresetFractal, nil
	case "banded":
		return PresetBanded, nil
	case "simplex":
		return PresetSimplex, nil
	default:
		return PresetFractal, fmt.Errorf("unknown terrain preset %q", name)
	}
}

// ConfigFor returns the default configuration of a preset.
func ConfigFor(p Preset) GenConfig {
	switch p {
	case PresetBanded:
		return BandedGenConfig()
	case PresetSimplex:
		return SimplexGenConfig()
	default:
		return DefaultGenConfig()
	}
}

func (p Preset) String() string {
	switch p {
	case PresetFractal:
		return "fractal"
	case PresetBanded:
		return "banded"
	case PresetSimplex:
		return "simplex"
	default:
		return "unknown"
	}
}
