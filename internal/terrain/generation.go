// Package terrain seeds the initial elevation and hardness fields.
// Each initializer owns its random source, so a seed fully determines the terrain.
package terrain

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/landform/internal/grid"
)

// Initializer fills H and Hardness of a grid and clears W.
type Initializer interface {
	Initialize(g *grid.Grid)
}

// New returns the initializer for cfg.Preset. A zero seed picks a random one.
func New(cfg GenConfig) Initializer {
	if cfg.Seed == 0 {
		cfg.Seed = rand.Int63()
	}
	switch cfg.Preset {
	case PresetBanded:
		return &banded{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
	case PresetSimplex:
		return &simplex{cfg: cfg}
	default:
		return &fractal{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
	}
}

// Generate is shorthand for New(cfg).Initialize(g).
func Generate(g *grid.Grid, cfg GenConfig) {
	New(cfg).Initialize(g)
}

type fractal struct {
	cfg GenConfig
	rng *rand.Rand
}

// Initialize sums sine·cosine octaves with random per-octave phase offsets
// over a Gaussian central mountain. Hardness is uniform.
func (f *fractal) Initialize(g *grid.Grid) {
	cfg := f.cfg
	offX := make([]float64, cfg.Octaves)
	offY := make([]float64, cfg.Octaves)
	for k := 0; k < cfg.Octaves; k++ {
		offX[k] = f.rng.Float64() * 1000
		offY[k] = f.rng.Float64() * 1000
	}

	for j := 0; j < g.Height; j++ {
		for i := 0; i < g.Width; i++ {
			amplitude := cfg.Amplitude
			frequency := cfg.Frequency
			height := 0.0
			for k := 0; k < cfg.Octaves; k++ {
				nx := (float64(i) + offX[k]) * frequency
				ny := (float64(j) + offY[k]) * frequency
				height += math.Sin(nx) * math.Cos(ny) * amplitude
				amplitude *= cfg.Persistence
				frequency *= cfg.Lacunarity
			}

			idx := g.Index(i, j)
			g.H[idx] = math.Max(0, cfg.BaseElevation+mountain(cfg, g, i, j)+height)
			g.W[idx] = 0
			g.Hardness[idx] = 1.0
		}
	}
}

type banded struct {
	cfg GenConfig
	rng *rand.Rand
}

// Initialize builds a sinusoidal dome with bounded uniform jitter and
// stripes of alternating hard and soft rock, BandWidth rows each.
func (b *banded) Initialize(g *grid.Grid) {
	cfg := b.cfg
	bandWidth := cfg.BandWidth
	if bandWidth <= 0 {
		bandWidth = 1
	}
	for j := 0; j < g.Height; j++ {
		hardness := cfg.HardRock
		if (j/bandWidth)%2 == 1 {
			hardness = cfg.SoftRock
		}
		for i := 0; i < g.Width; i++ {
			dome := math.Sin(math.Pi*unit(i, g.Width)) * math.Sin(math.Pi*unit(j, g.Height))
			jitter := (b.rng.Float64()*2 - 1) * cfg.JitterAmplitude

			idx := g.Index(i, j)
			g.H[idx] = math.Max(0, cfg.BaseElevation+cfg.DomeHeight*dome+jitter)
			g.W[idx] = 0
			g.Hardness[idx] = hardness
		}
	}
}

type simplex struct {
	cfg GenConfig
}

// Initialize layers simplex octaves over the central mountain. A second,
// independently seeded noise field maps linearly onto [SoftRock, HardRock].
func (s *simplex) Initialize(g *grid.Grid) {
	cfg := s.cfg
	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	rockNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	for j := 0; j < g.Height; j++ {
		for i := 0; i < g.Width; i++ {
			x, y := float64(i), float64(j)
			elev := octaveNoise(elevNoise, x, y, cfg.Octaves, cfg.Frequency, cfg.Persistence)
			rock := octaveNoise(rockNoise, x, y, 3, cfg.Frequency/2, 0.5)

			idx := g.Index(i, j)
			g.H[idx] = math.Max(0, cfg.BaseElevation+mountain(cfg, g, i, j)+(elev-0.5)*2*cfg.Amplitude)
			g.W[idx] = 0
			g.Hardness[idx] = cfg.SoftRock + rock*(cfg.HardRock-cfg.SoftRock)
		}
	}
}

// mountain is the Gaussian bump centred on the grid.
func mountain(cfg GenConfig, g *grid.Grid, i, j int) float64 {
	dx := float64(i) - float64(g.Width)/2
	dy := float64(j) - float64(g.Height)/2
	sigma := float64(g.Width) * cfg.MountainSpread
	if sigma == 0 {
		return 0
	}
	return cfg.MountainHeight * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
}

// unit maps a cell index onto [0, 1].
func unit(i, n int) float64 {
	if n <= 1 {
		return 0.5
	}
	return float64(i) / float64(n-1)
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	if maxVal == 0 {
		return 0.5
	}
	return total / maxVal
}
