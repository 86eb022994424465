// Model ties the grid to the physical passes and runs them each step.

package engine

import (
	"fmt"
	"math/rand"

	"github.com/talgya/landform/internal/erosion"
	"github.com/talgya/landform/internal/flow"
	"github.com/talgya/landform/internal/grid"
	"github.com/talgya/landform/internal/relief"
	"github.com/talgya/landform/internal/terrain"
)

// Params are the simulation coefficients. They may be changed at any time
// and take effect on the next Step. Values are not validated.
type Params struct {
	Rain      float64 `json:"rain" toml:"rain"`           // P, rainfall added to W per step
	Erode     float64 `json:"erode_k" toml:"erode_k"`     // K, erosion coefficient
	Deposit   float64 `json:"deposit_d" toml:"deposit_d"` // D, deposition coefficient
	Threshold float64 `json:"threshold_t" toml:"threshold_t"`
	Uplift    float64 `json:"uplift_u" toml:"uplift_u"` // U, added to H per step
}

// DefaultParams returns P=100, K=0.005, D=0.003, T=20, U=10.
func DefaultParams() Params {
	return Params{
		Rain:      100,
		Erode:     0.005,
		Deposit:   0.003,
		Threshold: 20,
		Uplift:    10,
	}
}

// Config describes a model at construction time.
type Config struct {
	Width   int
	Height  int
	Params  Params
	Terrain terrain.GenConfig
	Erosion erosion.Config
}

// DefaultConfig returns a 65x65 fractal terrain with diffusion enabled.
func DefaultConfig() Config {
	return Config{
		Width:   65,
		Height:  65,
		Params:  DefaultParams(),
		Terrain: terrain.DefaultGenConfig(),
		Erosion: erosion.DefaultConfig(),
	}
}

// Model owns one grid, the parameter set and the step counter.
// It does no locking; concurrent callers must serialise access (see Engine).
type Model struct {
	Params Params

	grid    *grid.Grid
	eroder  *erosion.Engine
	terrain terrain.GenConfig
	steps   int
}

// NewModel allocates the grid and initialises terrain. A zero terrain seed
// is replaced by a random one, readable via Seed.
func NewModel(cfg Config) *Model {
	if cfg.Terrain.Seed == 0 {
		cfg.Terrain.Seed = rand.Int63()
	}
	m := &Model{
		Params:  cfg.Params,
		grid:    grid.New(cfg.Width, cfg.Height),
		eroder:  erosion.New(cfg.Erosion),
		terrain: cfg.Terrain,
	}
	terrain.Generate(m.grid, m.terrain)
	return m
}

// Reset regenerates terrain from seed (0 keeps the current seed) and
// zeroes the step counter.
func (m *Model) Reset(seed int64) {
	if seed != 0 {
		m.terrain.Seed = seed
	}
	fresh := grid.New(m.grid.Width, m.grid.Height)
	terrain.Generate(fresh, m.terrain)
	m.grid = fresh
	m.steps = 0
}

// Grid exposes the grid for reading. Callers must not resize its layers.
func (m *Model) Grid() *grid.Grid { return m.grid }

// Steps returns how many steps have run since construction or Reset.
func (m *Model) Steps() int { return m.steps }

// Seed returns the terrain seed.
func (m *Model) Seed() int64 { return m.terrain.Seed }

// Preset returns the terrain preset the model was built with.
func (m *Model) Preset() terrain.Preset { return m.terrain.Preset }

// Diffusion reports whether hillslope diffusion runs in the erosion stage.
func (m *Model) Diffusion() bool { return m.eroder.Config().Diffusion }

// Step advances the model by one iteration, running every stage of
// Pipeline in order.
func (m *Model) Step() {
	for _, s := range Pipeline {
		m.RunStage(s)
	}
	m.steps++
}

// RunStage runs a single stage against the current grid state.
func (m *Model) RunStage(s Stage) {
	g := m.grid
	switch s {
	case StageRainfall:
		rain := m.Params.Rain
		w := g.Width
		g.ParallelRows(func(j int) {
			row := g.W[j*w : (j+1)*w]
			for i := range row {
				row[i] += rain
			}
		})
	case StageFlowDirection:
		flow.Directions(g)
	case StageFlowAccumulation:
		flow.Accumulate(g)
	case StageSlope:
		flow.Slopes(g)
	case StageErosion:
		m.eroder.Apply(g, m.Params.Erode, m.Params.Deposit, m.Params.Threshold)
	case StageUplift:
		erosion.Uplift(g, m.Params.Uplift)
	default:
		panic(fmt.Sprintf("engine: unknown stage %d", int(s)))
	}
}

// Stats computes relief, drainage density and the river exponents for the
// current state.
func (m *Model) Stats() relief.Stats {
	return relief.Calculate(m.grid)
}

// RiverStats returns the Hack and slope-area samples along the main stem.
func (m *Model) RiverStats() relief.RiverProfile {
	return relief.RiverStats(m.grid)
}
