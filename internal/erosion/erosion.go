// Package erosion applies the per-step mass balance: stream-power erosion
// and deposition, optional hillslope diffusion, and tectonic uplift.
package erosion

import (
	"math"

	"golang.org/x/exp/constraints"

	"github.com/talgya/landform/internal/grid"
)

// Engine runs the mass-balance passes over a grid. It keeps a scratch
// buffer for diffusion deltas between steps.
type Engine struct {
	cfg     Config
	scratch []float64
}

// New creates an Engine. Zero MaxChange or TimeStep fall back to the defaults.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.MaxChange <= 0 {
		cfg.MaxChange = def.MaxChange
	}
	if cfg.TimeStep <= 0 {
		cfg.TimeStep = def.TimeStep
	}
	return &Engine{cfg: cfg}
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Apply runs ErodeAndDeposit followed by Diffuse when diffusion is enabled.
func (e *Engine) Apply(g *grid.Grid, k, d, t float64) {
	e.ErodeAndDeposit(g, k, d, t)
	if e.cfg.Diffusion {
		e.Diffuse(g)
	}
}

// ErodeAndDeposit applies the stream-power rule to every cell using the
// current Q and S. Hardness divides the erodibility k and multiplies the
// threshold t. Above threshold the cell is lowered by
// k/h·(qs-t·h)·dt; below it is raised by d·(t·h-qs)·dt. The change is
// clamped to ±MaxChange and a non-finite result resets the cell to 0.
func (e *Engine) ErodeAndDeposit(g *grid.Grid, k, d, t float64) {
	w := g.Width
	dt, limit := e.cfg.TimeStep, e.cfg.MaxChange
	g.ParallelRows(func(j int) {
		for i := 0; i < w; i++ {
			idx := i + j*w
			qs := g.Q[idx] * g.S[idx]

			hardness := g.Hardness[idx]
			if hardness <= 0 {
				hardness = 1.0
			}
			effK := k / hardness
			effT := t * hardness

			var dh float64
			if qs > effT {
				dh = effK * (qs - effT) * dt
			} else {
				dh = -d * (effT - qs) * dt
			}
			g.H[idx] -= clamp(dh, -limit, limit)

			if math.IsNaN(g.H[idx]) || math.IsInf(g.H[idx], 0) {
				g.H[idx] = 0
			}
		}
	})
}

// Diffuse smooths interior cells with a discrete Laplacian. Deltas are
// computed from the unmodified field into a separate buffer and then
// applied, so the result does not depend on visit order. The border ring
// is left untouched.
func (e *Engine) Diffuse(g *grid.Grid) {
	w, h := g.Width, g.Height
	if w < 3 || h < 3 {
		return
	}
	if len(e.scratch) != g.Len() {
		e.scratch = make([]float64, g.Len())
	}
	delta := e.scratch
	kt := e.cfg.DiffusionRate

	g.ParallelRange(1, h-1, func(j int) {
		for i := 1; i < w-1; i++ {
			idx := i + j*w
			here := g.H[idx]
			lap := (g.H[idx+1] - here) + (g.H[idx-1] - here) +
				(g.H[idx+w] - here) + (g.H[idx-w] - here)
			delta[idx] = kt * lap
		}
	})
	g.ParallelRange(1, h-1, func(j int) {
		for i := 1; i < w-1; i++ {
			g.H[i+j*w] += delta[i+j*w]
		}
	})
}

// Uplift raises every cell, border included, by u.
func Uplift(g *grid.Grid, u float64) {
	w := g.Width
	g.ParallelRows(func(j int) {
		row := g.H[j*w : (j+1)*w]
		for i := range row {
			row[i] += u
		}
	})
}

func clamp[T constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
