// Package engine runs the landscape model: the fixed per-step pipeline in
// Model and the step loop in Engine.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/talgya/landform/internal/relief"
)

// Snapshot is a consistent view of the model taken between steps.
type Snapshot struct {
	Step   int          `json:"step"`
	Params Params       `json:"params"`
	Stats  relief.Stats `json:"stats"`
}

// Engine drives a Model forward and serialises access to it. Step runs
// under the engine's lock, so readers using Snapshot, River or WithModel
// always see the grid between steps.
type Engine struct {
	MaxSteps    int           // Steps to run in Run; 0 = until stopped
	ReportEvery int           // Call OnReport every N steps; 0 = never
	Interval    time.Duration // Minimum wall time per step; 0 = unpaced

	// Callbacks, called outside the lock.
	OnStep   func(step int)
	OnReport func(snap Snapshot)

	mu      sync.Mutex
	model   *Model
	running atomic.Bool
	stopped atomic.Bool
}

// NewEngine wraps a model with default settings.
func NewEngine(m *Model) *Engine {
	return &Engine{
		ReportEvery: 10,
		model:       m,
	}
}

// Run steps the model until MaxSteps have run in this call, Stop is
// called, or ctx is cancelled. Interruption only happens between steps.
// It returns ctx.Err() when cancelled and nil otherwise.
func (e *Engine) Run(ctx context.Context) error {
	e.running.Store(true)
	e.stopped.Store(false)
	defer e.running.Store(false)

	slog.Info("erosion engine started", "step", e.Step(), "max_steps", e.MaxSteps)

	for n := 0; e.MaxSteps <= 0 || n < e.MaxSteps; n++ {
		if e.stopped.Load() {
			break
		}
		if err := ctx.Err(); err != nil {
			slog.Info("erosion engine interrupted", "step", e.Step())
			return err
		}

		start := time.Now()
		step := e.step()

		if e.OnStep != nil {
			e.OnStep(step)
		}
		if e.ReportEvery > 0 && step%e.ReportEvery == 0 && e.OnReport != nil {
			e.OnReport(e.Snapshot())
		}

		elapsed := time.Since(start)
		slog.Debug("step complete", "step", step, "elapsed", elapsed)
		if e.Interval > elapsed {
			select {
			case <-ctx.Done():
			case <-time.After(e.Interval - elapsed):
			}
		}
	}

	slog.Info("erosion engine stopped", "step", e.Step())
	return nil
}

// Stop asks Run to return before its next step.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

// Running reports whether Run is in progress.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// step advances the model by one step under the lock.
func (e *Engine) step() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model.Step()
	return e.model.Steps()
}

// Step returns the model's step counter.
func (e *Engine) Step() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.Steps()
}

// Snapshot computes the current statistics.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Step:   e.model.Steps(),
		Params: e.model.Params,
		Stats:  e.model.Stats(),
	}
}

// River returns the main-stem samples for the current state.
func (e *Engine) River() relief.RiverProfile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.RiverStats()
}

// Params returns the current parameter set.
func (e *Engine) Params() Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.Params
}

// SetParams replaces the parameter set; it applies from the next step.
func (e *Engine) SetParams(p Params) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model.Params = p
}

// WithModel runs fn while holding the lock. fn must not retain the model.
func (e *Engine) WithModel(fn func(m *Model)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.model)
}
