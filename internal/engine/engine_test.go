package engine

import (
	"context"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/landform/internal/erosion"
	"github.com/talgya/landform/internal/grid"
	"github.com/talgya/landform/internal/terrain"
)

func smallConfig(size int, seed int64) Config {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = size, size
	cfg.Terrain = terrain.SmallTestConfig()
	cfg.Terrain.Seed = seed
	return cfg
}

func TestStepRunsPipelineAndCounts(t *testing.T) {
	m := NewModel(smallConfig(17, 3))
	require.Zero(t, m.Steps())

	m.Step()
	m.Step()
	assert.Equal(t, 2, m.Steps())
	for _, w := range m.Grid().W {
		require.Equal(t, 200.0, w, "rainfall accumulates P each step")
	}
	for _, q := range m.Grid().Q {
		require.GreaterOrEqual(t, q, 1.0)
	}
}

func TestStagesInIsolationMatchStep(t *testing.T) {
	a := NewModel(smallConfig(21, 11))
	b := NewModel(smallConfig(21, 11))

	a.Step()
	for _, s := range Pipeline {
		b.RunStage(s)
	}
	assert.True(t, slices.Equal(a.Grid().H, b.Grid().H))
	assert.True(t, slices.Equal(a.Grid().Q, b.Grid().Q))
	assert.Equal(t, 0, b.Steps(), "RunStage does not advance the counter")
}

func TestPipelineOrder(t *testing.T) {
	names := make([]string, 0, len(Pipeline))
	for _, s := range Pipeline {
		names = append(names, s.String())
	}
	assert.Equal(t, []string{
		"rainfall", "flow_direction", "flow_accumulation", "slope", "erosion", "uplift",
	}, names)
}

func TestPureUplift(t *testing.T) {
	const c, n = 10.0, 25
	cfg := smallConfig(15, 5)
	cfg.Erosion = erosion.StreamPowerOnly()
	cfg.Params = Params{Rain: 0, Erode: 0, Deposit: 0, Threshold: 20, Uplift: c}
	m := NewModel(cfg)

	want := append([]float64(nil), m.Grid().H...)
	for k := range want {
		for s := 0; s < n; s++ {
			want[k] += c
		}
	}
	for s := 0; s < n; s++ {
		m.Step()
	}
	assert.Equal(t, want, m.Grid().H)
	for _, w := range m.Grid().W {
		require.Zero(t, w)
	}
}

func TestCentralPeakRunIsBitIdentical(t *testing.T) {
	run := func() []float64 {
		cfg := smallConfig(9, 2024)
		cfg.Params = Params{Rain: 100, Erode: 0.005, Deposit: 0.003, Threshold: 20, Uplift: 10}
		m := NewModel(cfg)
		for s := 0; s < 50; s++ {
			m.Step()
		}
		return m.Grid().H
	}

	first, second := run(), run()
	require.Len(t, first, 81)
	for k := range first {
		require.Equal(t, math.Float64bits(first[k]), math.Float64bits(second[k]), "cell %d", k)
	}
}

func TestParamsApplyOnNextStep(t *testing.T) {
	cfg := smallConfig(9, 1)
	cfg.Params.Rain = 1
	m := NewModel(cfg)
	m.Step()
	m.Params.Rain = 5
	assert.Equal(t, 1.0, m.Grid().W[0], "changing params does not touch the grid")
	m.Step()
	assert.Equal(t, 6.0, m.Grid().W[0])
}

func TestResetRestoresTerrain(t *testing.T) {
	m := NewModel(smallConfig(13, 77))
	initial := append([]float64(nil), m.Grid().H...)
	for s := 0; s < 5; s++ {
		m.Step()
	}
	m.Reset(0)
	assert.Zero(t, m.Steps())
	assert.Equal(t, initial, m.Grid().H)
	assert.Equal(t, int64(77), m.Seed())
}

func TestNewModelPicksSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 5, 5
	cfg.Terrain.Seed = 0
	m := NewModel(cfg)
	assert.NotZero(t, m.Seed())
}

func TestEngineRunsBudgetAndReports(t *testing.T) {
	e := NewEngine(NewModel(smallConfig(11, 9)))
	e.MaxSteps = 25
	e.ReportEvery = 10

	var steps []int
	var reports []Snapshot
	e.OnStep = func(step int) { steps = append(steps, step) }
	e.OnReport = func(s Snapshot) { reports = append(reports, s) }

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 25, e.Step())
	assert.Len(t, steps, 25)
	require.Len(t, reports, 2)
	assert.Equal(t, 10, reports[0].Step)
	assert.Equal(t, 20, reports[1].Step)
	assert.False(t, e.Running())
}

func TestEngineStopsBetweenSteps(t *testing.T) {
	e := NewEngine(NewModel(smallConfig(11, 9)))
	e.OnStep = func(step int) {
		if step == 3 {
			e.Stop()
		}
	}
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 3, e.Step())
}

func TestEngineHonoursContext(t *testing.T) {
	e := NewEngine(NewModel(smallConfig(11, 9)))
	e.Interval = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	e.OnStep = func(step int) {
		if step == 4 {
			cancel()
		}
	}
	err := e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, e.Step())
}

func TestEngineSetParams(t *testing.T) {
	e := NewEngine(NewModel(smallConfig(7, 2)))
	p := DefaultParams()
	p.Uplift = -3
	e.SetParams(p)
	assert.Equal(t, p, e.Params())

	var seen grid.Grid
	e.WithModel(func(m *Model) { seen = *m.Grid() })
	assert.Equal(t, 7, seen.Width)
}
