package relief

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/landform/internal/flow"
	"github.com/talgya/landform/internal/grid"
)

func TestRegressionSlopeExact(t *testing.T) {
	slope, err := RegressionSlope([]Sample{{0, 0}, {1, 2}, {2, 4}})
	require.NoError(t, err)
	assert.Equal(t, 2.0, slope)
}

func TestRegressionSlopeDegenerate(t *testing.T) {
	x := math.Log10(3)
	_, err := RegressionSlope([]Sample{{x, 1}, {x, 2}, {x, 5}})
	assert.ErrorIs(t, err, ErrUndefinedSlope)

	_, err = RegressionSlope(nil)
	assert.ErrorIs(t, err, ErrTooFewSamples)
}

// rampGrid slopes down towards (0,0) so every cell drains to one outlet.
func rampGrid(w, h int) *grid.Grid {
	g := grid.New(w, h)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			g.H[g.Index(i, j)] = float64(i*i+j*j) + float64(i)*0.1
		}
	}
	flow.Route(g)
	return g
}

func TestCalculateScalars(t *testing.T) {
	g := grid.New(2, 2)
	copy(g.H, []float64{1, 2, 3, 6})
	copy(g.Q, []float64{150, 1, 1, 101})

	st := Calculate(g)
	assert.Equal(t, 5.0, st.MaxRelief)
	assert.Equal(t, 3.0, st.MeanElevation)
	assert.Equal(t, 0.5, st.DrainageDensity)
	assert.ErrorIs(t, st.HackErr, ErrTooFewSamples)
	assert.Zero(t, st.HackSlope)
	assert.ErrorIs(t, st.ConcavityErr, ErrTooFewSamples)
}

func TestFindOutletFirstMaximum(t *testing.T) {
	g := grid.New(3, 2)
	copy(g.Q, []float64{1, 4, 2, 1, 4, 1})
	assert.Equal(t, Cell{I: 1, J: 0}, FindOutlet(g))
}

func TestTraceLongestPathOnRamp(t *testing.T) {
	g := rampGrid(12, 12)
	outlet := FindOutlet(g)
	assert.Equal(t, Cell{0, 0}, outlet)

	path := TraceLongestPath(g, outlet)
	require.NotEmpty(t, path)
	assert.Equal(t, outlet, path[0])
	for k := 1; k < len(path); k++ {
		ti, tj, ok := g.Downstream(path[k].I, path[k].J)
		require.True(t, ok)
		assert.Equal(t, path[k-1], Cell{ti, tj}, "step %d must drain into its predecessor", k)
		assert.LessOrEqual(t, g.Accumulation(path[k].I, path[k].J), g.Accumulation(path[k-1].I, path[k-1].J))
	}
}

func TestTraceLongestPathCycleCap(t *testing.T) {
	g := grid.New(2, 2)
	g.Dir[g.Index(0, 0)] = 0 // E  -> (1,0)
	g.Dir[g.Index(1, 0)] = 2 // N  -> (1,1)
	g.Dir[g.Index(1, 1)] = 4 // W  -> (0,1)
	g.Dir[g.Index(0, 1)] = 6 // S  -> (0,0)
	for k := range g.Q {
		g.Q[k] = 1
	}

	path := TraceLongestPath(g, Cell{0, 0})
	assert.Len(t, path, g.Len())

	big := grid.New(7, 5)
	big.Dir[big.Index(0, 0)] = 0 // E -> (1,0)
	big.Dir[big.Index(1, 0)] = 4 // W -> (0,0)
	path = TraceLongestPath(big, Cell{0, 0})
	assert.Len(t, path, big.Len())
}

func TestRiverStatsSamples(t *testing.T) {
	g := grid.New(4, 1)
	copy(g.H, []float64{0, 30, 60, 90})
	flow.Route(g)

	profile := RiverStats(g)
	require.Len(t, profile.Path, 4)
	require.Len(t, profile.Hack, 4)

	// Source is (3,0): area 1, length 1.
	assert.Equal(t, Sample{X: 0, Y: 0}, profile.Hack[0])
	// Outlet: area 4, length 4.
	assert.InDelta(t, math.Log10(4), profile.Hack[3].X, 1e-12)
	assert.InDelta(t, math.Log10(4), profile.Hack[3].Y, 1e-12)

	// The outlet is a sink with S = 0 and is skipped.
	require.Len(t, profile.SlopeArea, 3)
	for _, s := range profile.SlopeArea {
		assert.Equal(t, 0.0, s.Y, "every slope is 30/30 = 1")
	}
}

func TestRiverStatsDiagonalLength(t *testing.T) {
	g := grid.New(3, 3)
	for k := range g.Q {
		g.Q[k] = 1
	}
	g.Dir[g.Index(2, 2)] = 5 // SW
	g.Dir[g.Index(1, 1)] = 5
	g.Q[g.Index(1, 1)] = 2
	g.Q[g.Index(0, 0)] = 3

	profile := RiverStats(g)
	require.Equal(t, []Cell{{0, 0}, {1, 1}, {2, 2}}, profile.Path)
	require.Len(t, profile.Hack, 3)
	assert.InDelta(t, math.Log10(1+math.Sqrt2), profile.Hack[1].Y, 1e-12)
	assert.InDelta(t, math.Log10(1+2*math.Sqrt2), profile.Hack[2].Y, 1e-12)
	assert.Empty(t, profile.SlopeArea)
}

func TestCalculateFitsRampExponents(t *testing.T) {
	g := rampGrid(30, 30)
	st := Calculate(g)
	require.NoError(t, st.HackErr)
	assert.False(t, math.IsNaN(st.HackSlope))
	assert.Greater(t, st.HackSlope, 0.0, "length grows with area along the stem")
}
