package grid

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInitialisesLayers(t *testing.T) {
	g := New(4, 3)
	require.Equal(t, 12, g.Len())
	for k := 0; k < g.Len(); k++ {
		assert.Equal(t, NoFlow, g.Dir[k])
		assert.Equal(t, 1.0, g.Hardness[k])
		assert.Zero(t, g.W[k])
	}

	tiny := New(0, -3)
	assert.Equal(t, 1, tiny.Width)
	assert.Equal(t, 1, tiny.Height)
}

func TestIndexRowMajor(t *testing.T) {
	g := New(5, 4)
	assert.Equal(t, 0, g.Index(0, 0))
	assert.Equal(t, 4, g.Index(4, 0))
	assert.Equal(t, 5, g.Index(0, 1))
	assert.Equal(t, 17, g.Index(2, 3))

	i, j := g.Coords(17)
	assert.Equal(t, 2, i)
	assert.Equal(t, 3, j)
}

func TestDownstream(t *testing.T) {
	g := New(3, 3)
	g.Dir[g.Index(1, 1)] = 1 // NE
	ni, nj, ok := g.Downstream(1, 1)
	require.True(t, ok)
	assert.Equal(t, 2, ni)
	assert.Equal(t, 2, nj)

	_, _, ok = g.Downstream(0, 0)
	assert.False(t, ok, "sink has no downstream cell")

	g.Dir[g.Index(2, 2)] = 0 // E, off the edge
	_, _, ok = g.Downstream(2, 2)
	assert.False(t, ok)
}

func TestStepLength(t *testing.T) {
	for k := int8(0); k < 8; k++ {
		want := 1.0
		if k%2 == 1 {
			want = math.Sqrt2
		}
		assert.Equal(t, want, StepLength(k), "code %d", k)
		o, back := Offsets[k], Offsets[Opposite(k)]
		assert.Equal(t, [2]int{-o[0], -o[1]}, back)
	}
}

func TestLayerCopies(t *testing.T) {
	g := New(2, 2)
	g.H[3] = 7
	g.Dir[1] = 4

	h, err := g.Layer(LayerElevation)
	require.NoError(t, err)
	h[3] = 0
	assert.Equal(t, 7.0, g.H[3], "Layer must return a copy")

	dir, err := g.Layer(LayerDirection)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 4, -1, -1}, dir)

	_, err = g.Layer("sediment")
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	g := New(2, 2)
	g.Q[0] = 3
	c := g.Clone()
	c.Q[0] = 9
	assert.Equal(t, 3.0, g.Q[0])
}

func TestParallelRowsVisitsEveryRowOnce(t *testing.T) {
	g := New(3, 97)
	counts := make([]int32, g.Height)
	g.ParallelRows(func(j int) {
		atomic.AddInt32(&counts[j], 1)
	})
	for j, c := range counts {
		assert.Equal(t, int32(1), c, "row %d", j)
	}

	var visited int32
	g.ParallelRange(1, g.Height-1, func(j int) {
		atomic.AddInt32(&visited, 1)
	})
	assert.Equal(t, int32(g.Height-2), visited)
}
