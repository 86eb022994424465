// Package grid holds the per-cell state of a landscape simulation.
// All layers are flat row-major buffers indexed by i + j*Width.
package grid

import "fmt"

// NoFlow marks a cell with no downhill neighbour (a sink).
const NoFlow int8 = -1

// Grid owns every per-cell layer. Layers are created together and never resized.
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	H        []float64 `json:"-"` // Elevation
	W        []float64 `json:"-"` // Cumulative rainfall (diagnostic only)
	Dir      []int8    `json:"-"` // D8 direction code, NoFlow at sinks
	Q        []float64 `json:"-"` // Drainage accumulation in contributing cells
	S        []float64 `json:"-"` // Slope along Dir
	Hardness []float64 `json:"-"` // Rock hardness multiplier, 1.0 = baseline
}

// New allocates a width x height grid. Non-positive sizes are raised to 1.
// Every cell starts as a sink with unit hardness.
func New(width, height int) *Grid {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	n := width * height
	g := &Grid{
		Width:    width,
		Height:   height,
		H:        make([]float64, n),
		W:        make([]float64, n),
		Dir:      make([]int8, n),
		Q:        make([]float64, n),
		S:        make([]float64, n),
		Hardness: make([]float64, n),
	}
	for k := range g.Dir {
		g.Dir[k] = NoFlow
		g.Hardness[k] = 1.0
	}
	return g
}

// Len returns the number of cells.
func (g *Grid) Len() int { return g.Width * g.Height }

// Index returns the flat buffer index for column i, row j.
func (g *Grid) Index(i, j int) int { return i + j*g.Width }

// Coords is the inverse of Index.
func (g *Grid) Coords(idx int) (i, j int) { return idx % g.Width, idx / g.Width }

// InBounds reports whether (i, j) lies inside the grid. There is no wraparound.
func (g *Grid) InBounds(i, j int) bool {
	return i >= 0 && i < g.Width && j >= 0 && j < g.Height
}

// Elevation returns H at (i, j).
func (g *Grid) Elevation(i, j int) float64 { return g.H[g.Index(i, j)] }

// Rainfall returns the cumulative rainfall column at (i, j).
func (g *Grid) Rainfall(i, j int) float64 { return g.W[g.Index(i, j)] }

// Direction returns the D8 code at (i, j).
func (g *Grid) Direction(i, j int) int8 { return g.Dir[g.Index(i, j)] }

// Accumulation returns Q at (i, j).
func (g *Grid) Accumulation(i, j int) float64 { return g.Q[g.Index(i, j)] }

// Slope returns S at (i, j).
func (g *Grid) Slope(i, j int) float64 { return g.S[g.Index(i, j)] }

// HardnessAt returns the hardness multiplier at (i, j).
func (g *Grid) HardnessAt(i, j int) float64 { return g.Hardness[g.Index(i, j)] }

// Downstream returns the cell that (i, j) drains into.
// ok is false for sinks and for codes that would leave the grid.
func (g *Grid) Downstream(i, j int) (ni, nj int, ok bool) {
	d := g.Direction(i, j)
	if d == NoFlow {
		return i, j, false
	}
	off := Offsets[d]
	ni, nj = i+off[0], j+off[1]
	if !g.InBounds(ni, nj) {
		return i, j, false
	}
	return ni, nj, true
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	return &Grid{
		Width:    g.Width,
		Height:   g.Height,
		H:        append([]float64(nil), g.H...),
		W:        append([]float64(nil), g.W...),
		Dir:      append([]int8(nil), g.Dir...),
		Q:        append([]float64(nil), g.Q...),
		S:        append([]float64(nil), g.S...),
		Hardness: append([]float64(nil), g.Hardness...),
	}
}

// Layer names accepted by Layer.
const (
	LayerElevation    = "h"
	LayerRainfall     = "w"
	LayerDirection    = "dir"
	LayerAccumulation = "q"
	LayerSlope        = "s"
	LayerHardness     = "hardness"
)

// LayerNames lists every layer in a stable order.
var LayerNames = []string{
	LayerElevation, LayerRainfall, LayerDirection,
	LayerAccumulation, LayerSlope, LayerHardness,
}

// Layer returns a copy of the named layer as float64 values, for renderers and exporters.
func (g *Grid) Layer(name string) ([]float64, error) {
	switch name {
	case LayerElevation:
		return append([]float64(nil), g.H...), nil
	case LayerRainfall:
		return append([]float64(nil), g.W...), nil
	case LayerAccumulation:
		return append([]float64(nil), g.Q...), nil
	case LayerSlope:
		return append([]float64(nil), g.S...), nil
	case LayerHardness:
		return append([]float64(nil), g.Hardness...), nil
	case LayerDirection:
		out := make([]float64, len(g.Dir))
		for k, d := range g.Dir {
			out[k] = float64(d)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown layer %q", name)
	}
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, cells=%d)", g.Width, g.Height, g.Len())
}
