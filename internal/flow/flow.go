// Package flow implements D8 steepest-descent routing: flow direction,
// drainage accumulation and local slope.
package flow

import (
	"cmp"
	"slices"

	"github.com/talgya/landform/internal/grid"
)

// Route runs Directions, Accumulate and Slopes in order.
func Route(g *grid.Grid) {
	Directions(g)
	Accumulate(g)
	Slopes(g)
}

// Directions sets Dir for every cell to the neighbour with the steepest
// positive drop per unit distance. Neighbours are scanned in grid.Offsets
// order and only a strictly steeper candidate replaces the current best,
// so ties resolve to the lowest code. Cells without a lower neighbour get NoFlow.
func Directions(g *grid.Grid) {
	w, h := g.Width, g.Height
	g.ParallelRows(func(j int) {
		for i := 0; i < w; i++ {
			idx := i + j*w
			here := g.H[idx]
			best := grid.NoFlow
			maxSlope := 0.0

			for k := int8(0); k < 8; k++ {
				off := grid.Offsets[k]
				ni, nj := i+off[0], j+off[1]
				if ni < 0 || ni >= w || nj < 0 || nj >= h {
					continue
				}
				drop := here - g.H[ni+nj*w]
				if drop <= 0 {
					continue
				}
				if s := drop / grid.StepLength(k); s > maxSlope {
					maxSlope = s
					best = k
				}
			}
			g.Dir[idx] = best
		}
	})
}

// Accumulate computes Q, the number of cells draining through each cell
// (itself included). Cells are visited once in descending elevation order;
// flow only goes strictly downhill, so every upstream contribution has
// arrived before a cell passes its total on. The sort is stable, keeping
// row-major order among equal elevations.
//
// This pass is order dependent and must stay sequential.
func Accumulate(g *grid.Grid) {
	n := g.Len()
	order := make([]int, n)
	for k := range order {
		order[k] = k
		g.Q[k] = 1.0
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(g.H[b], g.H[a])
	})

	w := g.Width
	for _, idx := range order {
		d := g.Dir[idx]
		if d == grid.NoFlow {
			continue
		}
		off := grid.Offsets[d]
		i, j := idx%w+off[0], idx/w+off[1]
		if !g.InBounds(i, j) {
			continue
		}
		g.Q[i+j*w] += g.Q[idx]
	}
}

// Slopes sets S to the drop along Dir divided by the physical step length
// (grid.CellSize, times √2 on diagonals), floored at zero. Sinks get 0.
func Slopes(g *grid.Grid) {
	w := g.Width
	g.ParallelRows(func(j int) {
		for i := 0; i < w; i++ {
			idx := i + j*w
			d := g.Dir[idx]
			if d == grid.NoFlow {
				g.S[idx] = 0
				continue
			}
			off := grid.Offsets[d]
			drop := g.H[idx] - g.H[(i+off[0])+(j+off[1])*w]
			g.S[idx] = max(0, drop/(grid.StepLength(d)*grid.CellSize))
		}
	})
}

// Sinks returns the indices of every cell with no downhill neighbour.
func Sinks(g *grid.Grid) []int {
	var out []int
	for idx, d := range g.Dir {
		if d == grid.NoFlow {
			out = append(out, idx)
		}
	}
	return out
}
