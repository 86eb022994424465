// Package relief derives geomorphic diagnostics from a routed grid:
// relief, drainage density, and the Hack's-law and concavity exponents
// measured along the dominant drainage path.
package relief

import (
	"math"

	"github.com/talgya/landform/internal/grid"
)

// ChannelThreshold is the drainage area (in cells) above which a cell
// counts as channel for drainage density.
const ChannelThreshold = 100.0

// minSlope filters near-flat cells out of the slope-area regression.
const minSlope = 0.0001

// Stats holds the scalar diagnostics for one grid state.
type Stats struct {
	MaxRelief       float64 `json:"max_relief"`
	MeanElevation   float64 `json:"mean_elevation"`
	DrainageDensity float64 `json:"drainage_density"`
	HackSlope       float64 `json:"hack_slope"`
	Concavity       float64 `json:"concavity"`

	// HackErr and ConcavityErr are ErrTooFewSamples or ErrUndefinedSlope
	// when the matching exponent could not be fitted; the value is then 0.
	HackErr      error `json:"-"`
	ConcavityErr error `json:"-"`
}

// Cell is a column/row grid coordinate.
type Cell struct {
	I int `json:"i"`
	J int `json:"j"`
}

// RiverProfile holds the samples taken along the traced main stem.
type RiverProfile struct {
	Path      []Cell   `json:"path"`       // Outlet first, source last
	Hack      []Sample `json:"hack"`       // (log10 area, log10 length)
	SlopeArea []Sample `json:"slope_area"` // (log10 area, log10 slope)
}

// Calculate scans the grid for elevation and channel statistics and fits
// the Hack and concavity exponents along the main stem.
func Calculate(g *grid.Grid) Stats {
	minH, maxH, sumH := math.Inf(1), math.Inf(-1), 0.0
	channels := 0
	for idx, h := range g.H {
		minH = math.Min(minH, h)
		maxH = math.Max(maxH, h)
		sumH += h
		if g.Q[idx] > ChannelThreshold {
			channels++
		}
	}

	n := float64(g.Len())
	st := Stats{
		MaxRelief:       maxH - minH,
		MeanElevation:   sumH / n,
		DrainageDensity: float64(channels) / n,
	}

	profile := RiverStats(g)
	st.HackSlope, st.HackErr = fit(profile.Hack)
	if theta, err := fit(profile.SlopeArea); err != nil {
		st.ConcavityErr = err
	} else {
		st.Concavity = -theta
	}
	return st
}

func fit(samples []Sample) (float64, error) {
	if len(samples) < MinSamples {
		return 0, ErrTooFewSamples
	}
	return RegressionSlope(samples)
}

// FindOutlet returns the cell with the largest drainage area. Ties go to
// the first cell in row-major order.
func FindOutlet(g *grid.Grid) Cell {
	best := 0
	for idx := 1; idx < len(g.Q); idx++ {
		if g.Q[idx] > g.Q[best] {
			best = idx
		}
	}
	i, j := g.Coords(best)
	return Cell{I: i, J: j}
}

// TraceLongestPath walks upstream from outlet, always stepping to the
// inflowing neighbour with the largest Q (first in D8 order on ties),
// until it reaches a cell nothing drains into. The path holds at most
// Width·Height cells, which also bounds walks around a direction cycle.
func TraceLongestPath(g *grid.Grid, outlet Cell) []Cell {
	limit := g.Len()
	path := make([]Cell, 0, 64)
	cur := outlet

	for len(path) < limit {
		path = append(path, cur)

		next, found := Cell{}, false
		bestQ := math.Inf(-1)
		for _, off := range grid.Offsets {
			ni, nj := cur.I+off[0], cur.J+off[1]
			if !g.InBounds(ni, nj) {
				continue
			}
			ti, tj, ok := g.Downstream(ni, nj)
			if !ok || ti != cur.I || tj != cur.J {
				continue
			}
			if q := g.Accumulation(ni, nj); q > bestQ {
				bestQ = q
				next, found = Cell{I: ni, J: nj}, true
			}
		}
		if !found {
			break
		}
		cur = next
	}
	return path
}

// RiverStats traces the main stem from the outlet and samples it from the
// source down. Length starts at 1 at the source and grows by 1 per
// cardinal step and √2 per diagonal step.
func RiverStats(g *grid.Grid) RiverProfile {
	path := TraceLongestPath(g, FindOutlet(g))
	profile := RiverProfile{Path: path}

	length := 0.0
	for k := len(path) - 1; k >= 0; k-- {
		c := path[k]
		if k == len(path)-1 {
			length = 1.0
		} else {
			prev := path[k+1]
			if c.I != prev.I && c.J != prev.J {
				length += math.Sqrt2
			} else {
				length += 1.0
			}
		}

		area := g.Accumulation(c.I, c.J)
		if area <= 0 {
			continue
		}
		logA := math.Log10(area)
		if length > 0 {
			profile.Hack = append(profile.Hack, Sample{X: logA, Y: math.Log10(length)})
		}
		if s := g.Slope(c.I, c.J); s > minSlope {
			profile.SlopeArea = append(profile.SlopeArea, Sample{X: logA, Y: math.Log10(s)})
		}
	}
	return profile
}
