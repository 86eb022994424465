package grid

import "math"

// CellSize is the horizontal spacing between cell centres, in elevation units.
// Slopes and any slope/area comparison use this same spacing.
const CellSize = 30.0

// Offsets lists the eight D8 neighbours in direction-code order:
// E, NE, N, NW, W, SW, S, SE. Ties in steepest descent go to the lower code,
// so this order is part of the model's output.
var Offsets = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// IsDiagonal reports whether direction code k is a diagonal move.
func IsDiagonal(k int8) bool {
	o := Offsets[k]
	return o[0] != 0 && o[1] != 0
}

// StepLength is the distance in cells for direction code k: 1 or √2.
func StepLength(k int8) float64 {
	if IsDiagonal(k) {
		return math.Sqrt2
	}
	return 1.0
}

// Opposite returns the code pointing back along k.
func Opposite(k int8) int8 { return (k + 4) % 8 }
