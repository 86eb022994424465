package relief

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrUndefinedSlope means the regression denominator is zero: every
	// sample shares the same x, so no line can be fitted.
	ErrUndefinedSlope = errors.New("relief: regression slope undefined (all x values equal)")

	// ErrTooFewSamples means fewer than MinSamples points were available.
	ErrTooFewSamples = errors.New("relief: too few samples for regression")
)

// MinSamples is the smallest sample count Calculate will regress on.
const MinSamples = 3

// Sample is one (x, y) point on a log-log plot.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RegressionSlope returns the ordinary least-squares slope of y on x,
// (nΣxy - ΣxΣy) / (nΣx² - (Σx)²). It returns ErrUndefinedSlope instead of a
// non-finite value when the x values are degenerate.
func RegressionSlope(samples []Sample) (float64, error) {
	n := len(samples)
	if n == 0 {
		return 0, ErrTooFewSamples
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	for k, p := range samples {
		xs[k], ys[k] = p.X, p.Y
	}
	if floats.Max(xs) == floats.Min(xs) {
		return 0, ErrUndefinedSlope
	}

	fn := float64(n)
	sumX, sumY := floats.Sum(xs), floats.Sum(ys)
	sumXY, sumX2 := floats.Dot(xs, ys), floats.Dot(xs, xs)

	den := fn*sumX2 - sumX*sumX
	if den == 0 {
		return 0, ErrUndefinedSlope
	}
	slope := (fn*sumXY - sumX*sumY) / den
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0, ErrUndefinedSlope
	}
	return slope, nil
}
