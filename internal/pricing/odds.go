// Package pricing implements the fair-value math: American odds conversions,
// two-way proportional and one-way multiplier de-vig, the weighted hybrid
// fair-probability engine, and EV / fractional-Kelly stake sizing.
package pricing

import "math"

// AmericanToProbability converts American odds to implied probability.
// A zero price never represents a real quote and returns 0 so callers can
// filter it before any division.
func AmericanToProbability(odds int) float64 {
	if odds == 0 {
		return 0
	}
	if odds > 0 {
		return 100 / (float64(odds) + 100)
	}
	a := math.Abs(float64(odds))
	return a / (a + 100)
}

// ProbabilityToAmerican converts a probability to American odds. Boundary
// inputs (<=0 or >=1) yield 0.
func ProbabilityToAmerican(prob float64) int {
	if prob <= 0 || prob >= 1 {
		return 0
	}
	if prob > 0.5 {
		return int(math.Round(-100 * prob / (1 - prob)))
	}
	return int(math.Round(100 * (1 - prob) / prob))
}

// DecimalOdds converts American odds to decimal odds. Returns 0 for a zero
// price.
func DecimalOdds(odds int) float64 {
	if odds == 0 {
		return 0
	}
	if odds > 0 {
		return float64(odds)/100 + 1
	}
	return 100/math.Abs(float64(odds)) + 1
}
