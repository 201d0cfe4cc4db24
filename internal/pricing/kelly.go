package pricing

// DefaultKellyFraction is the conservative quarter-Kelly convention.
const DefaultKellyFraction = 0.25

// EVPercent returns the expected value of a wager, in percent, given a fair
// win probability and the offered American price.
func EVPercent(fairProb float64, odds int) float64 {
	if fairProb <= 0 || odds == 0 {
		return 0
	}
	return (fairProb*DecimalOdds(odds) - 1) * 100
}

// Kelly returns the recommended stake in units for a given edge (EV as a
// fraction, not percent) and decimal odds, scaled by the configured Kelly
// fraction. Non-positive edges size to zero.
func Kelly(edge, decimalOdds, fraction float64) float64 {
	if decimalOdds <= 1 || edge <= 0 {
		return 0
	}
	full := edge / (decimalOdds - 1)
	return full * fraction * 100
}

// confidenceSteps maps book coverage to a trust multiplier. More independent
// quoting books means more trust in the computed edge.
var confidenceSteps = map[int]float64{
	1: 0.25, 2: 0.35, 3: 0.47, 4: 0.47, 5: 0.53,
	6: 0.56, 7: 0.62, 8: 0.70, 9: 0.72, 10: 0.81,
	11: 0.81, 12: 0.91, 13: 0.96, 14: 1.00, 15: 1.00,
}

// ConfidenceMultiplier dampens a Kelly stake by book coverage. It is
// non-decreasing and saturates at 1.0 for coverage >= 15.
func ConfidenceMultiplier(coverage int) float64 {
	if coverage >= 15 {
		return 1.0
	}
	if m, ok := confidenceSteps[coverage]; ok {
		return m
	}
	return 0.50
}
