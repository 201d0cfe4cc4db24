package pricing

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestAmericanToProbability(t *testing.T) {
	tests := []struct {
		name string
		odds int
		want float64
	}{
		{"standard juice -110", -110, 0.5238},
		{"underdog +200", 200, 0.3333},
		{"heavy favorite -200", -200, 0.6667},
		{"even +100", 100, 0.5},
		{"longshot +1500", 1500, 0.0625},
		{"zero price is not a quote", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AmericanToProbability(tt.odds)
			if !almostEqual(got, tt.want, 0.0001) {
				t.Errorf("AmericanToProbability(%d) = %.4f, want %.4f", tt.odds, got, tt.want)
			}
		})
	}
}

func TestProbabilityToAmerican(t *testing.T) {
	tests := []struct {
		name string
		prob float64
		want int
	}{
		{"favorite 60%", 0.6, -150},
		{"underdog one third", 1.0 / 3.0, 200},
		{"coin flip", 0.5, 100},
		{"boundary zero", 0, 0},
		{"boundary one", 1, 0},
		{"negative", -0.2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProbabilityToAmerican(tt.prob); got != tt.want {
				t.Errorf("ProbabilityToAmerican(%v) = %d, want %d", tt.prob, got, tt.want)
			}
		})
	}
}

func TestConversionRoundTrip(t *testing.T) {
	for _, odds := range []int{-450, -200, -110, 150, 200, 750, 2500} {
		prob := AmericanToProbability(odds)
		back := ProbabilityToAmerican(prob)
		// Rounding makes the trip inexact; it must stay within one point.
		if math.Abs(float64(back-odds)) > 1 {
			t.Errorf("round trip %d -> %.4f -> %d", odds, prob, back)
		}
	}
}

func TestDecimalOdds(t *testing.T) {
	tests := []struct {
		odds int
		want float64
	}{
		{150, 2.5},
		{-150, 1.6667},
		{100, 2.0},
		{-110, 1.9091},
		{0, 0},
	}
	for _, tt := range tests {
		if got := DecimalOdds(tt.odds); !almostEqual(got, tt.want, 0.0001) {
			t.Errorf("DecimalOdds(%d) = %.4f, want %.4f", tt.odds, got, tt.want)
		}
	}
}
