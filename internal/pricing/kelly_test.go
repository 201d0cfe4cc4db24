package pricing

import "testing"

func TestEVPercent(t *testing.T) {
	tests := []struct {
		name string
		prob float64
		odds int
		want float64
	}{
		{"fair coin at +100 is break even", 0.5, 100, 0},
		{"edge at +120", 0.5, 120, 10},
		{"negative edge", 0.4, 100, -20},
		{"zero price", 0.5, 0, 0},
		{"zero prob", 0, 150, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EVPercent(tt.prob, tt.odds); !almostEqual(got, tt.want, 0.0001) {
				t.Errorf("EVPercent(%v, %d) = %.4f, want %.4f", tt.prob, tt.odds, got, tt.want)
			}
		})
	}
}

func TestKellySign(t *testing.T) {
	// Positive EV always sizes a positive stake; zero or negative EV sizes
	// zero, for any valid odds.
	for _, odds := range []int{-200, -110, 120, 500, 2500} {
		dec := DecimalOdds(odds)
		if got := Kelly(0.08, dec, DefaultKellyFraction); got <= 0 {
			t.Errorf("Kelly(0.08, %v) = %v, want > 0", dec, got)
		}
		if got := Kelly(0, dec, DefaultKellyFraction); got != 0 {
			t.Errorf("Kelly(0, %v) = %v, want 0", dec, got)
		}
		if got := Kelly(-0.05, dec, DefaultKellyFraction); got != 0 {
			t.Errorf("Kelly(-0.05, %v) = %v, want 0", dec, got)
		}
	}
}

func TestKellyQuarterScaling(t *testing.T) {
	// 10% edge at +100: full Kelly is 10% of bankroll, quarter Kelly 2.5
	// units.
	got := Kelly(0.10, 2.0, 0.25)
	if !almostEqual(got, 2.5, 1e-9) {
		t.Errorf("Kelly(0.10, 2.0, 0.25) = %v, want 2.5", got)
	}
}

func TestConfidenceMultiplier(t *testing.T) {
	prev := 0.0
	for cov := 1; cov <= 20; cov++ {
		m := ConfidenceMultiplier(cov)
		if m < prev {
			t.Errorf("coverage %d: multiplier %v decreased from %v", cov, m, prev)
		}
		prev = m
	}
	if got := ConfidenceMultiplier(1); got != 0.25 {
		t.Errorf("coverage 1 = %v, want 0.25", got)
	}
	if got := ConfidenceMultiplier(15); got != 1.0 {
		t.Errorf("coverage 15 = %v, want 1.0", got)
	}
	if got := ConfidenceMultiplier(40); got != 1.0 {
		t.Errorf("coverage 40 = %v, want 1.0", got)
	}
}
