package pricing

import "strings"

// Tables holds the one-way de-vig multipliers. OneWayBands is indexed by
// price band, lowest odds first; the market maps are keyed by canonical
// market key (see CanonicalMarket).
type Tables struct {
	OneWayBands     [10]float64
	Market          map[string]float64
	LongshotMarket  map[string]float64
	ExtremeLongshot map[string]float64
	// ForceOneWay lists markets priced one-way even when the opposite side is
	// quoted (the "No" side of novelty markets is too thin to trust).
	ForceOneWay map[string]bool
}

// CanonicalMarket strips the _alternate suffix so alternate-line markets
// share their base market's multipliers. Lookups are exact key matches, not
// substring scans, so "player_points" cannot accidentally match
// "player_points_rebounds".
func CanonicalMarket(marketKey string) string {
	return strings.TrimSuffix(marketKey, "_alternate")
}

// OneWayMultiplier returns the banded de-vig multiplier for a price level.
// Longer odds imply more bookmaker margin, so the multiplier falls as the
// band moves toward extreme underdog prices.
func (t Tables) OneWayMultiplier(odds int) float64 {
	switch {
	case odds < -200:
		return t.OneWayBands[0]
	case odds < -110:
		return t.OneWayBands[1]
	case odds <= 110:
		return t.OneWayBands[2]
	case odds <= 200:
		return t.OneWayBands[3]
	case odds <= 400:
		return t.OneWayBands[4]
	case odds <= 700:
		return t.OneWayBands[5]
	case odds <= 1000:
		return t.OneWayBands[6]
	case odds <= 2000:
		return t.OneWayBands[7]
	case odds <= 5000:
		return t.OneWayBands[8]
	default:
		return t.OneWayBands[9]
	}
}

// TwoWayDevig removes vig proportionally when the same book quotes both
// sides: fair = p / (p + pOpp). Returns 0 when either probability is
// unusable.
func TwoWayDevig(implied, opposite float64) float64 {
	if implied <= 0 || opposite <= 0 {
		return 0
	}
	return implied / (implied + opposite)
}

// OneWayDevig discounts a single-sided implied probability by a multiplier
// chosen from the market and price level.
//
// Extreme longshots (>= +3000) and longshots (>= +1000) use their dedicated
// market tables, falling back to the price band when the market is unlisted.
// At standard odds the market and band multipliers are both consulted and the
// higher (less aggressive) one wins: mispricing at standard odds tracks the
// price level, not the market.
func (t Tables) OneWayDevig(implied float64, odds int, marketKey string) float64 {
	banded := t.OneWayMultiplier(odds)
	market := CanonicalMarket(marketKey)

	if odds >= 3000 {
		if m, ok := t.ExtremeLongshot[market]; ok {
			return implied * m
		}
		return implied * banded
	}

	if odds >= 1000 {
		if m, ok := t.LongshotMarket[market]; ok {
			return implied * m
		}
		return implied * banded
	}

	if m, ok := t.Market[market]; ok {
		if m > banded {
			return implied * m
		}
		return implied * banded
	}
	return implied * banded
}

// DefaultTables returns the production multiplier tables.
func DefaultTables() Tables {
	return Tables{
		OneWayBands: [10]float64{
			0.88, // < -200 heavy favorite
			0.90, // -200 to -110
			0.92, // -110 to +110
			0.89, // +110 to +200
			0.86, // +200 to +400
			0.84, // +400 to +700
			0.82, // +700 to +1000
			0.74, // +1000 to +2000
			0.72, // +2000 to +5000
			0.72, // > +5000
		},
		Market: map[string]float64{
			"player_double_double":           0.79,
			"player_triple_double":           0.70,
			"player_first_basket":            0.81,
			"player_first_team_basket":       0.82,
			"player_threes":                  0.76,
			"player_rebounds":                0.79,
			"player_points":                  0.76,
			"player_assists":                 0.79,
			"player_steals":                  0.85,
			"player_blocks":                  0.87,
			"player_blocks_steals":           0.88,
			"player_points_rebounds_assists": 0.88,
			"player_rebounds_assists":        0.88,
			"player_points_rebounds":         0.88,
			"player_points_assists":          0.88,
		},
		LongshotMarket: map[string]float64{
			"player_points":        0.76,
			"player_threes":        0.76,
			"player_assists":       0.79,
			"player_rebounds":      0.79,
			"player_steals":        0.85,
			"player_blocks":        0.87,
			"player_double_double": 0.79,
			"player_triple_double": 0.70,
		},
		ExtremeLongshot: map[string]float64{
			"player_points":        0.70,
			"player_threes":        0.70,
			"player_assists":       0.72,
			"player_rebounds":      0.74,
			"player_steals":        0.80,
			"player_blocks":        0.82,
			"player_double_double": 0.74,
			"player_triple_double": 0.65,
		},
		ForceOneWay: map[string]bool{
			"player_first_basket":      true,
			"player_first_team_basket": true,
			"player_double_double":     true,
			"player_triple_double":     true,
		},
	}
}
