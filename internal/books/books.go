// Package books holds the static sportsbook reference tables: feed-name to
// abbreviation mapping, fair-value weights, sharp-book flags, and per-state
// legality. Tables are plain immutable values constructed once and injected
// into the components that need them.
package books

import "strings"

// Table bundles every book-level lookup the scanner needs.
type Table struct {
	// Weights maps book abbreviation to its fair-value weight. Books absent
	// from the map get DefaultWeight.
	Weights map[string]float64
	// DefaultWeight is applied to books without an explicit weight.
	DefaultWeight float64
	// Abbrev maps lowercase feed names ("draftkings") to abbreviations ("DK").
	Abbrev map[string]string
	// FullNames maps abbreviations back to display names.
	FullNames map[string]string
	// Sharp marks books excluded from best-price selection and from alerts;
	// they still contribute to fair-value weighting.
	Sharp map[string]bool
	// StateLegal lists alertable book abbreviations per US state code.
	StateLegal map[string][]string
	// Universal books are alertable in every state.
	Universal []string
}

// Weight returns the fair-value weight for a book abbreviation.
func (t Table) Weight(abbrev string) float64 {
	if w, ok := t.Weights[abbrev]; ok {
		return w
	}
	return t.DefaultWeight
}

// Abbreviation resolves a feed book name to its abbreviation. Unknown books
// fall back to the first two letters uppercased so they can still carry a
// default weight.
func (t Table) Abbreviation(feedName string) string {
	if ab, ok := t.Abbrev[strings.ToLower(feedName)]; ok {
		return ab
	}
	up := strings.ToUpper(feedName)
	if len(up) > 2 {
		up = up[:2]
	}
	return up
}

// FullName returns the display name for a book abbreviation.
func (t Table) FullName(abbrev string) string {
	if n, ok := t.FullNames[abbrev]; ok {
		return n
	}
	return abbrev
}

// IsSharp reports whether a book is reference-only.
func (t Table) IsSharp(abbrev string) bool {
	return t.Sharp[abbrev]
}

// LegalIn reports whether a book may be alerted on for the given state.
// Unknown states fall back to the New York list.
func (t Table) LegalIn(abbrev, state string) bool {
	for _, b := range t.Universal {
		if b == abbrev {
			return true
		}
	}
	legal, ok := t.StateLegal[strings.ToLower(state)]
	if !ok {
		legal = t.StateLegal["ny"]
	}
	for _, b := range legal {
		if b == abbrev {
			return true
		}
	}
	return false
}

// Default returns the production book table.
func Default() Table {
	return Table{
		Weights: map[string]float64{
			"DK": 0.2027, "FD": 0.1599, "MG": 0.1580, "PN": 0.1328,
			"ES": 0.0883, "RK": 0.0828, "CZ": 0.0742, "BO": 0.0412,
			"BB": 0.0096, "BR": 0.0096, "FL": 0.0096, "FN": 0.0096,
			"RB": 0.0048, "BP": 0.0048, "TS": 0.0048, "HR": 0.0096,
			"CI": 0, "B3": 0, "KA": 0, "NV": 0, "PX": 0, "BY": 0, "FDYW": 0,
		},
		DefaultWeight: 0.01,
		Abbrev: map[string]string{
			"draftkings":        "DK",
			"fanduel":           "FD",
			"betmgm":            "MG",
			"caesars":           "CZ",
			"espnbet":           "ES",
			"betrivers":         "BR",
			"fanatics":          "FN",
			"betparx":           "BP",
			"fliff":             "FL",
			"thescore":          "TS",
			"pinnacle":          "PN",
			"ps3838":            "PN", // Pinnacle's Asian arm
			"circa":             "CI",
			"bet365":            "B3",
			"ballybet":          "BB",
			"bally-bet":         "BB",
			"hardrock":          "RK",
			"hard-rock":         "RK",
			"prophetx":          "PX",
			"bovada":            "BV",
			"betonline":         "BO",
			"pokerstars":        "PS",
			"bwin":              "BW",
			"betfair":           "BF",
			"sportsinteraction": "SI",
			"fanduel-yourway":   "FDYW",
		},
		FullNames: map[string]string{
			"DK": "DraftKings", "FD": "FanDuel", "MG": "BetMGM",
			"CZ": "Caesars", "ES": "ESPN Bet", "FN": "Fanatics",
			"BR": "BetRivers", "RK": "Hard Rock", "BB": "Bally Bet",
			"BP": "BetParx", "CI": "Circa", "RB": "Rebet",
			"BO": "BetOnline", "FL": "Fliff", "PN": "Pinnacle", "BV": "Bovada",
		},
		Sharp: map[string]bool{"PN": true, "BV": true, "BO": true},
		StateLegal: map[string][]string{
			"az": {"DK", "FD", "MG", "CZ", "ES", "FN", "BR", "RK", "BB"},
			"co": {"DK", "FD", "MG", "CZ", "ES", "FN", "BR", "BB", "CI"},
			"ct": {"DK", "FD", "FN"},
			"dc": {"DK", "FD", "MG", "CZ"},
			"il": {"DK", "FD", "MG", "CZ", "ES", "FN", "BR", "BB"},
			"in": {"DK", "FD", "MG", "CZ", "ES", "FN", "BR", "RK", "CI"},
			"ia": {"DK", "FD", "MG", "CZ", "ES", "FN", "BR", "RK", "BB"},
			"ks": {"DK", "FD", "MG", "CZ", "ES", "BR", "RK", "BB", "CI"},
			"ky": {"DK", "FD", "MG", "CZ", "ES", "FN"},
			"la": {"DK", "FD", "MG", "CZ", "ES", "FN", "BR"},
			"ma": {"DK", "FD", "MG", "CZ", "ES", "FN"},
			"md": {"DK", "FD", "MG", "CZ", "ES", "FN", "BR", "BB", "BP"},
			"mi": {"DK", "FD", "MG", "CZ", "ES", "FN", "BR", "BB", "RK"},
			"mo": {"DK", "FD", "MG", "CZ", "FN", "CI"},
			"nc": {"DK", "FD", "MG", "CZ", "ES", "FN", "BR", "BB"},
			"nh": {"DK"},
			"nj": {"DK", "FD", "MG", "CZ", "ES", "FN", "BR", "RK", "BP"},
			"ny": {"DK", "FD", "MG", "CZ", "ES", "FN", "BR"},
			"oh": {"DK", "FD", "MG", "CZ", "ES", "FN", "BR", "RK", "BB"},
			"or": {"DK"},
			"pa": {"DK", "FD", "MG", "CZ", "ES", "FN", "BR", "BP"},
			"tn": {"DK", "FD", "MG", "CZ", "ES", "FN", "RK"},
			"va": {"DK", "FD", "MG", "CZ", "ES", "FN", "BR", "RK", "BB"},
			"vt": {"DK", "FD", "FN"},
			"wv": {"DK", "FD", "MG", "CZ", "FN", "BR"},
			"wy": {"DK", "FD", "MG", "CZ"},
		},
		Universal: []string{"FL"},
	}
}
