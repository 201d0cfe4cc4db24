// Package scanner turns raw feed state into evaluated betting opportunities:
// it normalizes provider payloads into canonical outcome records, links
// two-sided markets, runs the fair-value engine, and classifies qualifying
// opportunities into alert tiers.
package scanner

import "strings"

// marketNames maps feed display names to canonical market keys.
var marketNames = map[string]string{
	"Points":                      "player_points_alternate",
	"Rebounds":                    "player_rebounds_alternate",
	"Assists":                     "player_assists_alternate",
	"Threes":                      "player_threes_alternate",
	"Blocks":                      "player_blocks_alternate",
	"Steals":                      "player_steals_alternate",
	"Double-Doubles":              "player_double_double",
	"Triple-Doubles":              "player_triple_double",
	"First Basket":                "player_first_basket",
	"First Team Basket":           "player_first_team_basket",
	"First Field Goal":            "player_first_basket",
	"Points + Rebounds":           "player_points_rebounds",
	"Points + Assists":            "player_points_assists",
	"Points + Assists + Rebounds": "player_points_rebounds_assists",
	"Assists + Rebounds":          "player_rebounds_assists",
	"Steals + Blocks":             "player_blocks_steals",
}

// TargetMarkets is the set of market keys the scanner tracks. Everything else
// in the feed is dropped at normalization.
var TargetMarkets = map[string]bool{
	"player_double_double":     true,
	"player_triple_double":     true,
	"player_first_basket":      true,
	"player_first_team_basket": true,
	"player_points_alternate":  true,
	"player_rebounds_alternate": true,
	"player_assists_alternate": true,
	"player_blocks_alternate":  true,
	"player_steals_alternate":  true,
	"player_threes_alternate":  true,
}

// yesNoMarkets derive a Yes/No side instead of Over/Under.
var yesNoMarkets = map[string]bool{
	"player_double_double": true,
	"player_triple_double": true,
}

// alwaysYesMarkets have only one meaningful side.
var alwaysYesMarkets = map[string]bool{
	"player_first_basket":      true,
	"player_first_team_basket": true,
}

// displayNames overrides the generated label for combo and novelty markets.
var displayNames = map[string]string{
	"player_points_rebounds_assists": "Points + Rebounds + Assists",
	"player_points_rebounds":         "Points + Rebounds",
	"player_points_assists":          "Points + Assists",
	"player_rebounds_assists":        "Rebounds + Assists",
	"player_blocks_steals":           "Blocks + Steals",
	"player_double_double":           "Double-Double",
	"player_triple_double":           "Triple-Double",
}

// MarketDisplayName converts a canonical market key into a human-readable
// market label for alert messages.
func MarketDisplayName(marketKey string) string {
	key := strings.TrimSuffix(marketKey, "_alternate")
	if name, ok := displayNames[key]; ok {
		return name
	}
	words := strings.Split(strings.TrimPrefix(key, "player_"), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
