package scanner

import "github.com/dmaxfield/propscan/internal/domain"

// LinkOpposites resolves each opportunity's opposite-side quotes in place.
// For every outcome it computes the key of the logical opposite (Over<->Under,
// Yes<->No) and, when that opposite also has quotes in the same cycle, wires
// its book map into OppositeOdds so the fair-value engine can de-vig two-way.
func LinkOpposites(data map[string]*domain.MarketOpportunity) {
	for _, opp := range data {
		oppKey := opp.Key
		oppKey.Side = opp.Key.Side.Opposite()
		if !oppKey.Side.Valid() {
			continue
		}
		if other, ok := data[oppKey.BetID()]; ok && other != nil {
			opp.OppositeOdds = other.BookOdds
		}
	}
}
