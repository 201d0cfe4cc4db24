package scanner

import (
	"strconv"
	"strings"

	"github.com/dmaxfield/propscan/internal/books"
	"github.com/dmaxfield/propscan/internal/domain"
)

// Normalizer converts raw feed state into canonical MarketOpportunity records.
// It is a pure transform: malformed records (unparseable price, untracked
// market, missing player) are dropped silently since any odds feed is mostly
// noise relative to the tracked market set.
type Normalizer struct {
	books books.Table
	state string // US state code used for deep-link rewriting
}

// NewNormalizer creates a Normalizer for the given book table and subscriber
// state.
func NewNormalizer(bt books.Table, state string) *Normalizer {
	return &Normalizer{books: bt, state: strings.ToLower(state)}
}

// Normalize builds the per-cycle market data map from a streaming snapshot.
// Live games are skipped; only pre-game prices are comparable across books.
func (n *Normalizer) Normalize(games map[string]domain.GameInfo, odds map[string]map[string]map[string]domain.RawOutcome) map[string]*domain.MarketOpportunity {
	out := make(map[string]*domain.MarketOpportunity)

	for gameID, byBook := range odds {
		if games[gameID].Live {
			continue
		}
		for feedBook, outcomes := range byBook {
			book := n.books.Abbreviation(feedBook)
			if book == "" {
				continue
			}
			for outcomeID, raw := range outcomes {
				key, outcome, ok := n.normalizeOutcome(gameID, book, outcomeID, raw)
				if !ok {
					continue
				}
				betID := key.BetID()
				opp, exists := out[betID]
				if !exists {
					opp = &domain.MarketOpportunity{
						Key:      key,
						BookOdds: make(map[string]domain.Outcome),
					}
					out[betID] = opp
				}
				opp.BookOdds[book] = outcome
			}
		}
	}
	return out
}

// normalizeOutcome maps one raw feed outcome into its opportunity key and
// quote. The bool result is false for records that should be dropped.
func (n *Normalizer) normalizeOutcome(gameID, book, outcomeID string, raw domain.RawOutcome) (domain.OpportunityKey, domain.Outcome, bool) {
	// The push feed carries display names, the pull API canonical keys.
	marketKey, ok := marketNames[raw.OutcomeName]
	if !ok && TargetMarkets[raw.OutcomeName] {
		marketKey, ok = raw.OutcomeName, true
	}
	if !ok || !TargetMarkets[marketKey] {
		return domain.OpportunityKey{}, domain.Outcome{}, false
	}

	player := strings.TrimSpace(raw.OutcomeTarget)
	if player == "" {
		return domain.OpportunityKey{}, domain.Outcome{}, false
	}

	price, err := parsePrice(raw.Odds)
	if err != nil || price == 0 {
		return domain.OpportunityKey{}, domain.Outcome{}, false
	}

	side, ok := deriveSide(marketKey, outcomeID, raw.OutcomeOverUnder, price)
	if !ok {
		return domain.OpportunityKey{}, domain.Outcome{}, false
	}

	line := strings.TrimSpace(raw.OutcomeLine)
	if line == "" {
		line = "0"
	}

	key := domain.OpportunityKey{
		Player:    player,
		MarketKey: marketKey,
		Line:      line,
		Side:      side,
		GameID:    gameID,
	}
	outcome := domain.Outcome{
		Book:  book,
		Price: price,
		Link:  RewriteLink(raw.Link, n.state),
	}
	return key, outcome, true
}

// parsePrice parses an American price like "+150", "-110", or "150".
func parsePrice(raw string) (int, error) {
	s := strings.TrimSpace(strings.TrimPrefix(raw, "+"))
	return strconv.Atoi(s)
}

// deriveSide resolves the outcome side. Over/Under markets use the feed's
// over_under field; Yes/No novelty markets infer the side from the outcome
// key or price sign; first-basket markets are always the Yes side.
func deriveSide(marketKey, outcomeID, overUnder string, price int) (domain.Side, bool) {
	if side, ok := domain.ParseSide(overUnder); ok {
		return side, true
	}
	if yesNoMarkets[marketKey] {
		if strings.Contains(strings.ToLower(outcomeID), "yes") || price > 0 {
			return domain.SideYes, true
		}
		return domain.SideNo, true
	}
	if alwaysYesMarkets[marketKey] {
		return domain.SideYes, true
	}
	return "", false
}
