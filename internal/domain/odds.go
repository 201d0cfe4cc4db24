// Package domain defines the core types shared across the scanner: normalized
// outcomes, market opportunities, fair-value results, alert records, and the
// interfaces implemented by the storage and cache layers.
package domain

import (
	"fmt"
	"strings"
)

// Side identifies which half of a two-sided market an outcome belongs to.
type Side string

const (
	SideOver  Side = "Over"
	SideUnder Side = "Under"
	SideYes   Side = "Yes"
	SideNo    Side = "No"
)

// Opposite returns the logical opposite side (Over<->Under, Yes<->No).
// The zero value is returned for an unknown side.
func (s Side) Opposite() Side {
	switch s {
	case SideOver:
		return SideUnder
	case SideUnder:
		return SideOver
	case SideYes:
		return SideNo
	case SideNo:
		return SideYes
	default:
		return ""
	}
}

// Valid reports whether s is one of the four recognized sides.
func (s Side) Valid() bool {
	return s.Opposite() != ""
}

// ParseSide maps feed spellings ("Over", "O", "U", ...) to a Side.
func ParseSide(raw string) (Side, bool) {
	switch strings.TrimSpace(raw) {
	case "Over", "O":
		return SideOver, true
	case "Under", "U":
		return SideUnder, true
	case "Yes":
		return SideYes, true
	case "No":
		return SideNo, true
	default:
		return "", false
	}
}

// CalcType records which de-vig method produced a fair probability.
type CalcType string

const (
	CalcHybrid CalcType = "hybrid"
	CalcTwoWay CalcType = "2-way"
	CalcOneWay CalcType = "1-way"
	CalcNone   CalcType = "none"
)

// Outcome is a single book's quote for one side of a market. Price is in
// American odds and is never 0 for a valid quote.
type Outcome struct {
	Book  string // two-letter book abbreviation, e.g. "DK"
	Price int
	Link  string
}

// OpportunityKey is the identity of a market opportunity.
type OpportunityKey struct {
	Player    string
	MarketKey string
	Line      string // "" or "0" for markets without a line
	Side      Side
	GameID    string
}

// BetID returns the full identity including the game, used to key the
// per-cycle market data map.
func (k OpportunityKey) BetID() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", k.Player, k.MarketKey, k.Line, k.Side, k.GameID)
}

// UniqueKey returns the deduplication key. It deliberately excludes both the
// game and the book so a line re-offered for the same player prop is treated
// as the same opportunity across books.
func (k OpportunityKey) UniqueKey() string {
	return fmt.Sprintf("%s|%s|%s|%s", k.Player, k.MarketKey, k.Line, k.Side)
}

// ParseBetID is the inverse of BetID.
func ParseBetID(id string) (OpportunityKey, bool) {
	parts := strings.Split(id, "|")
	if len(parts) != 5 {
		return OpportunityKey{}, false
	}
	return OpportunityKey{
		Player:    parts[0],
		MarketKey: parts[1],
		Line:      parts[2],
		Side:      Side(parts[3]),
		GameID:    parts[4],
	}, true
}

// MarketOpportunity holds every book's quote for one outcome, plus the
// resolved quotes for the opposite side. It is rebuilt from the latest
// snapshot on every evaluation cycle and never mutated across cycles.
type MarketOpportunity struct {
	Key          OpportunityKey
	BookOdds     map[string]Outcome // book abbrev -> quote
	OppositeOdds map[string]Outcome // book abbrev -> opposite-side quote, may be empty
}

// Coverage returns the number of distinct books quoting this outcome.
func (m *MarketOpportunity) Coverage() int {
	return len(m.BookOdds)
}

// FairValue is the output of the fair probability engine.
type FairValue struct {
	Probability float64
	CalcType    CalcType
}

// Priceable reports whether the engine produced a usable estimate. A CalcNone
// result means no book contributed weight and the opportunity must not be
// alerted on.
func (f FairValue) Priceable() bool {
	return f.CalcType != CalcNone && f.Probability > 0 && f.Probability < 1
}

// GameInfo describes the event an opportunity belongs to.
type GameInfo struct {
	Name     string
	HomeTeam string
	AwayTeam string
	When     string
	Live     bool
}
