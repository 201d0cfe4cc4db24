package pricing

import (
	"github.com/dmaxfield/propscan/internal/books"
	"github.com/dmaxfield/propscan/internal/domain"
)

// Engine computes weighted hybrid fair probabilities. It is stateless:
// the tables and book weights are fixed at construction and every call
// operates only on its arguments, so a single Engine is safe for concurrent
// use.
type Engine struct {
	tables Tables
	books  books.Table
}

// NewEngine creates an Engine over the given multiplier tables and book
// weights.
func NewEngine(tables Tables, bt books.Table) *Engine {
	return &Engine{tables: tables, books: bt}
}

// FairProbability combines every book's de-vigged estimate into one figure.
//
// Each book is handled on its own terms: a book quoting both sides gets
// two-way proportional de-vig against its own opposite quote; a book quoting
// one side gets the one-way multiplier treatment. The per-book fair
// probabilities are then combined by the static book weights.
//
// When no book contributes weight the sentinel (0.5, CalcNone) is returned;
// callers must treat that as "cannot be priced" and stop.
func (e *Engine) FairProbability(opp *domain.MarketOpportunity) domain.FairValue {
	if opp == nil || len(opp.BookOdds) == 0 {
		return domain.FairValue{Probability: 0.5, CalcType: domain.CalcNone}
	}

	forceOneWay := e.tables.ForceOneWay[CanonicalMarket(opp.Key.MarketKey)]

	var (
		weightedSum float64
		weightTotal float64
		twoWay      int
		oneWay      int
	)

	for book, quote := range opp.BookOdds {
		implied := AmericanToProbability(quote.Price)
		if implied <= 0 {
			continue
		}
		weight := e.books.Weight(book)

		if !forceOneWay {
			if oppQuote, ok := opp.OppositeOdds[book]; ok {
				oppImplied := AmericanToProbability(oppQuote.Price)
				if oppImplied > 0 {
					weightedSum += TwoWayDevig(implied, oppImplied) * weight
					weightTotal += weight
					twoWay++
					continue
				}
			}
		}

		weightedSum += e.tables.OneWayDevig(implied, quote.Price, opp.Key.MarketKey) * weight
		weightTotal += weight
		oneWay++
	}

	if weightTotal <= 0 {
		return domain.FairValue{Probability: 0.5, CalcType: domain.CalcNone}
	}

	calc := domain.CalcOneWay
	switch {
	case twoWay > 0 && oneWay > 0:
		calc = domain.CalcHybrid
	case twoWay > 0:
		calc = domain.CalcTwoWay
	}

	return domain.FairValue{Probability: weightedSum / weightTotal, CalcType: calc}
}
