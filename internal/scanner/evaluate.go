package scanner

import (
	"log/slog"
	"sort"

	"github.com/dmaxfield/propscan/internal/books"
	"github.com/dmaxfield/propscan/internal/domain"
	"github.com/dmaxfield/propscan/internal/pricing"
)

// Outlier margins: raw percent when both prices are positive, implied
// probability points otherwise. Raw percent differences are meaningless
// across the positive/negative American-odds sign boundary.
const (
	outlierPctMargin  = 35.0
	outlierProbMargin = 10.0
)

// Evaluator runs the full per-opportunity pipeline: fair probability, best
// price selection, EV, Kelly sizing, confidence scaling, outlier margin, and
// tier classification.
type Evaluator struct {
	engine     *pricing.Engine
	books      books.Table
	thresholds Thresholds
	fraction   float64
	logger     *slog.Logger
}

// NewEvaluator creates an Evaluator. fraction is the Kelly fraction applied
// to every stake (quarter-Kelly by convention).
func NewEvaluator(engine *pricing.Engine, bt books.Table, th Thresholds, fraction float64, logger *slog.Logger) *Evaluator {
	if fraction <= 0 {
		fraction = pricing.DefaultKellyFraction
	}
	return &Evaluator{
		engine:     engine,
		books:      bt,
		thresholds: th,
		fraction:   fraction,
		logger:     logger.With(slog.String("component", "evaluator")),
	}
}

// Evaluate prices a single opportunity. It returns nil when the opportunity
// cannot be priced (no usable quotes) or carries no positive expected value;
// such opportunities never reach the alert layer by construction.
func (ev *Evaluator) Evaluate(opp *domain.MarketOpportunity, game domain.GameInfo) *domain.EvaluatedOpportunity {
	fair := ev.engine.FairProbability(opp)
	if !fair.Priceable() {
		return nil
	}

	best, next, ok := ev.bestPrices(opp)
	if !ok {
		return nil
	}

	evPct := pricing.EVPercent(fair.Probability, best.Price)
	if evPct <= 0 {
		return nil
	}

	stdKelly := pricing.Kelly(evPct/100, pricing.DecimalOdds(best.Price), ev.fraction)
	coverage := opp.Coverage()
	confKelly := stdKelly * pricing.ConfidenceMultiplier(coverage)

	pctVsNext, outlier := percentVsNext(best.Price, next.Price, next.Book != "")

	result := &domain.EvaluatedOpportunity{
		MarketOpportunity: opp,
		Game:              game,
		Fair:              fair,
		BestBook:          best.Book,
		BestPrice:         best.Price,
		BestLink:          best.Link,
		NextBook:          next.Book,
		NextPrice:         next.Price,
		FairPrice:         pricing.ProbabilityToAmerican(fair.Probability),
		EVPct:             evPct,
		StdKelly:          stdKelly,
		ConfKelly:         confKelly,
		Coverage:          coverage,
		PctVsNext:         pctVsNext,
		Outlier:           outlier,
	}
	result.Tier = ev.thresholds.Classify(result)
	return result
}

// EvaluateAll runs Evaluate over a full normalized cycle, sorted so the
// largest stakes come first.
func (ev *Evaluator) EvaluateAll(data map[string]*domain.MarketOpportunity, games map[string]domain.GameInfo) []*domain.EvaluatedOpportunity {
	LinkOpposites(data)

	results := make([]*domain.EvaluatedOpportunity, 0, len(data))
	for _, opp := range data {
		if e := ev.Evaluate(opp, games[opp.Key.GameID]); e != nil {
			results = append(results, e)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ConfKelly > results[j].ConfKelly
	})

	ev.logger.Debug("evaluation pass complete",
		slog.Int("opportunities", len(data)),
		slog.Int("positive_ev", len(results)),
	)
	return results
}

// bestPrices returns the best and second-best quotes across books, excluding
// sharp reference books from selection (they still shaped the fair value).
func (ev *Evaluator) bestPrices(opp *domain.MarketOpportunity) (best, next domain.Outcome, ok bool) {
	quotes := make([]domain.Outcome, 0, len(opp.BookOdds))
	for _, q := range opp.BookOdds {
		if ev.books.IsSharp(q.Book) {
			continue
		}
		quotes = append(quotes, q)
	}
	if len(quotes) == 0 {
		return domain.Outcome{}, domain.Outcome{}, false
	}
	sort.Slice(quotes, func(i, j int) bool {
		if quotes[i].Price != quotes[j].Price {
			return quotes[i].Price > quotes[j].Price
		}
		return quotes[i].Book < quotes[j].Book
	})
	best = quotes[0]
	if len(quotes) > 1 {
		next = quotes[1]
	}
	return best, next, true
}

// percentVsNext measures how far the best price stands off the field. With
// two positive prices the raw percent difference applies; otherwise the gap
// is expressed in implied-probability points scaled to percent.
func percentVsNext(best, next int, haveNext bool) (pct float64, outlier bool) {
	if !haveNext || next == 0 {
		return 0, false
	}
	if best > 0 && next > 0 {
		pct = (float64(best-next) / float64(next)) * 100
		return pct, pct >= outlierPctMargin
	}
	bestProb := pricing.AmericanToProbability(best)
	nextProb := pricing.AmericanToProbability(next)
	pct = (nextProb - bestProb) * 100
	return pct, pct >= outlierProbMargin
}
