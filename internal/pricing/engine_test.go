package pricing

import (
	"math"
	"testing"

	"github.com/dmaxfield/propscan/internal/books"
	"github.com/dmaxfield/propscan/internal/domain"
)

func testEngine() *Engine {
	return NewEngine(DefaultTables(), books.Default())
}

func opp(marketKey string, bookOdds, oppOdds map[string]domain.Outcome) *domain.MarketOpportunity {
	return &domain.MarketOpportunity{
		Key: domain.OpportunityKey{
			Player:    "Jalen Chandler",
			MarketKey: marketKey,
			Line:      "24.5",
			Side:      domain.SideOver,
			GameID:    "BOS @ NYK",
		},
		BookOdds:     bookOdds,
		OppositeOdds: oppOdds,
	}
}

func TestFairProbabilityTwoWay(t *testing.T) {
	// A single book quoting -110 on both sides de-vigs to exactly one half.
	fv := testEngine().FairProbability(opp("player_points",
		map[string]domain.Outcome{"DK": {Book: "DK", Price: -110}},
		map[string]domain.Outcome{"DK": {Book: "DK", Price: -110}},
	))
	if fv.CalcType != domain.CalcTwoWay {
		t.Fatalf("calc type = %q, want %q", fv.CalcType, domain.CalcTwoWay)
	}
	if !almostEqual(fv.Probability, 0.5, 0.001) {
		t.Errorf("probability = %.4f, want 0.5", fv.Probability)
	}
}

func TestFairProbabilityOneWay(t *testing.T) {
	fv := testEngine().FairProbability(opp("player_points",
		map[string]domain.Outcome{"DK": {Book: "DK", Price: 105}},
		nil,
	))
	if fv.CalcType != domain.CalcOneWay {
		t.Fatalf("calc type = %q, want %q", fv.CalcType, domain.CalcOneWay)
	}
	want := AmericanToProbability(105) * 0.92
	if !almostEqual(fv.Probability, want, 1e-9) {
		t.Errorf("probability = %.4f, want %.4f", fv.Probability, want)
	}
}

func TestFairProbabilityHybrid(t *testing.T) {
	// Book A (DK) quotes -110 two-sided, book B (BR) quotes +105 one-sided.
	// The result must be hybrid, sit strictly between the two per-book
	// estimates, and lean toward DK whose weight dwarfs BR's.
	e := testEngine()
	fv := e.FairProbability(opp("player_points",
		map[string]domain.Outcome{
			"DK": {Book: "DK", Price: -110},
			"BR": {Book: "BR", Price: 105},
		},
		map[string]domain.Outcome{"DK": {Book: "DK", Price: -110}},
	))
	if fv.CalcType != domain.CalcHybrid {
		t.Fatalf("calc type = %q, want %q", fv.CalcType, domain.CalcHybrid)
	}

	twoWayEst := 0.5
	oneWayEst := AmericanToProbability(105) * 0.92
	lo, hi := oneWayEst, twoWayEst
	if lo > hi {
		lo, hi = hi, lo
	}
	if fv.Probability <= lo || fv.Probability >= hi {
		t.Fatalf("probability %.4f not strictly between %.4f and %.4f", fv.Probability, lo, hi)
	}

	// DK weight 0.2027 vs BR 0.0096: the blend must land much closer to DK's
	// two-way estimate.
	distTwoWay := math.Abs(fv.Probability - twoWayEst)
	distOneWay := math.Abs(fv.Probability - oneWayEst)
	if distTwoWay >= distOneWay {
		t.Errorf("probability %.4f not weighted toward the heavier book", fv.Probability)
	}
}

func TestFairProbabilityNoData(t *testing.T) {
	e := testEngine()

	fv := e.FairProbability(opp("player_points", nil, nil))
	if fv.CalcType != domain.CalcNone || fv.Probability != 0.5 {
		t.Errorf("empty odds: got (%v, %q), want (0.5, none)", fv.Probability, fv.CalcType)
	}

	// All prices zero: filtered before probability math, so no weight
	// accumulates.
	fv = e.FairProbability(opp("player_points",
		map[string]domain.Outcome{"DK": {Book: "DK", Price: 0}},
		nil,
	))
	if fv.CalcType != domain.CalcNone {
		t.Errorf("zero prices: calc type = %q, want none", fv.CalcType)
	}
	if fv.Priceable() {
		t.Error("sentinel result must not be priceable")
	}
}

func TestFairProbabilityForceOneWay(t *testing.T) {
	// Double-double markets stay one-way even when a No quote exists.
	fv := testEngine().FairProbability(&domain.MarketOpportunity{
		Key: domain.OpportunityKey{
			Player:    "Jalen Chandler",
			MarketKey: "player_double_double",
			Side:      domain.SideYes,
			GameID:    "BOS @ NYK",
		},
		BookOdds:     map[string]domain.Outcome{"DK": {Book: "DK", Price: 250}},
		OppositeOdds: map[string]domain.Outcome{"DK": {Book: "DK", Price: -350}},
	})
	if fv.CalcType != domain.CalcOneWay {
		t.Errorf("calc type = %q, want %q", fv.CalcType, domain.CalcOneWay)
	}
}
