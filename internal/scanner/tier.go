package scanner

import "github.com/dmaxfield/propscan/internal/domain"

// TierRule is one threshold rule in the alert ladder. Zero-valued fields are
// not checked.
type TierRule struct {
	MinKelly     float64 // confidence-adjusted Kelly units
	MinCoverage  int
	MinOdds      int  // requires long odds when set
	NeedsOutlier bool // best price must beat the field by the outlier margin
}

// CustomRule is the operator-configurable substitute for the standard ladder.
type CustomRule struct {
	Enabled  bool
	MinEVPct float64
	MinKelly float64
	MinOdds  int
}

// Thresholds holds the ordered tier ladder plus the custom rule set.
type Thresholds struct {
	Fire          TierRule
	ValueLongshot TierRule
	Outlier       TierRule
	Custom        CustomRule
}

// DefaultThresholds returns the production alert ladder.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Fire:          TierRule{MinKelly: 0.30, MinCoverage: 8},
		ValueLongshot: TierRule{MinKelly: 0.15, MinCoverage: 5, MinOdds: 500},
		Outlier:       TierRule{MinKelly: 0.05, MinCoverage: 3, NeedsOutlier: true},
	}
}

// Classify assigns an alert tier to an evaluated opportunity. Rules are
// evaluated top-down, first match wins; when the custom rule set is enabled
// it replaces the standard ladder entirely.
func (t Thresholds) Classify(e *domain.EvaluatedOpportunity) domain.Tier {
	if t.Custom.Enabled {
		if e.EVPct >= t.Custom.MinEVPct &&
			e.ConfKelly >= t.Custom.MinKelly &&
			(t.Custom.MinOdds == 0 || e.BestPrice >= t.Custom.MinOdds) {
			return domain.TierCustom
		}
		return domain.TierNone
	}

	ladder := []struct {
		rule TierRule
		tier domain.Tier
	}{
		{t.Fire, domain.TierFire},
		{t.ValueLongshot, domain.TierValueLongshot},
		{t.Outlier, domain.TierOutlier},
	}
	for _, step := range ladder {
		if matches(step.rule, e) {
			return step.tier
		}
	}
	return domain.TierNone
}

func matches(r TierRule, e *domain.EvaluatedOpportunity) bool {
	if e.ConfKelly < r.MinKelly {
		return false
	}
	if e.Coverage < r.MinCoverage {
		return false
	}
	if r.MinOdds != 0 && e.BestPrice < r.MinOdds {
		return false
	}
	if r.NeedsOutlier && !e.Outlier {
		return false
	}
	return true
}
