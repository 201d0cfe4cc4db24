package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tier is the alert severity bucket assigned by the classifier.
type Tier string

const (
	TierFire          Tier = "FIRE"
	TierValueLongshot Tier = "VALUE_LONGSHOT"
	TierOutlier       Tier = "OUTLIER"
	TierCustom        Tier = "CUSTOM"
	TierNone          Tier = ""
)

// EvaluatedOpportunity is a MarketOpportunity with fair value, EV, stake
// sizing, and tier attached. It is the unit handed to the alert governor and
// then to the notification sink.
type EvaluatedOpportunity struct {
	*MarketOpportunity

	Game GameInfo
	Fair FairValue

	BestBook  string
	BestPrice int
	BestLink  string
	NextBook  string
	NextPrice int
	FairPrice int // fair probability expressed as American odds

	EVPct     float64
	StdKelly  float64 // fractional-Kelly units before confidence scaling
	ConfKelly float64 // StdKelly * confidence multiplier
	Coverage  int

	PctVsNext float64
	Outlier   bool

	Tier Tier
}

// AlertRecord is the governor's memory of the last notification sent for a
// unique key.
type AlertRecord struct {
	Odds   int
	EVPct  float64
	Book   string
	Tier   Tier
	SentAt time.Time
}

// AlertHistoryEntry is one append-only record of a delivered alert.
type AlertHistoryEntry struct {
	ID        uuid.UUID
	UniqueKey string
	Book      string
	Odds      int
	EVPct     float64
	Tier      Tier
	SentAt    time.Time
}

// RawOutcome is a single outcome as carried by the push feed, prior to
// normalization. Odds arrives as a string ("+150", "-110") or, for exchange
// style books, an object with bid/ask; the platform layer flattens it.
type RawOutcome struct {
	OutcomeName      string `json:"outcome_name"`
	OutcomeTarget    string `json:"outcome_target"`
	OutcomeLine      string `json:"outcome_line"`
	OutcomeOverUnder string `json:"outcome_over_under"`
	Odds             string `json:"odds"`
	Link             string `json:"link"`
}
