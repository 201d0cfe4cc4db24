// Package alert decides which evaluated opportunities actually reach the
// operator. The governor deduplicates against prior alerts, the formatter
// renders the notification payload, and the dispatcher paces delivery across
// the configured channels.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmaxfield/propscan/internal/domain"
)

// Decision is the governor's verdict for one opportunity.
type Decision string

const (
	DecisionNewAlert      Decision = "new_alert"
	DecisionEVImproved    Decision = "ev_improved"
	DecisionOddsImproved  Decision = "odds_improved"
	DecisionSentRecently  Decision = "sent_recently"
	DecisionNoImprovement Decision = "no_improvement"
	// DecisionSameBookStale is the catch-all: the same book at an
	// equal-or-worse price is never re-announced, regardless of elapsed time.
	DecisionSameBookStale Decision = "same_book_no_improvement"
)

// Send reports whether the decision results in a notification.
func (d Decision) Send() bool {
	switch d {
	case DecisionNewAlert, DecisionEVImproved, DecisionOddsImproved:
		return true
	}
	return false
}

// GovernorConfig holds the dedup thresholds.
type GovernorConfig struct {
	// Cooldown is the minimum quiet period between alerts for the same
	// opportunity before improvement rules are even considered.
	Cooldown time.Duration
	// MinEVGain is the EV percentage-point gain that justifies a repost
	// after the cooldown.
	MinEVGain float64
	// MinOddsGain is the same-book American-odds gain that justifies a
	// repost after the cooldown.
	MinOddsGain int
}

// DefaultGovernorConfig returns the production dedup thresholds.
func DefaultGovernorConfig() GovernorConfig {
	return GovernorConfig{
		Cooldown:    30 * time.Minute,
		MinEVGain:   3.0,
		MinOddsGain: 20,
	}
}

// Governor is the stateful dedup and re-alert gate. Memory is keyed by the
// opportunity's unique key, which deliberately excludes the book: a better
// price on any book refreshes the shared entry. An optional AlertStore backs
// the memory so restarts do not replay every alert.
type Governor struct {
	cfg    GovernorConfig
	store  domain.AlertStore // may be nil
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	memory map[string]domain.AlertRecord
}

// NewGovernor creates a Governor. store may be nil for in-process-only memory.
func NewGovernor(cfg GovernorConfig, store domain.AlertStore, logger *slog.Logger) *Governor {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultGovernorConfig().Cooldown
	}
	return &Governor{
		cfg:    cfg,
		store:  store,
		logger: logger.With(slog.String("component", "governor")),
		now:    time.Now,
		memory: make(map[string]domain.AlertRecord),
	}
}

// Hydrate loads persisted alert memory so a restart honors earlier cooldowns.
func (g *Governor) Hydrate(ctx context.Context) error {
	if g.store == nil {
		return nil
	}
	records, err := g.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("alert: hydrate governor: %w", err)
	}
	g.mu.Lock()
	for key, rec := range records {
		g.memory[key] = rec
	}
	g.mu.Unlock()
	g.logger.Info("alert memory hydrated", slog.Int("records", len(records)))
	return nil
}

// Decide runs the dedup state machine for one evaluated opportunity.
//
// Unseen opportunities always send. For seen ones, a same-book equal-or-worse
// price is suppressed unconditionally; inside the cooldown everything else is
// suppressed too; after the cooldown a repost requires either an EV gain of
// at least MinEVGain points or a same-book odds gain of at least MinOddsGain.
func (g *Governor) Decide(e *domain.EvaluatedOpportunity) Decision {
	key := e.Key.UniqueKey()

	g.mu.Lock()
	prev, seen := g.memory[key]
	g.mu.Unlock()

	if !seen {
		return DecisionNewAlert
	}
	if e.BestBook == prev.Book && e.BestPrice <= prev.Odds {
		return DecisionSameBookStale
	}
	if g.now().Sub(prev.SentAt) < g.cfg.Cooldown {
		return DecisionSentRecently
	}
	if e.EVPct-prev.EVPct >= g.cfg.MinEVGain {
		return DecisionEVImproved
	}
	if e.BestBook == prev.Book && e.BestPrice-prev.Odds >= g.cfg.MinOddsGain {
		return DecisionOddsImproved
	}
	return DecisionNoImprovement
}

// MarkSent overwrites the memory entry after a successful notification and
// mirrors it to the backing store when one is configured. A store write
// failure is logged, not returned: losing persistence must not stop alerting.
func (g *Governor) MarkSent(ctx context.Context, e *domain.EvaluatedOpportunity) {
	key := e.Key.UniqueKey()
	rec := domain.AlertRecord{
		Odds:   e.BestPrice,
		EVPct:  e.EVPct,
		Book:   e.BestBook,
		Tier:   e.Tier,
		SentAt: g.now(),
	}

	g.mu.Lock()
	g.memory[key] = rec
	g.mu.Unlock()

	if g.store != nil {
		if err := g.store.Record(ctx, key, rec); err != nil {
			g.logger.ErrorContext(ctx, "persist alert record failed",
				slog.String("unique_key", key),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Size returns the number of tracked unique keys.
func (g *Governor) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.memory)
}
