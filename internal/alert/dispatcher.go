package alert

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmaxfield/propscan/internal/books"
	"github.com/dmaxfield/propscan/internal/domain"
)

// Sink delivers one formatted notification. Satisfied by notify.Notifier.
type Sink interface {
	Notify(ctx context.Context, event, title, message string) error
}

// DispatcherConfig controls pacing and per-cycle volume.
type DispatcherConfig struct {
	// State is the subscriber's US state code; opportunities whose best book
	// is not legal there are skipped.
	State string
	// SendInterval is the minimum spacing between outbound notifications.
	SendInterval time.Duration
	// TierCaps limits how many alerts of each tier go out per cycle. Zero
	// means uncapped.
	TierCaps map[domain.Tier]int
	// LimiterKey and LimiterMax bound total sends across processes through
	// the shared SendLimiter; LimiterMax zero disables the check.
	LimiterKey    string
	LimiterMax    int
	LimiterWindow time.Duration
	// OnSent and OnSuppressed are optional instrumentation hooks.
	OnSent       func(tier domain.Tier)
	OnSuppressed func(decision Decision)
}

// Dispatcher walks an evaluated cycle in stake order, consults the governor,
// and delivers qualifying alerts with a pacing delay between sends. A single
// delivery failure is logged and the batch continues.
type Dispatcher struct {
	sink     Sink
	governor *Governor
	books    books.Table
	limiter  *rate.Limiter
	shared   domain.SendLimiter // may be nil
	cfg      DispatcherConfig
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(sink Sink, gov *Governor, bt books.Table, shared domain.SendLimiter, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	interval := cfg.SendInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &Dispatcher{
		sink:     sink,
		governor: gov,
		books:    bt,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		shared:   shared,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch processes one evaluated cycle and returns the number of alerts
// sent. The input is expected sorted by stake, largest first, so tier caps
// keep the strongest plays.
func (d *Dispatcher) Dispatch(ctx context.Context, results []*domain.EvaluatedOpportunity) int {
	sent := 0
	tierCounts := make(map[domain.Tier]int)

	for _, e := range results {
		if ctx.Err() != nil {
			return sent
		}
		if e.Tier == domain.TierNone {
			continue
		}
		if limit := d.cfg.TierCaps[e.Tier]; limit > 0 && tierCounts[e.Tier] >= limit {
			continue
		}
		if !d.books.LegalIn(e.BestBook, d.cfg.State) {
			continue
		}

		decision := d.governor.Decide(e)
		if !decision.Send() {
			if d.cfg.OnSuppressed != nil {
				d.cfg.OnSuppressed(decision)
			}
			d.logger.Debug("alert suppressed",
				slog.String("unique_key", e.Key.UniqueKey()),
				slog.String("decision", string(decision)),
			)
			continue
		}

		if !d.allowShared(ctx) {
			d.logger.Warn("send limit reached, dropping remainder of cycle",
				slog.Int("sent", sent),
			)
			return sent
		}
		if err := d.limiter.Wait(ctx); err != nil {
			return sent
		}

		title := FormatTitle(e, decision)
		message := FormatMessage(e, d.books)
		if err := d.sink.Notify(ctx, string(e.Tier), title, message); err != nil {
			d.logger.ErrorContext(ctx, "alert delivery failed",
				slog.String("unique_key", e.Key.UniqueKey()),
				slog.String("error", err.Error()),
			)
			continue
		}

		d.governor.MarkSent(ctx, e)
		if d.cfg.OnSent != nil {
			d.cfg.OnSent(e.Tier)
		}
		tierCounts[e.Tier]++
		sent++
		d.logger.Info("alert sent",
			slog.String("tier", string(e.Tier)),
			slog.String("player", e.Key.Player),
			slog.String("book", e.BestBook),
			slog.Int("price", e.BestPrice),
			slog.String("decision", string(decision)),
		)
	}
	return sent
}

// allowShared consults the cross-process send limiter when configured. Limiter
// errors fail open: a broken cache must not silence alerting.
func (d *Dispatcher) allowShared(ctx context.Context) bool {
	if d.shared == nil || d.cfg.LimiterMax <= 0 {
		return true
	}
	ok, err := d.shared.Allow(ctx, d.cfg.LimiterKey, d.cfg.LimiterMax, d.cfg.LimiterWindow)
	if err != nil {
		d.logger.Warn("send limiter unavailable", slog.String("error", err.Error()))
		return true
	}
	return ok
}
