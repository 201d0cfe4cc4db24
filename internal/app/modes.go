package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmaxfield/propscan/internal/domain"
	"github.com/dmaxfield/propscan/internal/metrics"
	"github.com/dmaxfield/propscan/internal/platform/boltodds"
	"github.com/dmaxfield/propscan/internal/platform/oddsapi"
	"github.com/dmaxfield/propscan/internal/stream"
)

// StreamMode connects to the push odds feed, keeps the in-memory state store
// current, and evaluates the full board on a fixed cadence.
func (a *App) StreamMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting stream mode",
		slog.String("feed_url", a.cfg.Feed.URL),
		slog.String("sport", a.cfg.Feed.Sport),
	)

	g, ctx := errgroup.WithContext(ctx)

	store := stream.NewStore(a.cfg.Feed.Sport, a.logger)
	feed := boltodds.NewClient(
		a.cfg.Feed.URL,
		a.cfg.Feed.Sport,
		store,
		func(action string) {
			deps.Metrics.FramesReceived.WithLabelValues(action).Inc()
		},
		a.logger,
	)

	g.Go(func() error {
		defer feed.Close()
		return feed.Run(ctx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(a.cfg.Scan.Interval.Duration)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				snap := store.Snapshot()
				if snap.Connected {
					deps.Metrics.FeedConnected.Set(1)
				} else {
					deps.Metrics.FeedConnected.Set(0)
				}
				if !a.withinActiveHours(time.Now()) {
					continue
				}
				a.runCycle(ctx, deps, snap.Games, snap.Odds)
			}
		}
	})

	a.startMetricsServer(ctx, g, deps)

	return g.Wait()
}

// PollMode fetches a full odds snapshot from the REST API on a fixed cadence
// and evaluates each one. A failed fetch skips the cycle; the loop continues.
func (a *App) PollMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting poll mode",
		slog.String("sport", a.cfg.OddsAPI.Sport),
		slog.Duration("interval", a.cfg.Scan.Interval.Duration),
	)

	g, ctx := errgroup.WithContext(ctx)

	client := oddsapi.NewClient(
		a.cfg.OddsAPI.BaseURL,
		a.cfg.OddsAPI.APIKey,
		a.cfg.OddsAPI.Sport,
		a.cfg.OddsAPI.RequestsPerSecond,
		a.logger,
	)

	g.Go(func() error {
		runOnce := func() {
			if !a.withinActiveHours(time.Now()) {
				return
			}
			if err := a.pollCycle(ctx, deps, client); err != nil {
				a.logger.ErrorContext(ctx, "poll cycle failed",
					slog.String("error", err.Error()),
				)
			}
		}

		runOnce()
		ticker := time.NewTicker(a.cfg.Scan.Interval.Duration)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				runOnce()
			}
		}
	})

	a.startMetricsServer(ctx, g, deps)

	return g.Wait()
}

// OnceMode fetches a single snapshot, evaluates it, and exits. Useful for
// cron-driven scans and smoke testing a configuration.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting single scan")

	client := oddsapi.NewClient(
		a.cfg.OddsAPI.BaseURL,
		a.cfg.OddsAPI.APIKey,
		a.cfg.OddsAPI.Sport,
		a.cfg.OddsAPI.RequestsPerSecond,
		a.logger,
	)
	if err := a.pollCycle(ctx, deps, client); err != nil {
		return fmt.Errorf("once mode: %w", err)
	}
	return nil
}

// pollCycle runs one fetch-and-evaluate pass against the REST API.
func (a *App) pollCycle(ctx context.Context, deps *Dependencies, client *oddsapi.Client) error {
	games, odds, err := client.FetchSnapshot(ctx, a.cfg.OddsAPI.Markets, a.cfg.OddsAPI.Bookmakers)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	a.runCycle(ctx, deps, games, odds)
	return nil
}

// runCycle normalizes one board snapshot, evaluates every opportunity, and
// dispatches qualifying alerts.
func (a *App) runCycle(
	ctx context.Context,
	deps *Dependencies,
	games map[string]domain.GameInfo,
	odds map[string]map[string]map[string]domain.RawOutcome,
) {
	start := time.Now()

	data := deps.Normalizer.Normalize(games, odds)
	results := deps.Evaluator.EvaluateAll(data, games)
	sent := deps.Dispatcher.Dispatch(ctx, results)

	deps.Metrics.CyclesTotal.Inc()
	deps.Metrics.CycleDuration.Observe(time.Since(start).Seconds())
	deps.Metrics.OpportunitiesSeen.Set(float64(len(data)))
	deps.Metrics.PositiveEV.Set(float64(len(results)))

	if deps.SnapshotCache != nil {
		if err := deps.SnapshotCache.PutCycle(ctx, data); err != nil {
			a.logger.WarnContext(ctx, "snapshot cache write failed",
				slog.String("error", err.Error()),
			)
		}
	}

	a.logger.InfoContext(ctx, "cycle complete",
		slog.Int("games", len(games)),
		slog.Int("opportunities", len(data)),
		slog.Int("positive_ev", len(results)),
		slog.Int("alerts_sent", sent),
		slog.Duration("elapsed", time.Since(start)),
	)
}

// withinActiveHours reports whether evaluation should run at the given time.
// Equal start and end hours disable the gate; a start after the end describes
// an overnight window.
func (a *App) withinActiveHours(now time.Time) bool {
	start, end := a.cfg.Scan.ActiveStart, a.cfg.Scan.ActiveEnd
	if start == end {
		return true
	}
	if a.cfg.Scan.Timezone != "" {
		if loc, err := time.LoadLocation(a.cfg.Scan.Timezone); err == nil {
			now = now.In(loc)
		}
	}
	h := now.Hour()
	if start < end {
		return h >= start && h < end
	}
	return h >= start || h < end
}

// startMetricsServer adds the Prometheus exporter goroutine to the errgroup
// when metrics are enabled.
func (a *App) startMetricsServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Metrics.Enabled {
		return
	}
	srv := metrics.NewServer(a.cfg.Metrics.Addr, deps.Metrics, a.logger)
	g.Go(func() error {
		return srv.Run(ctx)
	})
}
