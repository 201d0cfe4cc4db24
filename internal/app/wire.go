package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmaxfield/propscan/internal/alert"
	"github.com/dmaxfield/propscan/internal/books"
	"github.com/dmaxfield/propscan/internal/cache/redis"
	"github.com/dmaxfield/propscan/internal/config"
	"github.com/dmaxfield/propscan/internal/domain"
	"github.com/dmaxfield/propscan/internal/metrics"
	"github.com/dmaxfield/propscan/internal/notify"
	"github.com/dmaxfield/propscan/internal/pricing"
	"github.com/dmaxfield/propscan/internal/scanner"
	"github.com/dmaxfield/propscan/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	Books      books.Table
	Normalizer *scanner.Normalizer
	Evaluator  *scanner.Evaluator

	Governor   *alert.Governor
	Dispatcher *alert.Dispatcher
	Notifier   *notify.Notifier

	// AlertStore is nil unless Postgres is enabled; the governor then runs on
	// in-memory state only.
	AlertStore domain.AlertStore

	// SnapshotCache and SendLimiter are nil unless Redis is enabled.
	SnapshotCache domain.SnapshotCache
	SendLimiter   domain.SendLimiter

	Metrics *metrics.Metrics
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Books:   books.Default(),
		Metrics: metrics.New(),
	}

	// --- PostgreSQL alert memory ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.AlertStore = postgres.NewAlertStore(pgClient.Pool(), cfg.Dedup.Retention.Duration)
	}

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.SnapshotCache = redis.NewSnapshotCache(redisClient, cfg.Redis.SnapshotTTL.Duration)
		deps.SendLimiter = redis.NewSendLimiter(redisClient)
	}

	// --- Pricing and evaluation ---
	engine := pricing.NewEngine(pricing.DefaultTables(), deps.Books)
	deps.Normalizer = scanner.NewNormalizer(deps.Books, cfg.Scan.State)
	deps.Evaluator = scanner.NewEvaluator(
		engine,
		deps.Books,
		thresholdsFromConfig(cfg.Tiers),
		cfg.Scan.KellyFraction,
		logger,
	)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Tiers, logger)

	// --- Alert governor and dispatcher ---
	deps.Governor = alert.NewGovernor(alert.GovernorConfig{
		Cooldown:    cfg.Dedup.Cooldown.Duration,
		MinEVGain:   cfg.Dedup.MinEVGain,
		MinOddsGain: cfg.Dedup.MinOddsGain,
	}, deps.AlertStore, logger)
	if deps.AlertStore != nil {
		if err := deps.Governor.Hydrate(ctx); err != nil {
			logger.WarnContext(ctx, "wire: alert memory hydration failed, starting cold",
				slog.String("error", err.Error()),
			)
		}
	}

	deps.Dispatcher = alert.NewDispatcher(
		deps.Notifier,
		deps.Governor,
		deps.Books,
		deps.SendLimiter,
		alert.DispatcherConfig{
			State:         cfg.Scan.State,
			SendInterval:  cfg.Notify.SendInterval.Duration,
			TierCaps:      tierCapsFromConfig(cfg.Tiers.Caps),
			LimiterKey:    "alerts",
			LimiterMax:    cfg.Notify.MaxPerWindow,
			LimiterWindow: cfg.Notify.Window.Duration,
			OnSent: func(tier domain.Tier) {
				deps.Metrics.AlertsSent.WithLabelValues(string(tier)).Inc()
			},
			OnSuppressed: func(decision alert.Decision) {
				deps.Metrics.AlertsSuppressed.WithLabelValues(string(decision)).Inc()
			},
		},
		logger,
	)

	return deps, cleanup, nil
}

// thresholdsFromConfig maps the config tier ladder onto scanner thresholds.
// The outlier tier always requires the price-vs-field margin.
func thresholdsFromConfig(tc config.TiersConfig) scanner.Thresholds {
	return scanner.Thresholds{
		Fire: scanner.TierRule{
			MinKelly:    tc.Fire.MinKelly,
			MinCoverage: tc.Fire.MinCoverage,
			MinOdds:     tc.Fire.MinOdds,
		},
		ValueLongshot: scanner.TierRule{
			MinKelly:    tc.ValueLongshot.MinKelly,
			MinCoverage: tc.ValueLongshot.MinCoverage,
			MinOdds:     tc.ValueLongshot.MinOdds,
		},
		Outlier: scanner.TierRule{
			MinKelly:     tc.Outlier.MinKelly,
			MinCoverage:  tc.Outlier.MinCoverage,
			MinOdds:      tc.Outlier.MinOdds,
			NeedsOutlier: true,
		},
		Custom: scanner.CustomRule{
			Enabled:  tc.Custom.Enabled,
			MinEVPct: tc.Custom.MinEVPct,
			MinKelly: tc.Custom.MinKelly,
			MinOdds:  tc.Custom.MinOdds,
		},
	}
}

func tierCapsFromConfig(caps map[string]int) map[domain.Tier]int {
	if len(caps) == 0 {
		return nil
	}
	out := make(map[domain.Tier]int, len(caps))
	for name, limit := range caps {
		out[domain.Tier(strings.ToUpper(name))] = limit
	}
	return out
}
