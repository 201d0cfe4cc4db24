// Package config defines the top-level configuration for the prop scanner
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by PROPSCAN_* environment variables.
type Config struct {
	Feed     FeedConfig     `toml:"feed"`
	OddsAPI  OddsAPIConfig  `toml:"odds_api"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	Scan     ScanConfig     `toml:"scan"`
	Tiers    TiersConfig    `toml:"tiers"`
	Dedup    DedupConfig    `toml:"dedup"`
	Notify   NotifyConfig   `toml:"notify"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// FeedConfig holds push feed connection parameters.
type FeedConfig struct {
	URL   string `toml:"url"`
	Sport string `toml:"sport"`
}

// OddsAPIConfig holds the pull-mode odds API parameters.
type OddsAPIConfig struct {
	BaseURL           string   `toml:"base_url"`
	APIKey            string   `toml:"api_key"`
	Sport             string   `toml:"sport"`
	Markets           []string `toml:"markets"`
	Bookmakers        []string `toml:"bookmakers"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
}

// PostgresConfig holds PostgreSQL connection parameters for the alert memory.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the snapshot cache and
// the cross-process send limiter.
type RedisConfig struct {
	Enabled     bool     `toml:"enabled"`
	Addr        string   `toml:"addr"`
	Password    string   `toml:"password"`
	DB          int      `toml:"db"`
	PoolSize    int      `toml:"pool_size"`
	MaxRetries  int      `toml:"max_retries"`
	TLSEnabled  bool     `toml:"tls_enabled"`
	SnapshotTTL duration `toml:"snapshot_ttl"`
}

// ScanConfig holds the evaluation loop parameters.
type ScanConfig struct {
	// State is the subscriber's US state code; it controls deep-link
	// rewriting and which books are alertable.
	State string `toml:"state"`
	// Interval is the evaluation cadence in stream mode and the fetch
	// cadence in poll mode.
	Interval      duration `toml:"interval"`
	KellyFraction float64  `toml:"kelly_fraction"`
	// ActiveStart/ActiveEnd bound the hours (local to Timezone) during which
	// evaluation runs. Equal values disable the gate.
	ActiveStart int    `toml:"active_start"`
	ActiveEnd   int    `toml:"active_end"`
	Timezone    string `toml:"timezone"`
}

// TierRuleConfig holds one tier's thresholds.
type TierRuleConfig struct {
	MinKelly    float64 `toml:"min_kelly"`
	MinCoverage int     `toml:"min_coverage"`
	MinOdds     int     `toml:"min_odds"`
}

// CustomTierConfig holds the operator-defined rule set that replaces the
// standard ladder when enabled.
type CustomTierConfig struct {
	Enabled  bool    `toml:"enabled"`
	MinEVPct float64 `toml:"min_ev_pct"`
	MinKelly float64 `toml:"min_kelly"`
	MinOdds  int     `toml:"min_odds"`
}

// TiersConfig holds the full alert ladder plus per-cycle caps.
type TiersConfig struct {
	Fire          TierRuleConfig   `toml:"fire"`
	ValueLongshot TierRuleConfig   `toml:"value_longshot"`
	Outlier       TierRuleConfig   `toml:"outlier"`
	Custom        CustomTierConfig `toml:"custom"`
	// Caps maps tier name to the maximum alerts per cycle (0 = uncapped).
	Caps map[string]int `toml:"caps"`
}

// DedupConfig holds the governor thresholds.
type DedupConfig struct {
	Cooldown    duration `toml:"cooldown"`
	MinEVGain   float64  `toml:"min_ev_gain"`
	MinOddsGain int      `toml:"min_odds_gain"`
	// Retention bounds how far back persisted alert memory is hydrated.
	Retention duration `toml:"retention"`
}

// NotifyConfig holds notification channel credentials and delivery pacing.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Tiers             []string `toml:"tiers"`
	SendInterval      duration `toml:"send_interval"`
	// MaxPerWindow bounds total sends across processes via Redis; zero
	// disables the shared limit.
	MaxPerWindow int      `toml:"max_per_window"`
	Window       duration `toml:"window"`
}

// MetricsConfig holds the Prometheus exporter parameters.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Feed: FeedConfig{
			URL:   "wss://api.boltodds.com/stream",
			Sport: "NBA",
		},
		OddsAPI: OddsAPIConfig{
			BaseURL:           "https://api.the-odds-api.com/v4",
			Sport:             "basketball_nba",
			RequestsPerSecond: 1,
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "propscan",
			User:          "propscan",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:     false,
			Addr:        "localhost:6379",
			PoolSize:    20,
			MaxRetries:  3,
			SnapshotTTL: duration{5 * time.Minute},
		},
		Scan: ScanConfig{
			State:         "ny",
			Interval:      duration{30 * time.Second},
			KellyFraction: 0.25,
			ActiveStart:   9,
			ActiveEnd:     23,
			Timezone:      "America/New_York",
		},
		Tiers: TiersConfig{
			Fire:          TierRuleConfig{MinKelly: 0.30, MinCoverage: 8},
			ValueLongshot: TierRuleConfig{MinKelly: 0.15, MinCoverage: 5, MinOdds: 500},
			Outlier:       TierRuleConfig{MinKelly: 0.05, MinCoverage: 3},
			Caps:          map[string]int{},
		},
		Dedup: DedupConfig{
			Cooldown:    duration{30 * time.Minute},
			MinEVGain:   3.0,
			MinOddsGain: 20,
			Retention:   duration{24 * time.Hour},
		},
		Notify: NotifyConfig{
			Tiers:        []string{"FIRE", "VALUE_LONGSHOT", "OUTLIER", "CUSTOM"},
			SendInterval: duration{time.Second},
			Window:       duration{time.Minute},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    "127.0.0.1:9190",
		},
		Mode:     "stream",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"stream": true,
	"poll":   true,
	"once":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: stream, poll, once)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	mode := strings.ToLower(c.Mode)
	if mode == "stream" {
		if c.Feed.URL == "" {
			errs = append(errs, "feed: url must not be empty for stream mode")
		}
		if c.Feed.Sport == "" {
			errs = append(errs, "feed: sport must not be empty for stream mode")
		}
	}
	if mode == "poll" || mode == "once" {
		if c.OddsAPI.BaseURL == "" {
			errs = append(errs, "odds_api: base_url must not be empty for "+mode+" mode")
		}
		if c.OddsAPI.APIKey == "" {
			errs = append(errs, "odds_api: api_key is required for "+mode+" mode")
		}
		if c.OddsAPI.Sport == "" {
			errs = append(errs, "odds_api: sport must not be empty")
		}
	}

	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.Scan.State == "" {
		errs = append(errs, "scan: state must not be empty")
	}
	if c.Scan.Interval.Duration <= 0 {
		errs = append(errs, "scan: interval must be > 0")
	}
	if c.Scan.KellyFraction <= 0 || c.Scan.KellyFraction > 1 {
		errs = append(errs, fmt.Sprintf("scan: kelly_fraction must be in (0, 1], got %v", c.Scan.KellyFraction))
	}
	if c.Scan.ActiveStart < 0 || c.Scan.ActiveStart > 23 {
		errs = append(errs, fmt.Sprintf("scan: active_start must be 0-23, got %d", c.Scan.ActiveStart))
	}
	if c.Scan.ActiveEnd < 0 || c.Scan.ActiveEnd > 23 {
		errs = append(errs, fmt.Sprintf("scan: active_end must be 0-23, got %d", c.Scan.ActiveEnd))
	}
	if c.Scan.Timezone != "" {
		if _, err := time.LoadLocation(c.Scan.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("scan: unknown timezone %q", c.Scan.Timezone))
		}
	}

	for name, rule := range map[string]TierRuleConfig{
		"fire":           c.Tiers.Fire,
		"value_longshot": c.Tiers.ValueLongshot,
		"outlier":        c.Tiers.Outlier,
	} {
		if rule.MinKelly < 0 {
			errs = append(errs, fmt.Sprintf("tiers: %s.min_kelly must be >= 0", name))
		}
		if rule.MinCoverage < 0 {
			errs = append(errs, fmt.Sprintf("tiers: %s.min_coverage must be >= 0", name))
		}
	}
	if c.Tiers.Custom.Enabled && c.Tiers.Custom.MinEVPct <= 0 && c.Tiers.Custom.MinKelly <= 0 {
		errs = append(errs, "tiers: custom rule is enabled but sets no thresholds")
	}

	if c.Dedup.Cooldown.Duration <= 0 {
		errs = append(errs, "dedup: cooldown must be > 0")
	}
	if c.Dedup.MinEVGain < 0 {
		errs = append(errs, "dedup: min_ev_gain must be >= 0")
	}
	if c.Dedup.MinOddsGain < 0 {
		errs = append(errs, "dedup: min_odds_gain must be >= 0")
	}

	if c.Notify.MaxPerWindow > 0 && !c.Redis.Enabled {
		errs = append(errs, "notify: max_per_window requires redis.enabled")
	}
	if c.Notify.SendInterval.Duration < 0 {
		errs = append(errs, "notify: send_interval must be >= 0")
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, "metrics: addr must not be empty when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
