package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PROPSCAN_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load. If path is empty only
// defaults and environment overrides are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config: env overrides: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides maps PROPSCAN_* environment variables onto cfg. Only
// variables that are set and non-empty take effect.
func applyEnvOverrides(cfg *Config) error {
	var errs []string

	setStr(&cfg.Mode, "PROPSCAN_MODE")
	setStr(&cfg.LogLevel, "PROPSCAN_LOG_LEVEL")

	setStr(&cfg.Feed.URL, "PROPSCAN_FEED_URL")
	setStr(&cfg.Feed.Sport, "PROPSCAN_FEED_SPORT")

	setStr(&cfg.OddsAPI.BaseURL, "PROPSCAN_ODDS_API_BASE_URL")
	setStr(&cfg.OddsAPI.APIKey, "PROPSCAN_ODDS_API_KEY")
	setStr(&cfg.OddsAPI.Sport, "PROPSCAN_ODDS_API_SPORT")
	setStringSlice(&cfg.OddsAPI.Markets, "PROPSCAN_ODDS_API_MARKETS")
	setStringSlice(&cfg.OddsAPI.Bookmakers, "PROPSCAN_ODDS_API_BOOKMAKERS")
	setFloat64(&cfg.OddsAPI.RequestsPerSecond, "PROPSCAN_ODDS_API_RPS", &errs)

	setBool(&cfg.Postgres.Enabled, "PROPSCAN_POSTGRES_ENABLED", &errs)
	setStr(&cfg.Postgres.DSN, "PROPSCAN_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "PROPSCAN_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "PROPSCAN_POSTGRES_PORT", &errs)
	setStr(&cfg.Postgres.Database, "PROPSCAN_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "PROPSCAN_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "PROPSCAN_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "PROPSCAN_POSTGRES_SSL_MODE")
	setBool(&cfg.Postgres.RunMigrations, "PROPSCAN_POSTGRES_RUN_MIGRATIONS", &errs)

	setBool(&cfg.Redis.Enabled, "PROPSCAN_REDIS_ENABLED", &errs)
	setStr(&cfg.Redis.Addr, "PROPSCAN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PROPSCAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PROPSCAN_REDIS_DB", &errs)
	setBool(&cfg.Redis.TLSEnabled, "PROPSCAN_REDIS_TLS_ENABLED", &errs)
	setDuration(&cfg.Redis.SnapshotTTL, "PROPSCAN_REDIS_SNAPSHOT_TTL", &errs)

	setStr(&cfg.Scan.State, "PROPSCAN_SCAN_STATE")
	setDuration(&cfg.Scan.Interval, "PROPSCAN_SCAN_INTERVAL", &errs)
	setFloat64(&cfg.Scan.KellyFraction, "PROPSCAN_SCAN_KELLY_FRACTION", &errs)
	setInt(&cfg.Scan.ActiveStart, "PROPSCAN_SCAN_ACTIVE_START", &errs)
	setInt(&cfg.Scan.ActiveEnd, "PROPSCAN_SCAN_ACTIVE_END", &errs)
	setStr(&cfg.Scan.Timezone, "PROPSCAN_SCAN_TIMEZONE")

	setDuration(&cfg.Dedup.Cooldown, "PROPSCAN_DEDUP_COOLDOWN", &errs)
	setFloat64(&cfg.Dedup.MinEVGain, "PROPSCAN_DEDUP_MIN_EV_GAIN", &errs)
	setInt(&cfg.Dedup.MinOddsGain, "PROPSCAN_DEDUP_MIN_ODDS_GAIN", &errs)

	setStr(&cfg.Notify.TelegramToken, "PROPSCAN_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PROPSCAN_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "PROPSCAN_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Tiers, "PROPSCAN_NOTIFY_TIERS")
	setDuration(&cfg.Notify.SendInterval, "PROPSCAN_NOTIFY_SEND_INTERVAL", &errs)
	setInt(&cfg.Notify.MaxPerWindow, "PROPSCAN_NOTIFY_MAX_PER_WINDOW", &errs)

	setBool(&cfg.Metrics.Enabled, "PROPSCAN_METRICS_ENABLED", &errs)
	setStr(&cfg.Metrics.Addr, "PROPSCAN_METRICS_ADDR")

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string, errs *[]string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid integer %q", key, v))
		return
	}
	*dst = n
}

func setFloat64(dst *float64, key string, errs *[]string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid float %q", key, v))
		return
	}
	*dst = f
}

func setBool(dst *bool, key string, errs *[]string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid boolean %q", key, v))
		return
	}
	*dst = b
}

func setDuration(dst *duration, key string, errs *[]string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid duration %q", key, v))
		return
	}
	dst.Duration = d
}

func setStringSlice(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	*dst = out
}
