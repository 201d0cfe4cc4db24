package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	redact(&out.OddsAPI.APIKey)
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)
	redact(&out.Redis.Password)
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices and maps so callers cannot mutate the original through the
	// redacted copy.
	if cfg.OddsAPI.Markets != nil {
		out.OddsAPI.Markets = make([]string, len(cfg.OddsAPI.Markets))
		copy(out.OddsAPI.Markets, cfg.OddsAPI.Markets)
	}
	if cfg.OddsAPI.Bookmakers != nil {
		out.OddsAPI.Bookmakers = make([]string, len(cfg.OddsAPI.Bookmakers))
		copy(out.OddsAPI.Bookmakers, cfg.OddsAPI.Bookmakers)
	}
	if cfg.Notify.Tiers != nil {
		out.Notify.Tiers = make([]string, len(cfg.Notify.Tiers))
		copy(out.Notify.Tiers, cfg.Notify.Tiers)
	}
	if cfg.Tiers.Caps != nil {
		out.Tiers.Caps = make(map[string]int, len(cfg.Tiers.Caps))
		for k, v := range cfg.Tiers.Caps {
			out.Tiers.Caps[k] = v
		}
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
