package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmaxfield/propscan/internal/domain"
)

// AlertStore implements domain.AlertStore using PostgreSQL. The sent_alerts
// table mirrors the governor's in-process memory; alert_history keeps an
// append-only trail for later review.
type AlertStore struct {
	pool *pgxpool.Pool
	// retention bounds what Load hydrates; records older than this cannot
	// influence a cooldown anyway.
	retention time.Duration
}

// NewAlertStore creates an AlertStore backed by the given connection pool.
func NewAlertStore(pool *pgxpool.Pool, retention time.Duration) *AlertStore {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &AlertStore{pool: pool, retention: retention}
}

// Load returns recent alert memory keyed by unique key.
func (s *AlertStore) Load(ctx context.Context) (map[string]domain.AlertRecord, error) {
	const query = `
		SELECT unique_key, book, odds, ev_pct, tier, sent_at
		FROM sent_alerts
		WHERE sent_at >= $1`

	rows, err := s.pool.Query(ctx, query, time.Now().Add(-s.retention))
	if err != nil {
		return nil, fmt.Errorf("postgres: load alert memory: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.AlertRecord)
	for rows.Next() {
		var key string
		var rec domain.AlertRecord
		var tier string
		if err := rows.Scan(&key, &rec.Book, &rec.Odds, &rec.EVPct, &tier, &rec.SentAt); err != nil {
			return nil, fmt.Errorf("postgres: scan alert record: %w", err)
		}
		rec.Tier = domain.Tier(tier)
		out[key] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load alert memory rows: %w", err)
	}
	return out, nil
}

// Record upserts the memory entry for uniqueKey and appends a history row.
func (s *AlertStore) Record(ctx context.Context, uniqueKey string, rec domain.AlertRecord) error {
	const upsert = `
		INSERT INTO sent_alerts (unique_key, book, odds, ev_pct, tier, sent_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (unique_key) DO UPDATE SET
			book = EXCLUDED.book,
			odds = EXCLUDED.odds,
			ev_pct = EXCLUDED.ev_pct,
			tier = EXCLUDED.tier,
			sent_at = EXCLUDED.sent_at,
			updated_at = NOW()`

	if _, err := s.pool.Exec(ctx, upsert,
		uniqueKey, rec.Book, rec.Odds, rec.EVPct, string(rec.Tier), rec.SentAt,
	); err != nil {
		return fmt.Errorf("postgres: upsert alert record %s: %w", uniqueKey, err)
	}

	const appendHistory = `
		INSERT INTO alert_history (id, unique_key, book, odds, ev_pct, tier, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := s.pool.Exec(ctx, appendHistory,
		uuid.New(), uniqueKey, rec.Book, rec.Odds, rec.EVPct, string(rec.Tier), rec.SentAt,
	); err != nil {
		return fmt.Errorf("postgres: append alert history %s: %w", uniqueKey, err)
	}
	return nil
}

// History returns the most recent history rows, newest first.
func (s *AlertStore) History(ctx context.Context, limit int) ([]domain.AlertHistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT id, unique_key, book, odds, ev_pct, tier, sent_at
		FROM alert_history
		ORDER BY sent_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list alert history: %w", err)
	}
	defer rows.Close()

	var entries []domain.AlertHistoryEntry
	for rows.Next() {
		var e domain.AlertHistoryEntry
		var tier string
		if err := rows.Scan(&e.ID, &e.UniqueKey, &e.Book, &e.Odds, &e.EVPct, &tier, &e.SentAt); err != nil {
			return nil, fmt.Errorf("postgres: scan alert history: %w", err)
		}
		e.Tier = domain.Tier(tier)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list alert history rows: %w", err)
	}
	return entries, nil
}
