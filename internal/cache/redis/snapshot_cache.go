package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmaxfield/propscan/internal/domain"
)

const opportunityTTL = 5 * time.Minute

// SnapshotCache implements domain.SnapshotCache using Redis with JSON-
// serialized MarketOpportunity data.
//
// Key schema:
//
//	opportunity:{betID} - JSON-encoded MarketOpportunity
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client. A ttl
// of zero uses the default of 5 minutes; odds older than that are stale
// enough to be worthless anyway.
func NewSnapshotCache(c *Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = opportunityTTL
	}
	return &SnapshotCache{rdb: c.Underlying(), ttl: ttl}
}

func opportunityKey(betID string) string { return "opportunity:" + betID }

// PutOpportunity stores one normalized opportunity under its bet ID.
func (sc *SnapshotCache) PutOpportunity(ctx context.Context, betID string, opp *domain.MarketOpportunity) error {
	data, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("redis: marshal opportunity %s: %w", betID, err)
	}
	if err := sc.rdb.Set(ctx, opportunityKey(betID), data, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: put opportunity %s: %w", betID, err)
	}
	return nil
}

// GetOpportunity retrieves one opportunity by bet ID.
// It returns domain.ErrNotFound when the key does not exist or has expired.
func (sc *SnapshotCache) GetOpportunity(ctx context.Context, betID string) (*domain.MarketOpportunity, error) {
	data, err := sc.rdb.Get(ctx, opportunityKey(betID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get opportunity %s: %w", betID, err)
	}

	var opp domain.MarketOpportunity
	if err := json.Unmarshal(data, &opp); err != nil {
		return nil, fmt.Errorf("redis: unmarshal opportunity %s: %w", betID, err)
	}
	return &opp, nil
}

// PutCycle stores a whole normalized cycle in one pipeline.
func (sc *SnapshotCache) PutCycle(ctx context.Context, data map[string]*domain.MarketOpportunity) error {
	if len(data) == 0 {
		return nil
	}
	pipe := sc.rdb.Pipeline()
	for betID, opp := range data {
		encoded, err := json.Marshal(opp)
		if err != nil {
			return fmt.Errorf("redis: marshal opportunity %s: %w", betID, err)
		}
		pipe.Set(ctx, opportunityKey(betID), encoded, sc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: put cycle: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
