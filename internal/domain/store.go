package domain

import (
	"context"
	"time"
)

// AlertStore persists the governor's alert memory so dedup state survives a
// process restart. Implementations must be safe for concurrent use.
type AlertStore interface {
	// Load returns the full alert memory keyed by unique key.
	Load(ctx context.Context) (map[string]AlertRecord, error)
	// Record upserts the memory entry for uniqueKey.
	Record(ctx context.Context, uniqueKey string, rec AlertRecord) error
}

// SnapshotCache stores the most recent normalized odds per bet ID with a TTL,
// giving poll mode a warm start and operators a debugging view.
type SnapshotCache interface {
	PutOpportunity(ctx context.Context, betID string, opp *MarketOpportunity) error
	GetOpportunity(ctx context.Context, betID string) (*MarketOpportunity, error)
	// PutCycle stores every opportunity from one evaluation cycle.
	PutCycle(ctx context.Context, data map[string]*MarketOpportunity) error
}

// SendLimiter gates outbound notifications across processes. Allow reports
// whether another send is permitted inside the sliding window.
type SendLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
