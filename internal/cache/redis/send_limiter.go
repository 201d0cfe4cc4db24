package redis

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmaxfield/propscan/internal/domain"
)

//go:embed scripts/sliding_window.lua
var slidingWindowLua string

// SendLimiter implements domain.SendLimiter using a sliding-window approach
// backed by Redis sorted sets and an atomic Lua script. It bounds outbound
// notifications across every scanner process sharing the Redis instance.
type SendLimiter struct {
	rdb           *redis.Client
	slidingWindow *redis.Script
}

// NewSendLimiter creates a SendLimiter backed by the given Client.
func NewSendLimiter(c *Client) *SendLimiter {
	return &SendLimiter{
		rdb:           c.Underlying(),
		slidingWindow: redis.NewScript(slidingWindowLua),
	}
}

func sendLimitKey(key string) string {
	return "sendlimit:" + key
}

// Allow checks whether another notification for the given key is permitted
// inside the sliding window. It returns true if the send is allowed (and
// counted), or false if the limit has been reached.
func (sl *SendLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now().UnixMicro()
	windowMicro := window.Microseconds()

	result, err := sl.slidingWindow.Run(
		ctx,
		sl.rdb,
		[]string{sendLimitKey(key)},
		now,
		windowMicro,
		limit,
	).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("redis: send limit allow %s: %w", key, err)
	}

	if len(result) < 2 {
		return false, fmt.Errorf("redis: send limit allow %s: unexpected result length %d", key, len(result))
	}

	return result[0] == 1, nil
}

// Compile-time interface check.
var _ domain.SendLimiter = (*SendLimiter)(nil)
