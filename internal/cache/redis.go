// Package cache keeps the latest derived summary per principal in Redis so
// a restarted dashboard can serve the last known view before the first live
// snapshot lands. The cache is best-effort: it is never the source of truth
// and its failures are logged, not propagated.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pcubed/gradeboard/internal/aggregator"
)

const summaryTTL = 24 * time.Hour

// SummaryCache stores summaries in Redis keyed by principal id.
type SummaryCache struct {
	rdb *redis.Client
}

func NewSummaryCache(rdb *redis.Client) *SummaryCache {
	return &SummaryCache{rdb: rdb}
}

func summaryKey(userID string) string {
	return fmt.Sprintf("summary:%s", userID)
}

// Put replaces the cached summary for userID.
func (c *SummaryCache) Put(ctx context.Context, userID string, s aggregator.Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := c.rdb.Set(ctx, summaryKey(userID), data, summaryTTL).Err(); err != nil {
		return fmt.Errorf("cache summary: %w", err)
	}
	return nil
}

// Get returns the cached summary, or ok=false when none is stored.
func (c *SummaryCache) Get(ctx context.Context, userID string) (aggregator.Summary, bool, error) {
	data, err := c.rdb.Get(ctx, summaryKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return aggregator.Summary{}, false, nil
	}
	if err != nil {
		return aggregator.Summary{}, false, fmt.Errorf("read cached summary: %w", err)
	}
	var s aggregator.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return aggregator.Summary{}, false, fmt.Errorf("decode cached summary: %w", err)
	}
	return s, true, nil
}
