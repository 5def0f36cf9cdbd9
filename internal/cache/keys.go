package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	GameKeyPrefix      = "game:%s"
	AnalyticsKeyPrefix = "analytics:%s"
	CommunityStatsKey  = "community:stats"
)

const (
	GameTTL = 10 * time.Minute
	// DefaultAggregateTTL applies when settings do not provide a cache timeout.
	DefaultAggregateTTL = time.Hour
)

// AnalyticsRanges lists every range with a cached analytics payload.
var AnalyticsRanges = []string{"7d", "30d", "90d", "1y"}

func GameKey(slug string) string {
	return fmt.Sprintf(GameKeyPrefix, slug)
}

func AnalyticsKey(rangeKey string) string {
	return fmt.Sprintf(AnalyticsKeyPrefix, rangeKey)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateGame(ctx context.Context, slug string) {
	Invalidate(ctx, GameKey(slug))
}

// InvalidateAggregates drops every cached analytics and community stats payload.
func InvalidateAggregates(ctx context.Context) {
	keys := make([]string, 0, len(AnalyticsRanges)+1)
	for _, r := range AnalyticsRanges {
		keys = append(keys, AnalyticsKey(r))
	}
	keys = append(keys, CommunityStatsKey)
	Invalidate(ctx, keys...)
}
