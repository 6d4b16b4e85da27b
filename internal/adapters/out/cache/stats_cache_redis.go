// internal/adapters/out/cache/stats_cache_redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	statsdom "github.com/Argy1/pdpi-member-sub002/internal/domain/stats"
	"github.com/Argy1/pdpi-member-sub002/internal/infra/metrics"
)

// DefaultTTL is used when StatsCache is built with a non-positive TTL.
const DefaultTTL = 30 * time.Second

const keyPrefix = "memberdir:stats:"

// KV is the part of *redis.Client the cache needs.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// StatsCache is a read-through cache in front of a stats.Source.
// Contexts marked with stats.WithFreshRead skip the lookup and overwrite
// the cached entry. Cache failures never fail a query.
type StatsCache struct {
	next statsdom.Source
	kv   KV
	ttl  time.Duration
	log  *zap.Logger
}

func NewStatsCache(next statsdom.Source, kv KV, ttl time.Duration, log *zap.Logger) *StatsCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StatsCache{next: next, kv: kv, ttl: ttl, log: log}
}

var _ statsdom.Source = (*StatsCache)(nil)

func (c *StatsCache) Summary(ctx context.Context, p statsdom.FilterParams) (statsdom.Summary, error) {
	return cached(ctx, c, statsdom.OpSummary, p, c.next.Summary)
}

func (c *StatsCache) RegionStats(ctx context.Context, p statsdom.FilterParams) ([]statsdom.RegionStat, error) {
	out, err := cached(ctx, c, statsdom.OpRegions, p, c.next.RegionStats)
	if err == nil && out == nil {
		out = []statsdom.RegionStat{}
	}
	return out, err
}

func cacheKey(op string, p statsdom.FilterParams) string {
	return keyPrefix + op + ":" + p.Normalized().Key()
}

func cached[T any](
	ctx context.Context,
	c *StatsCache,
	op string,
	p statsdom.FilterParams,
	load func(context.Context, statsdom.FilterParams) (T, error),
) (T, error) {
	key := cacheKey(op, p)

	if statsdom.IsFreshRead(ctx) {
		metrics.StatsCacheLookups.WithLabelValues(op, "bypass").Inc()
	} else if v, ok := c.lookup(ctx, op, key); ok {
		var out T
		if err := json.Unmarshal(v, &out); err == nil {
			return out, nil
		}
		c.log.Warn("stats cache entry undecodable", zap.String("key", key))
	}

	out, err := load(ctx, p)
	if err != nil {
		return out, err
	}
	if b, err := json.Marshal(out); err == nil {
		if err := c.kv.Set(ctx, key, b, c.ttl).Err(); err != nil {
			c.log.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

func (c *StatsCache) lookup(ctx context.Context, op, key string) ([]byte, bool) {
	v, err := c.kv.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		metrics.StatsCacheLookups.WithLabelValues(op, "hit").Inc()
		return v, true
	case errors.Is(err, redis.Nil):
		metrics.StatsCacheLookups.WithLabelValues(op, "miss").Inc()
	default:
		metrics.StatsCacheLookups.WithLabelValues(op, "error").Inc()
		c.log.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
	}
	return nil, false
}
