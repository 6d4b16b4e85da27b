package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	statsdom "github.com/Argy1/pdpi-member-sub002/internal/domain/stats"
	"github.com/Argy1/pdpi-member-sub002/internal/infra/metrics"
)

type memKV struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	setKeys []string
}

func newMemKV() *memKV {
	return &memKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (k *memKV) Get(_ context.Context, key string) *redis.StringCmd {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.getErr != nil {
		return redis.NewStringResult("", k.getErr)
	}
	v, ok := k.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (k *memKV) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.setKeys = append(k.setKeys, key)
	if k.setErr != nil {
		return redis.NewStatusResult("", k.setErr)
	}
	switch v := value.(type) {
	case []byte:
		k.data[key] = string(v)
	case string:
		k.data[key] = v
	}
	k.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

type countingSource struct {
	mu      sync.Mutex
	summary statsdom.Summary
	regions []statsdom.RegionStat
	err     error
	calls   int
}

func (s *countingSource) Summary(context.Context, statsdom.FilterParams) (statsdom.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.summary, s.err
}

func (s *countingSource) RegionStats(context.Context, statsdom.FilterParams) ([]statsdom.RegionStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.regions, s.err
}

func lookups(op, result string) float64 {
	return testutil.ToFloat64(metrics.StatsCacheLookups.WithLabelValues(op, result))
}

func TestStatsCache_ReadThrough(t *testing.T) {
	src := &countingSource{summary: statsdom.Summary{Total: 3, Male: 1, Female: 2, Active: 3}}
	kv := newMemKV()
	c := NewStatsCache(src, kv, time.Minute, nil)
	ctx := context.Background()
	p := statsdom.FilterParams{Province: "jabar"}

	hits := lookups(statsdom.OpSummary, "hit")

	got, err := c.Summary(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, src.summary, got)
	assert.Equal(t, 1, src.calls)

	got, err = c.Summary(ctx, statsdom.FilterParams{Province: "Jawa Barat"})
	require.NoError(t, err)
	assert.Equal(t, src.summary, got)
	assert.Equal(t, 1, src.calls, "equivalent params share one entry")
	assert.Equal(t, hits+1, lookups(statsdom.OpSummary, "hit"))

	key := cacheKey(statsdom.OpSummary, p)
	assert.Equal(t, time.Minute, kv.ttls[key])
}

func TestStatsCache_FreshReadOverwrites(t *testing.T) {
	src := &countingSource{regions: []statsdom.RegionStat{{Province: "Bali", Count: 2}}}
	kv := newMemKV()
	c := NewStatsCache(src, kv, 0, nil)
	ctx := context.Background()

	_, err := c.RegionStats(ctx, statsdom.FilterParams{})
	require.NoError(t, err)

	src.regions = []statsdom.RegionStat{{Province: "Bali", Count: 5}}
	got, err := c.RegionStats(statsdom.WithFreshRead(ctx), statsdom.FilterParams{})
	require.NoError(t, err)
	assert.Equal(t, 5, got[0].Count)
	assert.Equal(t, 2, src.calls)

	got, err = c.RegionStats(ctx, statsdom.FilterParams{})
	require.NoError(t, err)
	assert.Equal(t, 5, got[0].Count, "fresh read replaced the cached entry")
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, DefaultTTL, kv.ttls[cacheKey(statsdom.OpRegions, statsdom.FilterParams{})])
}

func TestStatsCache_CacheFailuresFallThrough(t *testing.T) {
	src := &countingSource{summary: statsdom.Summary{Total: 1}}
	kv := newMemKV()
	kv.getErr = errors.New("connection refused")
	kv.setErr = errors.New("connection refused")
	c := NewStatsCache(src, kv, time.Minute, nil)

	got, err := c.Summary(context.Background(), statsdom.FilterParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Total)
	assert.Len(t, kv.setKeys, 1)
}

func TestStatsCache_SourceErrorNotCached(t *testing.T) {
	remote := &statsdom.RemoteError{Op: statsdom.OpRegions, Err: errors.New("timeout")}
	src := &countingSource{err: remote}
	kv := newMemKV()
	c := NewStatsCache(src, kv, time.Minute, nil)

	_, err := c.RegionStats(context.Background(), statsdom.FilterParams{})
	var re *statsdom.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Empty(t, kv.setKeys)
}

func TestStatsCache_EmptyRegionsStayNonNil(t *testing.T) {
	src := &countingSource{}
	c := NewStatsCache(src, newMemKV(), time.Minute, nil)

	got, err := c.RegionStats(context.Background(), statsdom.FilterParams{})
	require.NoError(t, err)
	assert.NotNil(t, got)

	got, err = c.RegionStats(context.Background(), statsdom.FilterParams{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
