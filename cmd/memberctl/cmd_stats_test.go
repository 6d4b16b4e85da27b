package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appstats "github.com/Argy1/pdpi-member-sub002/internal/application/stats"
	statsdom "github.com/Argy1/pdpi-member-sub002/internal/domain/stats"
)

func TestPrintState(t *testing.T) {
	var buf bytes.Buffer
	printState(&buf, appstats.State{
		Summary: statsdom.Summary{Total: 3, Male: 2, Female: 1, Active: 3},
		RegionStats: []statsdom.RegionStat{
			{Province: "DKI Jakarta", Count: 2},
			{Province: "Bali", Count: 1},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "total=3 male=2 female=1 active=3 inactive=0\n")
	assert.Contains(t, out, "PROVINCE")
	assert.Regexp(t, `DKI Jakarta\s+2`, out)
	assert.Regexp(t, `Bali\s+1`, out)
}

func TestPrintState_ErrorKeepsLastValues(t *testing.T) {
	var buf bytes.Buffer
	printState(&buf, appstats.State{
		Summary: statsdom.Summary{Total: 1},
		Err:     "failed to load statistics",
	})
	assert.Equal(t, "error: failed to load statistics\ntotal=1 male=0 female=0 active=0 inactive=0\n", buf.String())
}

func TestRootCmd_Wiring(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["stats"])
	assert.True(t, names["set-role"])
	assert.True(t, names["normalize-provinces"])

	stats, _, err := root.Find([]string{"stats"})
	require.NoError(t, err)
	require.NotNil(t, stats.Flags().Lookup("province"))
	require.NotNil(t, stats.Flags().Lookup("watch"))
	require.NotNil(t, stats.Flags().Lookup("interval"))

	setRole, _, err := root.Find([]string{"set-role"})
	require.NoError(t, err)
	assert.Error(t, setRole.Args(setRole, []string{"only-one"}))
}

// countingSource reports one more member on every summary call.
type countingSource struct{ calls atomic.Int64 }

func (s *countingSource) Summary(context.Context, statsdom.FilterParams) (statsdom.Summary, error) {
	n := int(s.calls.Add(1))
	return statsdom.Summary{Total: n, Active: n}, nil
}

func (s *countingSource) RegionStats(context.Context, statsdom.FilterParams) ([]statsdom.RegionStat, error) {
	return nil, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchStats_RefreshesOnInterval(t *testing.T) {
	src := &countingSource{}
	agg := appstats.New(src, statsdom.FilterParams{})
	defer agg.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- watchStats(ctx, agg, &out, 10*time.Millisecond) }()

	require.Eventually(t, func() bool {
		return strings.Count(out.String(), "total=") >= 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, src.calls.Load(), int64(2))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watchStats did not return after cancel")
	}
}

func TestWatchStats_RejectsNonPositiveInterval(t *testing.T) {
	agg := appstats.New(&countingSource{}, statsdom.FilterParams{})
	defer agg.Close()
	assert.Error(t, watchStats(context.Background(), agg, &bytes.Buffer{}, 0))
}
