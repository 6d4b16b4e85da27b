// Package stats orchestrates the statistics views: two concurrent queries per
// fetch cycle, joined and applied as one state transition, with superseded
// cycles discarded by generation.
package stats

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	statsdom "github.com/Argy1/pdpi-member-sub002/internal/domain/stats"
	"github.com/Argy1/pdpi-member-sub002/internal/infra/metrics"
)

// FallbackError is shown when a failure carries no message.
const FallbackError = "failed to load statistics"

// State is one observable snapshot of an Aggregator.
type State struct {
	Params       statsdom.FilterParams `json:"params"`
	Summary      statsdom.Summary      `json:"summary"`
	RegionStats  []statsdom.RegionStat `json:"regionStats"`
	Loading      bool                  `json:"loading"`
	Err          string                `json:"error,omitempty"`
	Generation   uint64                `json:"generation"`
	RefreshToken uint64                `json:"refreshToken"`
}

func (s State) clone() State {
	if s.RegionStats != nil {
		s.RegionStats = append([]statsdom.RegionStat(nil), s.RegionStats...)
	}
	return s
}

// Option configures an Aggregator.
type Option func(*Aggregator)

func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

// WithTimeout bounds each cycle. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.timeout = d }
}

// WithContext ties every cycle to parent; cancelling parent fails in-flight cycles.
func WithContext(parent context.Context) Option {
	return func(a *Aggregator) {
		if parent != nil {
			a.parent = parent
		}
	}
}

// Aggregator owns the statistics state of one consumer (a dashboard session,
// a CLI run). All state mutations happen under mu; a cycle's result is applied
// only if its generation is still the latest when it resolves.
type Aggregator struct {
	src     statsdom.Source
	log     *zap.Logger
	timeout time.Duration
	parent  context.Context

	mu      sync.Mutex
	state   State
	cancel  context.CancelFunc // in-flight cycle
	idle    chan struct{}      // closed while no cycle is loading
	subs    map[int]chan State
	nextSub int
	closed  bool
	lastErr error // error of the last applied cycle

	wg sync.WaitGroup
}

// New creates the aggregator and starts the first cycle for params.
func New(src statsdom.Source, params statsdom.FilterParams, opts ...Option) *Aggregator {
	a := &Aggregator{
		src:    src,
		log:    zap.NewNop(),
		parent: context.Background(),
		idle:   make(chan struct{}),
		subs:   make(map[int]chan State),
	}
	close(a.idle)
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.Named("stats")

	a.mu.Lock()
	a.state.Params = params.Normalized()
	a.startLocked(false)
	a.mu.Unlock()
	return a
}

// SetParams starts a cycle when p differs from the current params in any field.
func (a *Aggregator) SetParams(p statsdom.FilterParams) {
	p = p.Normalized()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || p == a.state.Params {
		return
	}
	a.state.Params = p
	a.startLocked(false)
}

// Refresh bumps the refresh token and always starts a cycle, bypassing caches.
func (a *Aggregator) Refresh() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.state.RefreshToken++
	a.startLocked(true)
}

// State returns the current snapshot.
func (a *Aggregator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.clone()
}

// Err returns the error of the last applied cycle, nil after a success or
// while a cycle is loading.
func (a *Aggregator) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Subscribe returns a channel that receives every published snapshot. The
// channel holds at most one pending snapshot: a slow reader skips intermediate
// states but always sees the latest. The returned func unsubscribes.
func (a *Aggregator) Subscribe() (<-chan State, func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ch := make(chan State, 1)
	if a.closed {
		close(ch)
		return ch, func() {}
	}
	id := a.nextSub
	a.nextSub++
	a.subs[id] = ch
	ch <- a.state.clone()

	return ch, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if c, ok := a.subs[id]; ok {
			delete(a.subs, id)
			close(c)
		}
	}
}

// Wait blocks until no cycle is loading, the aggregator is closed, or ctx ends.
func (a *Aggregator) Wait(ctx context.Context) error {
	a.mu.Lock()
	idle := a.idle
	a.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels the in-flight cycle, closes subscriber channels and waits for
// cycle goroutines to exit.
func (a *Aggregator) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.state.Loading {
		close(a.idle)
	}
	for id, ch := range a.subs {
		delete(a.subs, id)
		close(ch)
	}
	a.mu.Unlock()

	a.wg.Wait()
}

// startLocked begins a new cycle. Prior Summary/RegionStats stay visible until
// the cycle resolves.
func (a *Aggregator) startLocked(fresh bool) {
	a.state.Generation++
	gen := a.state.Generation
	params := a.state.Params

	if a.cancel != nil {
		a.cancel()
	}
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if a.timeout > 0 {
		ctx, cancel = context.WithTimeout(a.parent, a.timeout)
	} else {
		ctx, cancel = context.WithCancel(a.parent)
	}
	if fresh {
		ctx = statsdom.WithFreshRead(ctx)
	}
	a.cancel = cancel

	if !a.state.Loading {
		a.idle = make(chan struct{})
	}
	a.state.Loading = true
	a.state.Err = ""
	a.lastErr = nil
	a.publishLocked()

	a.log.Debug("cycle started",
		zap.Uint64("generation", gen),
		zap.Uint64("refresh_token", a.state.RefreshToken),
		zap.String("params", params.Key()),
	)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer cancel()
		start := time.Now()
		summary, regions, err := Fetch(ctx, a.src, params)
		metrics.StatsCycleDuration.Observe(time.Since(start).Seconds())
		a.resolve(gen, summary, regions, err)
	}()
}

func (a *Aggregator) resolve(gen uint64, summary statsdom.Summary, regions []statsdom.RegionStat, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || gen != a.state.Generation {
		metrics.StatsCycles.WithLabelValues(metrics.OutcomeDiscarded).Inc()
		a.log.Debug("stale cycle discarded",
			zap.Uint64("generation", gen),
			zap.Uint64("latest", a.state.Generation),
		)
		return
	}
	a.cancel = nil

	a.lastErr = err
	if err != nil {
		a.state.Err = ErrorMessage(err)
		metrics.StatsCycles.WithLabelValues(metrics.OutcomeFailed).Inc()
		a.log.Warn("cycle failed", zap.Uint64("generation", gen), zap.Error(err))
	} else {
		a.state.Summary = summary
		a.state.RegionStats = regions
		metrics.StatsCycles.WithLabelValues(metrics.OutcomeApplied).Inc()
	}
	a.state.Loading = false
	close(a.idle)
	a.publishLocked()
}

func (a *Aggregator) publishLocked() {
	if len(a.subs) == 0 {
		return
	}
	snap := a.state.clone()
	for _, ch := range a.subs {
		// drop the unread snapshot, if any; only this goroutine sends, under mu
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Fetch issues both queries concurrently and returns only after both settled.
// On error neither result is returned.
func Fetch(ctx context.Context, src statsdom.Source, p statsdom.FilterParams) (statsdom.Summary, []statsdom.RegionStat, error) {
	var (
		summary statsdom.Summary
		regions []statsdom.RegionStat
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := src.Summary(gctx, p)
		if err != nil {
			return asRemote(statsdom.OpSummary, err)
		}
		summary = s
		return nil
	})
	g.Go(func() error {
		r, err := src.RegionStats(gctx, p)
		if err != nil {
			return asRemote(statsdom.OpRegions, err)
		}
		regions = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return statsdom.Summary{}, nil, err
	}
	if regions == nil {
		regions = []statsdom.RegionStat{}
	}
	return summary, regions, nil
}

func asRemote(op string, err error) error {
	var re *statsdom.RemoteError
	if errors.As(err, &re) {
		return err
	}
	return &statsdom.RemoteError{Op: op, Err: err}
}

// ErrorMessage is the user-visible text for a failed cycle.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var re *statsdom.RemoteError
	if errors.As(err, &re) && re.Err != nil {
		err = re.Err
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return FallbackError
}
