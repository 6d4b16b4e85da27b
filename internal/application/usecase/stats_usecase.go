package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	appstats "github.com/Argy1/pdpi-member-sub002/internal/application/stats"
	statsdom "github.com/Argy1/pdpi-member-sub002/internal/domain/stats"
)

type StatsUsecase struct {
	src     statsdom.Source
	log     *zap.Logger
	timeout time.Duration
}

func NewStatsUsecase(src statsdom.Source, log *zap.Logger, timeout time.Duration) *StatsUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &StatsUsecase{src: src, log: log, timeout: timeout}
}

// Scope normalises p and pins a branch admin to their branch.
func (u *StatsUsecase) Scope(ctx context.Context, p statsdom.FilterParams) (statsdom.FilterParams, error) {
	p = p.Normalized()
	b, err := scopedBranch(ctx)
	if err != nil {
		return statsdom.FilterParams{}, err
	}
	if b != "" {
		p.Branch = b
	}
	return p, nil
}

func (u *StatsUsecase) Summary(ctx context.Context, p statsdom.FilterParams, fresh bool) (statsdom.Summary, error) {
	p, err := u.Scope(ctx, p)
	if err != nil {
		return statsdom.Summary{}, err
	}
	ctx, cancel := u.bound(ctx, fresh)
	defer cancel()
	return u.src.Summary(ctx, p)
}

func (u *StatsUsecase) RegionStats(ctx context.Context, p statsdom.FilterParams, fresh bool) ([]statsdom.RegionStat, error) {
	p, err := u.Scope(ctx, p)
	if err != nil {
		return nil, err
	}
	ctx, cancel := u.bound(ctx, fresh)
	defer cancel()
	return u.src.RegionStats(ctx, p)
}

// Snapshot runs one aggregator cycle for p and returns its settled state, so
// summary and region stats always come from the same params.
func (u *StatsUsecase) Snapshot(ctx context.Context, p statsdom.FilterParams, fresh bool) (appstats.State, error) {
	p, err := u.Scope(ctx, p)
	if err != nil {
		return appstats.State{}, err
	}
	ctx, cancel := u.bound(ctx, fresh)
	defer cancel()

	agg := appstats.New(u.src, p, appstats.WithLogger(u.log), appstats.WithContext(ctx))
	defer agg.Close()
	if err := agg.Wait(ctx); err != nil {
		return appstats.State{Params: p}, err
	}
	return agg.State(), agg.Err()
}

// NewAggregator starts a long-lived aggregator for one dashboard session. The
// aggregator's cycles end with ctx.
func (u *StatsUsecase) NewAggregator(ctx context.Context, p statsdom.FilterParams) (*appstats.Aggregator, error) {
	p, err := u.Scope(ctx, p)
	if err != nil {
		return nil, err
	}
	return appstats.New(u.src, p,
		appstats.WithLogger(u.log),
		appstats.WithTimeout(u.timeout),
		appstats.WithContext(ctx),
	), nil
}

func (u *StatsUsecase) bound(ctx context.Context, fresh bool) (context.Context, context.CancelFunc) {
	if fresh {
		ctx = statsdom.WithFreshRead(ctx)
	}
	if u.timeout > 0 {
		return context.WithTimeout(ctx, u.timeout)
	}
	return context.WithCancel(ctx)
}
