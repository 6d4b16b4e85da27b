// cmd/memberctl/cmd_stats.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	appstats "github.com/Argy1/pdpi-member-sub002/internal/application/stats"
	statsdom "github.com/Argy1/pdpi-member-sub002/internal/domain/stats"
	"github.com/Argy1/pdpi-member-sub002/internal/platform/di"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		p        statsdom.FilterParams
		watch    bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print membership summary and per-province counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(func(ctx context.Context, c *di.Container) error {
				agg, err := c.StatsUC.NewAggregator(ctx, p)
				if err != nil {
					return err
				}
				defer agg.Close()
				out := cmd.OutOrStdout()

				if watch {
					return watchStats(ctx, agg, out, interval)
				}
				if err := agg.Wait(ctx); err != nil {
					return err
				}
				s := agg.State()
				printState(out, s)
				if err := agg.Err(); err != nil {
					return err
				}
				if s.Err != "" {
					return errors.New(s.Err)
				}
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&p.Query, "query", "q", "", "free-text search over name, NPA and email")
	f.StringVar(&p.Province, "province", "", "province filter")
	f.StringVar(&p.Branch, "branch", "", "branch filter")
	f.StringVar(&p.City, "city", "", "city filter")
	f.StringVar(&p.Status, "status", "", "status filter (active|inactive)")
	f.StringVar(&p.Gender, "gender", "", "gender filter (L|P)")
	f.BoolVarP(&watch, "watch", "w", false, "keep running and print every new state")
	f.DurationVar(&interval, "interval", 30*time.Second, "refresh period while watching")
	return cmd
}

// watchStats prints every settled state and refreshes the aggregator on each
// tick until ctx is done.
func watchStats(ctx context.Context, agg *appstats.Aggregator, out io.Writer, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}
	states, unsubscribe := agg.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			agg.Refresh()
		case s, ok := <-states:
			if !ok {
				return nil
			}
			if !s.Loading {
				printState(out, s)
			}
		}
	}
}

func printState(w io.Writer, s appstats.State) {
	if s.Err != "" {
		fmt.Fprintf(w, "error: %s\n", s.Err)
	}
	sm := s.Summary
	fmt.Fprintf(w, "total=%d male=%d female=%d active=%d inactive=%d\n",
		sm.Total, sm.Male, sm.Female, sm.Active, sm.Inactive)

	if len(s.RegionStats) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVINCE\tCOUNT")
	for _, r := range s.RegionStats {
		fmt.Fprintf(tw, "%s\t%d\n", r.Province, r.Count)
	}
	_ = tw.Flush()
}
