// cmd/memberctl/commands.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appcfg "github.com/Argy1/pdpi-member-sub002/internal/infra/config"
	"github.com/Argy1/pdpi-member-sub002/internal/infra/logging"
	"github.com/Argy1/pdpi-member-sub002/internal/platform/di"
)

// app is built lazily by commands that talk to the member store.
type app struct {
	cfg *appcfg.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "memberctl",
		Short:        "Operate the PDPI member directory from the command line",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.cfg = appcfg.Load()
			a.log = logging.Must(a.cfg.LogLevel, a.cfg.LogFormat)
		},
	}
	root.AddCommand(
		newStatsCmd(a),
		newSetRoleCmd(a),
		newNormalizeProvincesCmd(a),
	)
	return root
}

// withContainer runs fn with a container that is closed afterwards. The
// context is cancelled on SIGINT or SIGTERM.
func (a *app) withContainer(fn func(ctx context.Context, c *di.Container) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := di.NewContainer(ctx, a.cfg, a.log)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer c.Close()
	return fn(ctx, c)
}
