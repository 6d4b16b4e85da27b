// cmd/memberctl/cmd_members.go
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
	"github.com/Argy1/pdpi-member-sub002/internal/domain/role"
	"github.com/Argy1/pdpi-member-sub002/internal/platform/di"
)

func newSetRoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <member-id> <role>",
		Short: "Assign admin_pusat, admin_cabang or anggota to a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := role.Parse(args[1])
			if err != nil {
				return err
			}
			return a.withContainer(func(ctx context.Context, c *di.Container) error {
				m, err := c.MemberUC.SetRole(ctx, args[0], r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n",
					memdom.FormatDisplayName(m.FullName, m.NPA), m.Role)
				return nil
			})
		},
	}
}

func newNormalizeProvincesCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "normalize-provinces",
		Short: "Rewrite member provinces to their canonical names (runs once)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(func(ctx context.Context, c *di.Container) error {
				res, err := c.MigrationUC.NormalizeProvinces(ctx, dryRun)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if res.AlreadyApplied {
					fmt.Fprintf(out, "%s already applied\n", res.Name)
					return nil
				}
				fmt.Fprintf(out, "%s: scanned=%d changed=%d dryRun=%t\n",
					res.Name, res.Scanned, res.Changed, res.DryRun)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing them")
	return cmd
}
