package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glowscan/skincare-admin/internal/database"
)

// NewMigrateCmd builds the "migrate" command group.
func NewMigrateCmd(envFn func() (*Env, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	withMigrator := func(fn func(*database.Migrator, *cobra.Command) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			mc, err := env.mysql()
			if err != nil {
				return err
			}
			mg, err := database.NewMigrator(mc, env.Logger.Named("migrate"))
			if err != nil {
				return err
			}
			defer mg.Close()
			return fn(mg, cmd)
		}
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(mg *database.Migrator, _ *cobra.Command) error {
			return mg.Up()
		}),
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long:  "Roll back migrations. Rolling back the initial schema drops the recommendations and admin tables with their data; users and skin_analysis are kept.",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(mg *database.Migrator, _ *cobra.Command) error {
			return mg.Down(steps)
		}),
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(mg *database.Migrator, cmd *cobra.Command) error {
			v, dirty, err := mg.Version()
			if err != nil {
				return err
			}
			if dirty {
				fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", v)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", v)
			return nil
		}),
	}

	cmd.AddCommand(up, down, version)
	return cmd
}
