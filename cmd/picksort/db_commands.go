package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"picksort/internal/app"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}

	dbCmd.AddCommand(newDBVersionCommand(ctx))
	dbCmd.AddCommand(newDBDowngradeCommand(ctx))

	return dbCmd
}

func newDBVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				version, err := a.Store().SchemaVersion(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schema version %d\n", version)
				return nil
			})
		},
	}
}

func newDBDowngradeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "downgrade <target-version>",
		Short: "Run down migrations until the schema is at the target version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("target version %q: %w", args[0], err)
			}
			return ctx.withApp(func(a *app.App) error {
				if err := a.Store().Downgrade(cmd.Context(), target); err != nil {
					return err
				}
				version, err := a.Store().SchemaVersion(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schema version now %d\n", version)
				return nil
			})
		},
	}
}
