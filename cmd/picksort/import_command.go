package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"picksort/internal/app"
)

func newImportLegacyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import-legacy <name> <legacy-db>",
		Short: "Import a legacy score database as a new project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				proj, err := a.ImportLegacy(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				scored, err := a.Store().ScoredCount(cmd.Context(), proj.ID)
				if err != nil {
					return err
				}
				_, total := proj.Cursor.Progress()
				fmt.Fprintf(cmd.OutOrStdout(), "Imported project %d (%s): %d images, %d scored\n",
					proj.ID, proj.Name, total, scored)
				return nil
			})
		},
	}
}
