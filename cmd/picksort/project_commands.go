package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"picksort/internal/app"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	projectCmd.AddCommand(newProjectListCommand(ctx))
	projectCmd.AddCommand(newProjectCreateCommand(ctx))
	projectCmd.AddCommand(newProjectShowCommand(ctx))

	return projectCmd
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				projects, err := a.Store().ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(projects) == 0 {
					fmt.Fprintln(out, "No projects yet; create one with `picksort project create`.")
					return nil
				}

				rows := make([][]string, 0, len(projects))
				for _, project := range projects {
					images, err := a.Store().ImageCount(cmd.Context(), project.ID)
					if err != nil {
						return err
					}
					scored, err := a.Store().ScoredCount(cmd.Context(), project.ID)
					if err != nil {
						return err
					}
					rows = append(rows, []string{
						strconv.FormatInt(project.ID, 10),
						project.Name,
						strconv.Itoa(images),
						strconv.Itoa(scored),
						project.UpdatedAt.Format("2006-01-02 15:04"),
					})
				}

				headers := []string{"ID", "Name", "Images", "Scored", "Updated"}
				if !isTerminal(out) {
					for _, row := range rows {
						fmt.Fprintln(out, strings.Join(row, "\t"))
					}
					return nil
				}
				aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	var directories []string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project and scan its directory roots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(directories) == 0 {
				return fmt.Errorf("at least one --dir is required")
			}
			return ctx.withApp(func(a *app.App) error {
				proj, err := a.CreateProject(cmd.Context(), args[0], directories)
				if err != nil {
					return err
				}
				_, total := proj.Cursor.Progress()
				fmt.Fprintf(cmd.OutOrStdout(), "Created project %d (%s) with %d images\n", proj.ID, proj.Name, total)
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&directories, "dir", nil, "Directory root to scan for images (repeatable)")
	return cmd
}

func newProjectShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project's groups and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("project id %q: %w", args[0], err)
			}
			return ctx.withApp(func(a *app.App) error {
				if err := a.OpenProject(cmd.Context(), projectID); err != nil {
					return err
				}
				proj := a.Project()
				scored, err := a.Store().ScoredCount(cmd.Context(), proj.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				_, total := proj.Cursor.Progress()
				fmt.Fprintf(out, "Project %d: %s\n", proj.ID, proj.Name)
				fmt.Fprintf(out, "Directories: %s\n", strings.Join(proj.Directories, ", "))
				fmt.Fprintf(out, "Images: %d (%d scored)\n", total, scored)

				if len(proj.Groups) == 0 {
					fmt.Fprintln(out, "No tag groups defined.")
					return nil
				}
				rows := make([][]string, 0, len(proj.Groups))
				for _, group := range proj.Groups {
					rows = append(rows, []string{
						strconv.Itoa(group.DisplayOrder),
						group.Name,
						yesNo(group.IsRequired),
						yesNo(group.AllowMultiple),
						strconv.Itoa(group.MinTags),
						strconv.Itoa(len(group.Tags)),
						group.Condition,
					})
				}
				headers := []string{"Order", "Group", "Required", "Multi", "Min", "Tags", "Condition"}
				aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}
}
