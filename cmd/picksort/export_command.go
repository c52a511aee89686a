package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"picksort/internal/app"
	"picksort/internal/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		outputDir       string
		scores          []string
		routes          []string
		captions        bool
		separateByScore bool
		deleteImages    bool
	)

	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Export a project's accepted images into an output tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("project id %q: %w", args[0], err)
			}
			if outputDir == "" {
				return fmt.Errorf("--out is required")
			}

			rules := []export.Rule{{Categories: nil, Destination: "."}}
			for _, route := range routes {
				rule, err := parseRoute(route)
				if err != nil {
					return err
				}
				rules = append(rules, rule)
			}

			return ctx.withApp(func(a *app.App) error {
				if err := a.OpenProject(cmd.Context(), projectID); err != nil {
					return err
				}

				accepted := scores
				if len(accepted) == 0 {
					labels := a.Config().ScoreLabels()
					accepted = labels[:]
				}

				req := a.NewExportRequest(outputDir, rules, accepted)
				if cmd.Flags().Changed("captions") {
					req.ExportCaptions = captions
				}
				if cmd.Flags().Changed("separate-by-score") {
					req.SeparateByScore = separateByScore
				}
				if cmd.Flags().Changed("delete-images") {
					req.DeleteImages = deleteImages
				}

				report, err := a.Export(cmd.Context(), req)
				if err != nil {
					return err
				}
				printReport(cmd, report)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "Output directory (wiped before copying)")
	cmd.Flags().StringArrayVar(&scores, "score", nil, "Accepted score label (repeatable; defaults to the full preset, discard excluded)")
	cmd.Flags().StringArrayVar(&routes, "route", nil, "Routing rule as categories:dest, e.g. sfw+portrait:sfw/portrait (repeatable)")
	cmd.Flags().BoolVar(&captions, "captions", true, "Write caption files next to exported images")
	cmd.Flags().BoolVar(&separateByScore, "separate-by-score", false, "Insert a score-label directory level")
	cmd.Flags().BoolVar(&deleteImages, "delete-images", false, "Remove source files after a successful copy")
	return cmd
}

// parseRoute decodes a categories:dest flag value. Categories are joined
// with +; later routes take precedence over earlier ones.
func parseRoute(value string) (export.Rule, error) {
	cats, dest, found := strings.Cut(value, ":")
	if !found || strings.TrimSpace(dest) == "" || strings.TrimSpace(cats) == "" {
		return export.Rule{}, fmt.Errorf("route %q: expected categories:dest", value)
	}
	var categories []string
	for _, name := range strings.Split(cats, "+") {
		name = strings.TrimSpace(name)
		if name == "" {
			return export.Rule{}, fmt.Errorf("route %q: empty category name", value)
		}
		categories = append(categories, name)
	}
	return export.Rule{Categories: categories, Destination: strings.TrimSpace(dest)}, nil
}

func printReport(cmd *cobra.Command, report *export.Report) {
	out := cmd.OutOrStdout()
	dirs := make([]string, 0, len(report.Dirs))
	for dir := range report.Dirs {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	total := 0
	for _, dir := range dirs {
		fmt.Fprintf(out, "%6d  %s\n", report.Dirs[dir], dir)
		total += report.Dirs[dir]
	}
	fmt.Fprintf(out, "Exported %d images (run %s)\n", total, report.RunID)
	if report.MissingSources > 0 {
		fmt.Fprintf(out, "Missing sources: %d\n", report.MissingSources)
	}
	if report.Failed > 0 {
		fmt.Fprintf(out, "Unrouted images: %d\n", report.Failed)
	}
}
