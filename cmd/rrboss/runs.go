package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ebosslab/rrboss/internal/results"
)

func newRunsCmd() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the runs recorded in a zbest catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := results.OpenCatalog(catalogPath)
			if err != nil {
				return err
			}
			defer cat.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			runs, err := cat.ListRuns(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "no runs recorded")
				return nil
			}

			for _, run := range runs {
				fmt.Fprintf(out, "%s  %s  rrboss %s  %d template types\n",
					run.ID,
					run.CreatedAt.Format(time.RFC3339),
					run.ToolVersion,
					len(run.TemplateVersions),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "zbest", "", "Path to the zbest catalog")
	cmd.MarkFlagRequired("zbest") //nolint:errcheck

	return cmd
}
