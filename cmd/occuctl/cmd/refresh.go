package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"anzsco-lookup/internal/app"
	"anzsco-lookup/internal/usecase"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(refreshCmd)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetches every source, merges the records and stores the new dataset.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			res, err := c.Dataset.Refresh(ctx)
			if err != nil {
				return fmt.Errorf("refresh: %w", err)
			}
			renderRefresh(cmd.OutOrStdout(), res)
			return nil
		})
	},
}

func renderRefresh(w io.Writer, res usecase.RefreshResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Dataset refresh")
	t.AppendHeader(table.Row{"Source", "Records", "Error"})

	names := make([]string, 0, len(res.Source.SourceCounts))
	for name := range res.Source.SourceCounts {
		names = append(names, name)
	}
	for name := range res.Source.Errors {
		if _, ok := res.Source.SourceCounts[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		t.AppendRow(table.Row{name, res.Source.SourceCounts[name], res.Source.Errors[name]})
	}

	t.AppendFooter(table.Row{"primary: " + res.Source.Primary, res.Summary.Total, fmt.Sprintf("avg quality %d", res.Summary.AverageScore)})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
