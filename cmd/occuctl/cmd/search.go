package cmd

import (
	"context"
	"io"
	"strings"

	"anzsco-lookup/internal/app"
	"anzsco-lookup/internal/search"
	"anzsco-lookup/internal/usecase"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	searchLimit  int
	searchClient string
)

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum number of results")
	searchCmd.Flags().StringVar(&searchClient, "client", "", "record the query in this client's history")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Searches occupations by code, title, category or description.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := search.DefaultOptions()
		opts.MaxResults = searchLimit

		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			out, err := c.Search.Search(ctx, usecase.SearchInput{
				Query:    strings.Join(args, " "),
				ClientID: searchClient,
				Options:  opts,
			})
			if err != nil {
				return err
			}
			renderResults(cmd.OutOrStdout(), out.Response)
			return nil
		})
	},
}

func renderResults(w io.Writer, resp search.Response) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Code", "Occupation", "Category", "Lists", "Score", "Match"})
	for _, r := range resp.Results {
		t.AppendRow(table.Row{
			r.AnzscoCode,
			r.EnglishName,
			r.Category,
			strings.Join(r.Lists(), ","),
			r.DisplayScore,
			r.DisplayInfo.MatchTypeText,
		})
	}
	footer := "no more results"
	if resp.Metadata.HasMoreResults {
		footer = "more results available"
	}
	t.AppendFooter(table.Row{"", "", "", "", resp.Metadata.TotalReturned, footer})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
