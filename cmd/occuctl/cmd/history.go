package cmd

import (
	"context"
	"fmt"

	"anzsco-lookup/internal/app"

	"github.com/spf13/cobra"
)

var (
	historyClient string
	historyClear  bool
)

func init() {
	historyCmd.Flags().StringVar(&historyClient, "client", "", "client id whose history to show")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete the client's history")
	_ = historyCmd.MarkFlagRequired("client")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Shows or clears the recent searches of a client.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			if historyClear {
				return c.History.Clear(ctx, historyClient)
			}
			items, err := c.History.List(ctx, historyClient)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no history")
				return nil
			}
			for i, k := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, k)
			}
			return nil
		})
	},
}
