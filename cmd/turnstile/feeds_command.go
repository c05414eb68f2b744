package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"turnstile/internal/feeds"
)

func newFeedsCommand(ctx *commandContext) *cobra.Command {
	feedsCmd := &cobra.Command{
		Use:   "feeds",
		Short: "Feed catalog utilities",
	}
	feedsCmd.AddCommand(newFeedsListCommand(ctx))
	return feedsCmd
}

func newFeedsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalog, err := feeds.Load(cfg.Paths.FeedsFile)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, catalog.Feeds)
			}

			rows := make([][]string, 0, len(catalog.Feeds))
			for _, d := range catalog.Feeds {
				rows = append(rows, []string{
					d.Name, d.Type, d.Source, yesNo(d.IsEnabled()), d.Schedule,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"NAME", "TYPE", "SOURCE", "ENABLED", "SCHEDULE"},
				rows, nil))
			return nil
		},
	}
}
