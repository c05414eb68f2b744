package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"turnstile/internal/runs"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Run history",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			recent, err := runs.NewStore(st.DB()).Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, recent)
			}

			rows := make([][]string, 0, len(recent))
			for _, r := range recent {
				rows = append(rows, []string{
					r.ID,
					formatStamp(r.StartedAt),
					formatStamp(r.FinishedAt),
					yesNo(r.DryRun),
					fmt.Sprintf("%d", r.FeedsTotal),
					fmt.Sprintf("%d", r.FeedsFailed),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"RUN", "STARTED", "FINISHED", "DRY RUN", "FEEDS", "FAILED"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight}))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run's per-feed outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			feedRuns, err := runs.NewStore(st.DB()).FeedRuns(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(feedRuns) == 0 {
				return fmt.Errorf("run %q has no recorded feeds", args[0])
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, feedRuns)
			}

			rows := make([][]string, 0, len(feedRuns))
			for _, fr := range feedRuns {
				rows = append(rows, []string{
					fr.Feed,
					fr.State,
					fmt.Sprintf("%d", fr.RecordsExtracted),
					fmt.Sprintf("%d", fr.RecordsLoaded),
					fmt.Sprintf("%d", fr.RecordsRejected),
					(time.Duration(fr.DurationMS) * time.Millisecond).String(),
					yesNo(fr.Degraded),
					fr.Error,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"FEED", "STATE", "EXTRACTED", "LOADED", "REJECTED", "DURATION", "DEGRADED", "ERROR"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft}))
			return nil
		},
	}
}

// formatStamp trims RFC3339Nano timestamps for table display.
func formatStamp(value string) string {
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.Format("2006-01-02 15:04:05")
	}
	return value
}
