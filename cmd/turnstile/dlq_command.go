package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"turnstile/internal/dlq"
)

func newDLQCommand(ctx *commandContext) *cobra.Command {
	dlqCmd := &cobra.Command{
		Use:   "dlq",
		Short: "Dead-letter queue inspection",
	}
	dlqCmd.AddCommand(newDLQListCommand(ctx))
	dlqCmd.AddCommand(newDLQShowCommand(ctx))
	return dlqCmd
}

func newDLQListCommand(ctx *commandContext) *cobra.Command {
	var runID string
	var feed string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rejected records for a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return fmt.Errorf("pass --run with the run id (see `turnstile runs list`)")
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := dlq.NewStore(st.DB()).List(cmd.Context(), runID, feed, limit)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, entries)
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					e.Feed,
					e.Table,
					strconv.Itoa(e.Row),
					e.Rule,
					e.Message,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "FEED", "TABLE", "ROW", "RULE", "MESSAGE"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}))
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Run id to list entries for")
	cmd.Flags().StringVar(&feed, "feed", "", "Restrict to one feed")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of entries to show")
	return cmd
}

func newDLQShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <entry-id>",
		Short: "Show one rejected record, including its original payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("entry id %q is not numeric", args[0])
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			entry, err := dlq.NewStore(st.DB()).Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, entry)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Entry:   %d\n", entry.ID)
			fmt.Fprintf(out, "Run:     %s\n", entry.RunID)
			fmt.Fprintf(out, "Feed:    %s\n", entry.Feed)
			fmt.Fprintf(out, "Table:   %s (row %d)\n", entry.Table, entry.Row)
			fmt.Fprintf(out, "Rule:    %s\n", entry.Rule)
			fmt.Fprintf(out, "Message: %s\n", entry.Message)
			fmt.Fprintf(out, "At:      %s\n", entry.CreatedAt)
			if len(entry.Payload) > 0 {
				fmt.Fprintf(out, "Payload:\n%s\n", entry.Payload)
			}
			return nil
		},
	}
}
