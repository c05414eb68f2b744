package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProcessorsCommand(ctx *commandContext) *cobra.Command {
	processorsCmd := &cobra.Command{
		Use:   "processors",
		Short: "Format processor utilities",
	}
	processorsCmd.AddCommand(&cobra.Command{
		Use:         "list",
		Short:       "List registered format processors",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := newRegistry().Formats()
			if ctx.jsonOutput() {
				return writeJSON(cmd, formats)
			}
			for _, f := range formats {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	})
	return processorsCmd
}
