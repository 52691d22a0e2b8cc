package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]string{"version": version})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "score-lookup", version)
			return nil
		},
	}
}
