package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "statsctl",
		Short:        "Compute workout statistics from an entries export",
		SilenceUsage: true,
	}
	root.AddCommand(newSummaryCmd())
	root.AddCommand(newParseSetCmd())
	return root
}
