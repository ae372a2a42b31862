package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2beens/trackfit/internal/workouts/stats"
)

func newParseSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-set <set> [set...]",
		Short: "Show how raw set strings are parsed into weight and reps",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range args {
				set := stats.ParseSet(raw)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%q -> weight=%g reps=%g volume=%g\n",
					raw, set.Weight, set.Reps, set.Volume())
			}
			return nil
		},
	}
}
