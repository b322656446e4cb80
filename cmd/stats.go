package main

import (
	"github.com/spf13/cobra"
)

var statsHours int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show enrichment metrics over a lookback window",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		snap, err := env.Collector.Collect(cmd.Context(), statsHours)
		if err != nil {
			return err
		}
		return printJSON(snap)
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsHours, "hours", 24, "lookback window in hours")
	rootCmd.AddCommand(statsCmd)
}
