package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/lead-enrich-cli/internal/model"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show provider status, capabilities and remaining budgets",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		fmt.Printf("%-10s %-8s %-7s %-12s %-10s %-9s %s\n",
			"PROVIDER", "PRIORITY", "ACTIVE", "RATELIMITED", "REMAINING", "COST/REQ", "CAPABILITIES")

		for _, p := range env.Registry.All() {
			var caps []string
			for _, t := range model.AllEnrichmentTypes() {
				if p.Supports(t) {
					caps = append(caps, string(t))
				}
			}

			remaining := "unlimited"
			if r := p.RemainingRequests(); r >= 0 {
				remaining = fmt.Sprintf("%d", r)
			}

			fmt.Printf("%-10s %-8d %-7t %-12t %-10s $%-8.3f %s\n",
				p.Name(), p.Priority(), p.IsActive(), p.IsRateLimited(),
				remaining, p.CostEstimate(), strings.Join(caps, ","))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
