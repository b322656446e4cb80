package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-enrich-cli/internal/model"
)

var enrichTypes []string

var enrichCmd = &cobra.Command{
	Use:   "enrich <lead-id>",
	Short: "Run the provider cascade for a single lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		types, err := parseEnrichmentTypes(enrichTypes)
		if err != nil {
			return err
		}

		result, err := env.Orchestrator.EnrichLead(cmd.Context(), args[0], types)
		if err != nil {
			return err
		}

		return printJSON(result)
	},
}

// parseEnrichmentTypes validates the --types flag values.
func parseEnrichmentTypes(raw []string) ([]model.EnrichmentType, error) {
	var types []model.EnrichmentType
	for _, r := range raw {
		t := model.EnrichmentType(r)
		switch t {
		case model.TypeEmailValidation, model.TypeCompanyEnrichment, model.TypePersonEnrichment:
			types = append(types, t)
		default:
			return nil, eris.Errorf("unknown enrichment type: %s", r)
		}
	}
	return types, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	enrichCmd.Flags().StringSliceVar(&enrichTypes, "types", nil,
		"enrichment types to run (email_validation, company_enrichment, person_enrichment); default all")
	rootCmd.AddCommand(enrichCmd)
}
