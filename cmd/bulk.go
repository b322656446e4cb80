package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	bulkTypes []string
	bulkFile  string
)

var bulkCmd = &cobra.Command{
	Use:   "bulk [lead-id...]",
	Short: "Enrich multiple leads sequentially with a fixed delay between leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := args
		if bulkFile != "" {
			fileIDs, err := readIDFile(bulkFile)
			if err != nil {
				return err
			}
			ids = append(ids, fileIDs...)
		}
		if len(ids) == 0 {
			return eris.New("no lead ids given: pass them as arguments or via --file")
		}

		types, err := parseEnrichmentTypes(bulkTypes)
		if err != nil {
			return err
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.Orchestrator.BulkEnrich(cmd.Context(), ids, types)
		if err != nil {
			return err
		}

		succeeded := 0
		for _, r := range results {
			if r.Success {
				succeeded++
			}
		}
		zap.L().Info("bulk enrichment finished",
			zap.Int("leads", len(results)),
			zap.Int("succeeded", succeeded),
		)

		return printJSON(results)
	},
}

// readIDFile reads one lead id per line, skipping blanks and # comments.
func readIDFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open id file %s", path)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	return ids, eris.Wrap(scanner.Err(), "read id file")
}

func init() {
	bulkCmd.Flags().StringSliceVar(&bulkTypes, "types", nil,
		"enrichment types to run; default all")
	bulkCmd.Flags().StringVar(&bulkFile, "file", "", "file with one lead id per line")
	rootCmd.AddCommand(bulkCmd)
}
