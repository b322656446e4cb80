package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich-cli/internal/model"
	"github.com/sells-group/lead-enrich-cli/internal/store"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect and manage leads",
}

var (
	leadsListStatus   string
	leadsListMinScore int
	leadsListLimit    int
	leadsListOffset   int
)

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads ordered by score",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		leads, err := env.Store.ListLeads(cmd.Context(), store.LeadFilter{
			Status:   model.LeadStatus(leadsListStatus),
			MinScore: leadsListMinScore,
			Limit:    leadsListLimit,
			Offset:   leadsListOffset,
		})
		if err != nil {
			return err
		}

		for _, l := range leads {
			fmt.Printf("%s  %-30s  %-12s  score=%3d  p%d\n",
				l.ID, l.Email, l.Status, l.Score, l.Priority)
		}
		fmt.Printf("%d lead(s)\n", len(leads))
		return nil
	},
}

var leadsShowCmd = &cobra.Command{
	Use:   "show <lead-id>",
	Short: "Show a lead's full record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		lead, err := env.Store.GetLead(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if lead == nil {
			return eris.Errorf("lead not found: %s", args[0])
		}
		return printJSON(lead)
	},
}

var leadsLogsCmd = &cobra.Command{
	Use:   "logs <lead-id>",
	Short: "Show a lead's enrichment attempt history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		logs, err := env.Store.ListLogs(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(logs)
	},
}

var (
	leadAddFirstName string
	leadAddLastName  string
	leadAddCompany   string
	leadAddWebsite   string
	leadAddJobTitle  string
)

var leadsAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Add a single lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := strings.TrimSpace(args[0])
		if !strings.Contains(email, "@") {
			return eris.Errorf("invalid email: %s", email)
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		lead := &model.Lead{
			Email:     strings.ToLower(email),
			FirstName: leadAddFirstName,
			LastName:  leadAddLastName,
			Company:   leadAddCompany,
			Website:   leadAddWebsite,
			JobTitle:  leadAddJobTitle,
			Source:    model.LeadSourceManual,
		}
		if err := env.Store.CreateLead(cmd.Context(), lead); err != nil {
			return err
		}

		fmt.Println(lead.ID)
		return nil
	},
}

var leadsImportCmd = &cobra.Command{
	Use:   "import <csv-file>",
	Short: "Import leads from a CSV file (email,first_name,last_name,company,website,job_title)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		leads, err := readLeadCSV(args[0])
		if err != nil {
			return err
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Store.ImportLeads(cmd.Context(), leads)
		if err != nil {
			return err
		}

		zap.L().Info("leads imported",
			zap.String("file", args[0]),
			zap.Int64("rows", n),
		)
		fmt.Printf("imported %d lead(s)\n", n)
		return nil
	},
}

// readLeadCSV parses the import file. The header row is required; only
// the email column is mandatory.
func readLeadCSV(path string) ([]*model.Lead, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open csv %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "read csv header")
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["email"]; !ok {
		return nil, eris.New("csv missing required email column")
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var leads []*model.Lead
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "read csv line %d", line)
		}

		email := strings.ToLower(field(record, "email"))
		if email == "" || !strings.Contains(email, "@") {
			zap.L().Warn("skipping csv row without valid email", zap.Int("line", line))
			continue
		}

		leads = append(leads, &model.Lead{
			Email:     email,
			FirstName: field(record, "first_name"),
			LastName:  field(record, "last_name"),
			Company:   field(record, "company"),
			Website:   field(record, "website"),
			JobTitle:  field(record, "job_title"),
			Source:    model.LeadSourceImport,
		})
	}
	return leads, nil
}

func init() {
	leadsListCmd.Flags().StringVar(&leadsListStatus, "status", "", "filter by status")
	leadsListCmd.Flags().IntVar(&leadsListMinScore, "min-score", 0, "minimum score")
	leadsListCmd.Flags().IntVar(&leadsListLimit, "limit", 100, "max leads to list")
	leadsListCmd.Flags().IntVar(&leadsListOffset, "offset", 0, "pagination offset")

	leadsAddCmd.Flags().StringVar(&leadAddFirstName, "first-name", "", "first name")
	leadsAddCmd.Flags().StringVar(&leadAddLastName, "last-name", "", "last name")
	leadsAddCmd.Flags().StringVar(&leadAddCompany, "company", "", "company name")
	leadsAddCmd.Flags().StringVar(&leadAddWebsite, "website", "", "company website")
	leadsAddCmd.Flags().StringVar(&leadAddJobTitle, "job-title", "", "job title")

	leadsCmd.AddCommand(leadsListCmd, leadsShowCmd, leadsLogsCmd, leadsAddCmd, leadsImportCmd)
	rootCmd.AddCommand(leadsCmd)
}
