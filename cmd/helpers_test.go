//go:build !integration

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich-cli/internal/model"
)

func TestParseEnrichmentTypes_Empty(t *testing.T) {
	types, err := parseEnrichmentTypes(nil)
	require.NoError(t, err)
	assert.Nil(t, types)
}

func TestParseEnrichmentTypes_Valid(t *testing.T) {
	types, err := parseEnrichmentTypes([]string{"email_validation", "company_enrichment"})
	require.NoError(t, err)
	assert.Equal(t, []model.EnrichmentType{model.TypeEmailValidation, model.TypeCompanyEnrichment}, types)
}

func TestParseEnrichmentTypes_Unknown(t *testing.T) {
	_, err := parseEnrichmentTypes([]string{"email_validation", "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestReadIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	content := "lead-1\n\n# a comment\n  lead-2  \nlead-3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ids, err := readIDFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"lead-1", "lead-2", "lead-3"}, ids)
}

func TestReadIDFile_Missing(t *testing.T) {
	_, err := readIDFile("/nonexistent/ids.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open id file")
}

func TestReadLeadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	content := "email,first_name,last_name,company,website,job_title\n" +
		"Jane@Acme.com,Jane,Doe,Acme,https://acme.com,VP Sales\n" +
		"not-an-email,Bad,Row,,,\n" +
		"bob@example.com,,,,,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	leads, err := readLeadCSV(path)
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, "jane@acme.com", leads[0].Email)
	assert.Equal(t, "Jane", leads[0].FirstName)
	assert.Equal(t, "VP Sales", leads[0].JobTitle)
	assert.Equal(t, model.LeadSourceImport, leads[0].Source)
	assert.Equal(t, "bob@example.com", leads[1].Email)
}

func TestReadLeadCSV_MissingEmailColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,company\nJane,Acme\n"), 0o644))

	_, err := readLeadCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email column")
}

func TestCmdMetadata(t *testing.T) {
	assert.Equal(t, "enrich <lead-id>", enrichCmd.Use)
	assert.NotNil(t, bulkCmd.Flags().Lookup("file"))
	assert.NotNil(t, serveCmd.Flags().Lookup("port"))
	assert.NotNil(t, statsCmd.Flags().Lookup("hours"))
}
