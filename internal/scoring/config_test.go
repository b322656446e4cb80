package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeights_MaxTotalIs100(t *testing.T) {
	w := DefaultWeights()
	assert.Equal(t, 100, w.MaxTotal())
	assert.NoError(t, w.Validate())
}

func TestValidate_RejectsNegativeWeight(t *testing.T) {
	w := DefaultWeights()
	w.Country = -1

	err := w.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "country must be >= 0")
}

func TestValidate_RejectsWrongMaxTotal(t *testing.T) {
	w := DefaultWeights()
	w.EmailValid = 50

	err := w.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should be 100")
}

func TestLoadWeights_PartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scoring.yaml")
	content := `scoring:
  email_valid: 30
  industry_high: 15
  high_value_industries:
    - aerospace
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	w, err := LoadWeights(path)
	require.NoError(t, err)

	assert.Equal(t, 30, w.EmailValid)
	assert.Equal(t, 15, w.IndustryHigh)
	assert.Equal(t, []string{"aerospace"}, w.HighValueIndustries)

	// Unset fields fall back to defaults.
	def := DefaultWeights()
	assert.Equal(t, def.Country, w.Country)
	assert.Equal(t, def.Size1000Plus, w.Size1000Plus)
	assert.Equal(t, def.TargetCountries, w.TargetCountries)
}

func TestLoadWeights_MissingFile(t *testing.T) {
	_, err := LoadWeights("/nonexistent/scoring.yaml")
	assert.Error(t, err)
}

func TestLoadWeights_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scoring.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scoring: ["), 0o644))

	_, err := LoadWeights(path)
	assert.Error(t, err)
}
