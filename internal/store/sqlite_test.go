package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_CreateAndGetLead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lead := &model.Lead{Email: "jane@acme.com", Company: "Acme", Source: model.LeadSourceManual}
	require.NoError(t, s.CreateLead(ctx, lead))
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, model.LeadStatusNew, lead.Status)
	assert.False(t, lead.CreatedAt.IsZero())

	got, err := s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "jane@acme.com", got.Email)
	assert.Equal(t, "Acme", got.Company)

	byEmail, err := s.GetLeadByEmail(ctx, "jane@acme.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, lead.ID, byEmail.ID)
}

func TestSQLite_GetLead_Missing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetLead(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_CreateLead_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateLead(ctx, &model.Lead{Email: "jane@acme.com"}))
	err := s.CreateLead(ctx, &model.Lead{Email: "jane@acme.com"})
	assert.Error(t, err)
}

func TestSQLite_SaveLead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lead := &model.Lead{Email: "jane@acme.com"}
	require.NoError(t, s.CreateLead(ctx, lead))

	lead.Company = "Acme Corp"
	lead.Status = model.LeadStatusEnriched
	lead.Score = 72
	lead.Priority = 8
	require.NoError(t, s.SaveLead(ctx, lead))

	got, err := s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Company)
	assert.Equal(t, model.LeadStatusEnriched, got.Status)
	assert.Equal(t, 72, got.Score)
}

func TestSQLite_SaveLead_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveLead(context.Background(), &model.Lead{ID: "ghost", Email: "x@y.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lead not found")
}

func TestSQLite_ImportLeads_UpsertsOnEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := []*model.Lead{
		{Email: "jane@acme.com", Company: "Acme"},
		{Email: "bob@initech.com", Company: "Initech"},
	}
	n, err := s.ImportLeads(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Re-import refreshes the existing row instead of failing.
	again := []*model.Lead{{Email: "jane@acme.com", Company: "Acme Corp"}}
	_, err = s.ImportLeads(ctx, again)
	require.NoError(t, err)

	got, err := s.GetLeadByEmail(ctx, "jane@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Company)

	leads, err := s.ListLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	assert.Len(t, leads, 2)
}

func TestSQLite_ListLeads_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, lead := range []*model.Lead{
		{Email: "a@x.com", Status: model.LeadStatusNew, Score: 10},
		{Email: "b@x.com", Status: model.LeadStatusPrioritized, Score: 90},
		{Email: "c@x.com", Status: model.LeadStatusPrioritized, Score: 60},
	} {
		require.NoError(t, s.CreateLead(ctx, lead))
	}

	prioritized, err := s.ListLeads(ctx, LeadFilter{Status: model.LeadStatusPrioritized})
	require.NoError(t, err)
	require.Len(t, prioritized, 2)
	// Ordered by score descending.
	assert.Equal(t, "b@x.com", prioritized[0].Email)

	high, err := s.ListLeads(ctx, LeadFilter{MinScore: 70})
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, "b@x.com", high[0].Email)

	limited, err := s.ListLeads(ctx, LeadFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c@x.com", limited[0].Email)
}

func TestSQLite_CountLeadsByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, lead := range []*model.Lead{
		{Email: "a@x.com"},
		{Email: "b@x.com"},
		{Email: "c@x.com", Status: model.LeadStatusEnriched},
	} {
		require.NoError(t, s.CreateLead(ctx, lead))
	}

	counts, err := s.CountLeadsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[model.LeadStatusNew])
	assert.Equal(t, 1, counts[model.LeadStatusEnriched])
}

func TestSQLite_AppendAndListLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lead := &model.Lead{Email: "jane@acme.com"}
	require.NoError(t, s.CreateLead(ctx, lead))

	completed := time.Now().UTC().Truncate(time.Second)
	logs := []model.EnrichmentLog{
		{
			LeadID:         lead.ID,
			Type:           model.TypeEmailValidation,
			Status:         model.LogStatusFailed,
			Provider:       "hunter",
			ErrorMessage:   "provider hunter is not active",
			ResponseTimeMs: 0,
		},
		{
			LeadID:         lead.ID,
			Type:           model.TypeEmailValidation,
			Status:         model.LogStatusSuccess,
			Provider:       "apollo",
			Response:       `{"email_status":"verified"}`,
			ResponseTimeMs: 130,
			Cost:           0.01,
			Metadata:       map[string]any{"score": 100},
			CompletedAt:    &completed,
		},
	}
	require.NoError(t, s.AppendEnrichmentLogs(ctx, logs))

	got, err := s.ListLogs(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Append order is preserved.
	assert.Equal(t, "hunter", got[0].Provider)
	assert.Equal(t, model.LogStatusFailed, got[0].Status)
	assert.Nil(t, got[0].CompletedAt)

	assert.Equal(t, "apollo", got[1].Provider)
	assert.Equal(t, 0.01, got[1].Cost)
	assert.NotNil(t, got[1].CompletedAt)
	assert.EqualValues(t, 100, got[1].Metadata["score"])
}

func TestSQLite_ListRecentLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lead := &model.Lead{Email: "jane@acme.com"}
	require.NoError(t, s.CreateLead(ctx, lead))

	old := model.EnrichmentLog{
		LeadID: lead.ID, Type: model.TypeEmailValidation,
		Status: model.LogStatusSuccess, Provider: "hunter",
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
	recent := model.EnrichmentLog{
		LeadID: lead.ID, Type: model.TypePersonEnrichment,
		Status: model.LogStatusSuccess, Provider: "apollo",
	}
	require.NoError(t, s.AppendEnrichmentLogs(ctx, []model.EnrichmentLog{old, recent}))

	got, err := s.ListRecentLogs(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "apollo", got[0].Provider)
}
