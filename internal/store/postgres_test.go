package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgresFromPool(mock), mock
}

func TestPostgres_CreateLead(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(pgxmock.AnyArg(), "jane@acme.com", pgxmock.AnyArg(), "new",
			0, 0, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	lead := &model.Lead{Email: "jane@acme.com"}
	require.NoError(t, s.CreateLead(context.Background(), lead))
	assert.NotEmpty(t, lead.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetLead(t *testing.T) {
	s, mock := newMockStore(t)

	lead := model.Lead{ID: "l1", Email: "jane@acme.com", Company: "Acme"}
	data, err := json.Marshal(lead)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT data FROM leads WHERE id =`).
		WithArgs("l1").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(data))

	got, err := s.GetLead(context.Background(), "l1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme", got.Company)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetLead_MissingReturnsNil(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT data FROM leads WHERE id =`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetLead(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveLead_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE leads SET`).
		WithArgs(pgxmock.AnyArg(), "enriched", 72, 8, pgxmock.AnyArg(), "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.SaveLead(context.Background(), &model.Lead{
		ID: "ghost", Email: "x@y.com", Status: model.LeadStatusEnriched, Score: 72, Priority: 8,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lead not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListLeads_BuildsFilterQuery(t *testing.T) {
	s, mock := newMockStore(t)

	lead := model.Lead{ID: "l1", Email: "jane@acme.com", Score: 90}
	data, err := json.Marshal(lead)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT data FROM leads WHERE true AND status = \$1 AND score >= \$2 ORDER BY score DESC, created_at DESC LIMIT \$3`).
		WithArgs("prioritized", 50, 10).
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(data))

	leads, err := s.ListLeads(context.Background(), LeadFilter{
		Status:   model.LeadStatusPrioritized,
		MinScore: 50,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "jane@acme.com", leads[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AppendEnrichmentLogs_UsesCopy(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"enrichment_logs"},
		[]string{"id", "lead_id", "type", "status", "provider", "request", "response",
			"error_message", "response_time_ms", "cost", "metadata", "created_at", "completed_at"}).
		WillReturnResult(2)

	logs := []model.EnrichmentLog{
		{LeadID: "l1", Type: model.TypeEmailValidation, Status: model.LogStatusFailed, Provider: "hunter"},
		{LeadID: "l1", Type: model.TypeEmailValidation, Status: model.LogStatusSuccess, Provider: "apollo", Cost: 0.01},
	}
	require.NoError(t, s.AppendEnrichmentLogs(context.Background(), logs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AppendEnrichmentLogs_Empty(t *testing.T) {
	s, _ := newMockStore(t)
	assert.NoError(t, s.AppendEnrichmentLogs(context.Background(), nil))
}

func TestPostgres_ListLogs(t *testing.T) {
	s, mock := newMockStore(t)

	created := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "lead_id", "type", "status", "provider", "request", "response",
		"error_message", "response_time_ms", "cost", "metadata", "created_at", "completed_at",
	}).AddRow(
		"log1", "l1", "email_validation", "success", "hunter",
		strPtr(`{"email":"jane@acme.com"}`), strPtr(`{"result":"deliverable"}`),
		(*string)(nil), int64(120), 0.01, []byte(`{"score":100}`), created, &created,
	)

	mock.ExpectQuery(`SELECT .+ FROM enrichment_logs WHERE lead_id =`).
		WithArgs("l1").
		WillReturnRows(rows)

	logs, err := s.ListLogs(context.Background(), "l1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.TypeEmailValidation, logs[0].Type)
	assert.Equal(t, "hunter", logs[0].Provider)
	assert.EqualValues(t, 100, logs[0].Metadata["score"])
	assert.NotNil(t, logs[0].CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CountLeadsByStatus(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM leads GROUP BY status`).
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("new", 5).
			AddRow("prioritized", 2))

	counts, err := s.CountLeadsByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, counts[model.LeadStatusNew])
	assert.Equal(t, 2, counts[model.LeadStatusPrioritized])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Migrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS leads`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func strPtr(s string) *string { return &s }
