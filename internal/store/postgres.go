package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrich-cli/internal/db"
	"github.com/sells-group/lead-enrich-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_lead":       `INSERT INTO leads (id, email, data, status, score, priority, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	"get_lead":          `SELECT data FROM leads WHERE id = $1`,
	"get_lead_by_email": `SELECT data FROM leads WHERE email = $1`,
	"save_lead":         `UPDATE leads SET data = $1, status = $2, score = $3, priority = $4, updated_at = $5 WHERE id = $6`,
	"list_lead_logs":    `SELECT id, lead_id, type, status, provider, request, response, error_message, response_time_ms, cost, metadata, created_at, completed_at FROM enrichment_logs WHERE lead_id = $1 ORDER BY created_at ASC, id ASC`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	email      TEXT NOT NULL UNIQUE,
	data       JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'new',
	score      INTEGER NOT NULL DEFAULT 0,
	priority   INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS enrichment_logs (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	lead_id          TEXT NOT NULL REFERENCES leads(id),
	type             TEXT NOT NULL,
	status           TEXT NOT NULL,
	provider         TEXT NOT NULL,
	request          TEXT,
	response         TEXT,
	error_message    TEXT,
	response_time_ms BIGINT NOT NULL DEFAULT 0,
	cost             DOUBLE PRECISION NOT NULL DEFAULT 0,
	metadata         JSONB,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at     TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(score DESC);
CREATE INDEX IF NOT EXISTS idx_logs_lead_id ON enrichment_logs(lead_id);
CREATE INDEX IF NOT EXISTS idx_logs_created_at ON enrichment_logs(created_at);
CREATE INDEX IF NOT EXISTS idx_logs_provider ON enrichment_logs(provider);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	prepareLead(lead)

	data, err := json.Marshal(lead)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal lead")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO leads (id, email, data, status, score, priority, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		lead.ID, lead.Email, data, string(lead.Status),
		lead.Score, lead.Priority, lead.CreatedAt, lead.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: insert lead %s", lead.Email)
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	return s.getLeadWhere(ctx, `id = $1`, id)
}

func (s *PostgresStore) GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error) {
	return s.getLeadWhere(ctx, `email = $1`, email)
}

func (s *PostgresStore) getLeadWhere(ctx context.Context, where string, arg any) (*model.Lead, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM leads WHERE `+where, arg,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get lead")
	}

	var lead model.Lead
	if err := json.Unmarshal(data, &lead); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal lead")
	}
	return &lead, nil
}

func (s *PostgresStore) SaveLead(ctx context.Context, lead *model.Lead) error {
	lead.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(lead)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal lead")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET data = $1, status = $2, score = $3, priority = $4, updated_at = $5 WHERE id = $6`,
		data, string(lead.Status), lead.Score, lead.Priority, lead.UpdatedAt, lead.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save lead %s", lead.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %s", lead.ID)
	}
	return nil
}

// ImportLeads bulk-upserts leads keyed on email via a temp table and
// INSERT ... ON CONFLICT.
func (s *PostgresStore) ImportLeads(ctx context.Context, leads []*model.Lead) (int64, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(leads))
	for _, lead := range leads {
		prepareLead(lead)

		data, err := json.Marshal(lead)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal lead")
		}
		rows = append(rows, []any{
			lead.ID, lead.Email, data, string(lead.Status),
			lead.Score, lead.Priority, lead.CreatedAt, lead.UpdatedAt,
		})
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "leads",
		Columns:      []string{"id", "email", "data", "status", "score", "priority", "created_at", "updated_at"},
		ConflictKeys: []string{"email"},
		UpdateCols:   []string{"data", "status", "score", "priority", "updated_at"},
	}, rows)
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT data FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.MinScore > 0 {
		query += fmt.Sprintf(` AND score >= $%d`, argIdx)
		args = append(args, filter.MinScore)
		argIdx++
	}
	query += ` ORDER BY score DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		var lead model.Lead
		if err := json.Unmarshal(data, &lead); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal lead")
		}
		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) CountLeadsByStatus(ctx context.Context) (map[model.LeadStatus]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM leads GROUP BY status`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count leads")
	}
	defer rows.Close()

	counts := make(map[model.LeadStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan count")
		}
		counts[model.LeadStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: count leads iterate")
}

// AppendEnrichmentLogs writes a batch of logs in one COPY round trip.
func (s *PostgresStore) AppendEnrichmentLogs(ctx context.Context, logs []model.EnrichmentLog) error {
	if len(logs) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(logs))
	for i := range logs {
		log := &logs[i]
		prepareLog(log)

		metadata, err := marshalLogMetadata(log)
		if err != nil {
			return err
		}

		rows = append(rows, []any{
			log.ID, log.LeadID, string(log.Type), string(log.Status), log.Provider,
			log.Request, log.Response, log.ErrorMessage,
			log.ResponseTimeMs, log.Cost, metadata, log.CreatedAt, log.CompletedAt,
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "enrichment_logs",
		[]string{"id", "lead_id", "type", "status", "provider", "request", "response",
			"error_message", "response_time_ms", "cost", "metadata", "created_at", "completed_at"},
		rows,
	)
	return err
}

func (s *PostgresStore) ListLogs(ctx context.Context, leadID string) ([]model.EnrichmentLog, error) {
	return s.listLogsWhere(ctx, `lead_id = $1`, leadID)
}

func (s *PostgresStore) ListRecentLogs(ctx context.Context, since time.Time) ([]model.EnrichmentLog, error) {
	return s.listLogsWhere(ctx, `created_at >= $1`, since.UTC())
}

func (s *PostgresStore) listLogsWhere(ctx context.Context, where string, arg any) ([]model.EnrichmentLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, lead_id, type, status, provider, request, response, error_message,
		        response_time_ms, cost, metadata, created_at, completed_at
		 FROM enrichment_logs WHERE `+where+` ORDER BY created_at ASC, id ASC`,
		arg,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list logs")
	}
	defer rows.Close()

	var logs []model.EnrichmentLog
	for rows.Next() {
		var log model.EnrichmentLog
		var request, response, errorMessage *string
		var metadata []byte
		var completedAt *time.Time

		err := rows.Scan(&log.ID, &log.LeadID, &log.Type, &log.Status, &log.Provider,
			&request, &response, &errorMessage,
			&log.ResponseTimeMs, &log.Cost, &metadata, &log.CreatedAt, &completedAt)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan log")
		}

		if request != nil {
			log.Request = *request
		}
		if response != nil {
			log.Response = *response
		}
		if errorMessage != nil {
			log.ErrorMessage = *errorMessage
		}
		log.CompletedAt = completedAt
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &log.Metadata); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal log metadata")
			}
		}
		logs = append(logs, log)
	}
	return logs, eris.Wrap(rows.Err(), "postgres: list logs iterate")
}
