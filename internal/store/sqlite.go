package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-enrich-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	data       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'new',
	score      INTEGER NOT NULL DEFAULT 0,
	priority   INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS enrichment_logs (
	id               TEXT PRIMARY KEY,
	lead_id          TEXT NOT NULL REFERENCES leads(id),
	type             TEXT NOT NULL,
	status           TEXT NOT NULL,
	provider         TEXT NOT NULL,
	request          TEXT,
	response         TEXT,
	error_message    TEXT,
	response_time_ms INTEGER NOT NULL DEFAULT 0,
	cost             REAL NOT NULL DEFAULT 0,
	metadata         TEXT,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at     DATETIME
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(score);
CREATE INDEX IF NOT EXISTS idx_logs_lead_id ON enrichment_logs(lead_id);
CREATE INDEX IF NOT EXISTS idx_logs_created_at ON enrichment_logs(created_at);
CREATE INDEX IF NOT EXISTS idx_logs_provider ON enrichment_logs(provider);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	prepareLead(lead)

	data, err := json.Marshal(lead)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal lead")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (id, email, data, status, score, priority, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.Email, string(data), string(lead.Status),
		lead.Score, lead.Priority, lead.CreatedAt, lead.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert lead %s", lead.Email)
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	return s.getLeadWhere(ctx, `id = ?`, id)
}

func (s *SQLiteStore) GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error) {
	return s.getLeadWhere(ctx, `email = ?`, email)
}

func (s *SQLiteStore) getLeadWhere(ctx context.Context, where string, arg any) (*model.Lead, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM leads WHERE `+where, arg,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get lead")
	}

	var lead model.Lead
	if err := json.Unmarshal([]byte(data), &lead); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal lead")
	}
	return &lead, nil
}

func (s *SQLiteStore) SaveLead(ctx context.Context, lead *model.Lead) error {
	lead.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(lead)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal lead")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET data = ?, status = ?, score = ?, priority = ?, updated_at = ? WHERE id = ?`,
		string(data), string(lead.Status), lead.Score, lead.Priority, lead.UpdatedAt, lead.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save lead %s", lead.ID)
	}
	return checkRowsAffected(res, "lead", lead.ID)
}

// ImportLeads upserts a batch of leads keyed on email inside one
// transaction. Returns the number of rows written.
func (s *SQLiteStore) ImportLeads(ctx context.Context, leads []*model.Lead) (int64, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: import begin tx")
	}
	defer tx.Rollback()

	var n int64
	for _, lead := range leads {
		prepareLead(lead)

		data, err := json.Marshal(lead)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal lead")
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO leads (id, email, data, status, score, priority, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (email) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
			lead.ID, lead.Email, string(data), string(lead.Status),
			lead.Score, lead.Priority, lead.CreatedAt, lead.UpdatedAt,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: import lead %s", lead.Email)
		}
		rows, _ := res.RowsAffected()
		n += rows
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: import commit")
	}
	return n, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT data FROM leads WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.MinScore > 0 {
		query += ` AND score >= ?`
		args = append(args, filter.MinScore)
	}
	query += ` ORDER BY score DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		var lead model.Lead
		if err := json.Unmarshal([]byte(data), &lead); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal lead")
		}
		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) CountLeadsByStatus(ctx context.Context) (map[model.LeadStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM leads GROUP BY status`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count leads")
	}
	defer rows.Close()

	counts := make(map[model.LeadStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan count")
		}
		counts[model.LeadStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count leads iterate")
}

func (s *SQLiteStore) AppendEnrichmentLogs(ctx context.Context, logs []model.EnrichmentLog) error {
	if len(logs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: append logs begin tx")
	}
	defer tx.Rollback()

	for i := range logs {
		log := &logs[i]
		prepareLog(log)

		metadata, err := marshalLogMetadata(log)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO enrichment_logs
			 (id, lead_id, type, status, provider, request, response, error_message,
			  response_time_ms, cost, metadata, created_at, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			log.ID, log.LeadID, string(log.Type), string(log.Status), log.Provider,
			log.Request, log.Response, log.ErrorMessage,
			log.ResponseTimeMs, log.Cost, metadata, log.CreatedAt, log.CompletedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert log for lead %s", log.LeadID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: append logs commit")
}

func (s *SQLiteStore) ListLogs(ctx context.Context, leadID string) ([]model.EnrichmentLog, error) {
	return s.listLogsWhere(ctx, `lead_id = ?`, leadID)
}

func (s *SQLiteStore) ListRecentLogs(ctx context.Context, since time.Time) ([]model.EnrichmentLog, error) {
	return s.listLogsWhere(ctx, `created_at >= ?`, since.UTC())
}

func (s *SQLiteStore) listLogsWhere(ctx context.Context, where string, arg any) ([]model.EnrichmentLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lead_id, type, status, provider, request, response, error_message,
		        response_time_ms, cost, metadata, created_at, completed_at
		 FROM enrichment_logs WHERE `+where+` ORDER BY created_at ASC, id ASC`,
		arg,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list logs")
	}
	defer rows.Close()

	var logs []model.EnrichmentLog
	for rows.Next() {
		var log model.EnrichmentLog
		var request, response, errorMessage, metadata sql.NullString
		var completedAt sql.NullTime

		err := rows.Scan(&log.ID, &log.LeadID, &log.Type, &log.Status, &log.Provider,
			&request, &response, &errorMessage,
			&log.ResponseTimeMs, &log.Cost, &metadata, &log.CreatedAt, &completedAt)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan log")
		}

		log.Request = request.String
		log.Response = response.String
		log.ErrorMessage = errorMessage.String
		if completedAt.Valid {
			t := completedAt.Time
			log.CompletedAt = &t
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &log.Metadata); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal log metadata")
			}
		}
		logs = append(logs, log)
	}
	return logs, eris.Wrap(rows.Err(), "sqlite: list logs iterate")
}

// helpers

// prepareLead fills identity and timestamp fields left empty by the caller.
func prepareLead(lead *model.Lead) {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.Status == "" {
		lead.Status = model.LeadStatusNew
	}
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	if lead.UpdatedAt.IsZero() {
		lead.UpdatedAt = now
	}
}

func prepareLog(log *model.EnrichmentLog) {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
}

func marshalLogMetadata(log *model.EnrichmentLog) (any, error) {
	if len(log.Metadata) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(log.Metadata)
	if err != nil {
		return nil, eris.Wrap(err, "marshal log metadata")
	}
	return string(data), nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
