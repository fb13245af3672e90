package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/zebutron/turbine-scoring-engine/internal/model"
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
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	input      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	error      TEXT,
	summary    TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS company_scores (
	run_id          TEXT NOT NULL REFERENCES runs(id),
	name            TEXT NOT NULL,
	normalized_name TEXT NOT NULL,
	company_score   REAL NOT NULL,
	payload         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contact_scores (
	run_id        TEXT NOT NULL REFERENCES runs(id),
	full_name     TEXT NOT NULL,
	lead_score    REAL NOT NULL,
	contact_score REAL NOT NULL,
	payload       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS baselines (
	name              TEXT PRIMARY KEY,
	contact_score_min REAL,
	contact_score_max REAL,
	lead_score_min    REAL,
	lead_score_max    REAL,
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
CREATE INDEX IF NOT EXISTS idx_company_scores_run_id ON company_scores(run_id);
CREATE INDEX IF NOT EXISTS idx_contact_scores_run_id ON contact_scores(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, kind model.RunKind, input string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, input, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(kind), input, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Kind:      kind,
		Input:     input,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, summary = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusComplete), string(summaryJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, input, status, error, summary, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, kind, input, status, error, summary, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

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
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveCompanyScores(ctx context.Context, runID string, scores []model.ScoredCompany) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO company_scores (run_id, name, normalized_name, company_score, payload) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare company insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, sc := range scores {
		payload, err := json.Marshal(sc)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal company score")
		}
		if _, err := stmt.ExecContext(ctx, runID, sc.Name, sc.NormalizedName, sc.CompanyScore, string(payload)); err != nil {
			return eris.Wrapf(err, "sqlite: insert company score %s", sc.Name)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit company scores")
}

func (s *SQLiteStore) SaveContactScores(ctx context.Context, runID string, scores []model.ScoredContact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO contact_scores (run_id, full_name, lead_score, contact_score, payload) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare contact insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, sc := range scores {
		payload, err := json.Marshal(sc)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal contact score")
		}
		if _, err := stmt.ExecContext(ctx, runID, sc.FullName, sc.LeadScore, sc.ContactScore, string(payload)); err != nil {
			return eris.Wrapf(err, "sqlite: insert contact score %s", sc.FullName)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit contact scores")
}

func (s *SQLiteStore) GetBaseline(ctx context.Context, name string) (*model.Baseline, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT contact_score_min, contact_score_max, lead_score_min, lead_score_max FROM baselines WHERE name = ?`,
		name,
	)

	var b model.Baseline
	err := row.Scan(&b.ContactScoreMin, &b.ContactScoreMax, &b.LeadScoreMin, &b.LeadScoreMax)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get baseline %s", name)
	}
	return &b, nil
}

func (s *SQLiteStore) SaveBaseline(ctx context.Context, name string, baseline *model.Baseline) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO baselines (name, contact_score_min, contact_score_max, lead_score_min, lead_score_max, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			contact_score_min = excluded.contact_score_min,
			contact_score_max = excluded.contact_score_max,
			lead_score_min    = excluded.lead_score_min,
			lead_score_max    = excluded.lead_score_max,
			updated_at        = excluded.updated_at`,
		name, baseline.ContactScoreMin, baseline.ContactScoreMax,
		baseline.LeadScoreMin, baseline.LeadScoreMax, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save baseline %s", name)
}

// helpers

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

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var errMsg sql.NullString
	var summaryJSON sql.NullString

	err := row.Scan(&r.ID, &r.Kind, &r.Input, &r.Status, &errMsg, &summaryJSON, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan run")
	}

	if errMsg.Valid {
		r.Error = errMsg.String
	}
	if summaryJSON.Valid && summaryJSON.String != "" {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "unmarshal run summary")
		}
	}
	return &r, nil
}
