package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/zebutron/turbine-scoring-engine/internal/db"
	"github.com/zebutron/turbine-scoring-engine/internal/model"
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
	"insert_run":   `INSERT INTO runs (id, kind, input, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"complete_run": `UPDATE runs SET status = $1, summary = $2, updated_at = $3 WHERE id = $4`,
	"fail_run":     `UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
	"get_run":      `SELECT id, kind, input, status, error, summary, created_at, updated_at FROM runs WHERE id = $1`,
	"get_baseline": `SELECT contact_score_min, contact_score_max, lead_score_min, lead_score_max FROM baselines WHERE name = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

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

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	kind       TEXT NOT NULL,
	input      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	error      TEXT,
	summary    JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS company_scores (
	run_id          TEXT NOT NULL REFERENCES runs(id),
	name            TEXT NOT NULL,
	normalized_name TEXT NOT NULL,
	company_score   DOUBLE PRECISION NOT NULL,
	payload         JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS contact_scores (
	run_id        TEXT NOT NULL REFERENCES runs(id),
	full_name     TEXT NOT NULL,
	lead_score    DOUBLE PRECISION NOT NULL,
	contact_score DOUBLE PRECISION NOT NULL,
	payload       JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS baselines (
	name              TEXT PRIMARY KEY,
	contact_score_min DOUBLE PRECISION,
	contact_score_max DOUBLE PRECISION,
	lead_score_min    DOUBLE PRECISION,
	lead_score_max    DOUBLE PRECISION,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
CREATE INDEX IF NOT EXISTS idx_company_scores_run_id ON company_scores(run_id);
CREATE INDEX IF NOT EXISTS idx_contact_scores_run_id ON contact_scores(run_id);
`

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

func (s *PostgresStore) CreateRun(ctx context.Context, kind model.RunKind, input string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, kind, input, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, string(kind), input, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
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

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, summary = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusComplete), summaryJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, kind, input, status, error, summary, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)

	r, err := scanPgRun(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, kind, input, status, error, summary, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		query += ` AND kind = $1`
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: list runs scan")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) SaveCompanyScores(ctx context.Context, runID string, scores []model.ScoredCompany) error {
	rows := make([][]any, 0, len(scores))
	for _, sc := range scores {
		payload, err := json.Marshal(sc)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal company score")
		}
		rows = append(rows, []any{runID, sc.Name, sc.NormalizedName, sc.CompanyScore, payload})
	}

	_, err := db.CopyFrom(ctx, s.pool, "company_scores",
		[]string{"run_id", "name", "normalized_name", "company_score", "payload"}, rows)
	return err
}

func (s *PostgresStore) SaveContactScores(ctx context.Context, runID string, scores []model.ScoredContact) error {
	rows := make([][]any, 0, len(scores))
	for _, sc := range scores {
		payload, err := json.Marshal(sc)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal contact score")
		}
		rows = append(rows, []any{runID, sc.FullName, sc.LeadScore, sc.ContactScore, payload})
	}

	_, err := db.CopyFrom(ctx, s.pool, "contact_scores",
		[]string{"run_id", "full_name", "lead_score", "contact_score", "payload"}, rows)
	return err
}

func (s *PostgresStore) GetBaseline(ctx context.Context, name string) (*model.Baseline, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT contact_score_min, contact_score_max, lead_score_min, lead_score_max FROM baselines WHERE name = $1`,
		name,
	)

	var b model.Baseline
	err := row.Scan(&b.ContactScoreMin, &b.ContactScoreMax, &b.LeadScoreMin, &b.LeadScoreMax)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get baseline %s", name)
	}
	return &b, nil
}

func (s *PostgresStore) SaveBaseline(ctx context.Context, name string, baseline *model.Baseline) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO baselines (name, contact_score_min, contact_score_max, lead_score_min, lead_score_max, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (name) DO UPDATE SET
			contact_score_min = EXCLUDED.contact_score_min,
			contact_score_max = EXCLUDED.contact_score_max,
			lead_score_min    = EXCLUDED.lead_score_min,
			lead_score_max    = EXCLUDED.lead_score_max,
			updated_at        = EXCLUDED.updated_at`,
		name, baseline.ContactScoreMin, baseline.ContactScoreMax,
		baseline.LeadScoreMin, baseline.LeadScoreMax, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save baseline %s", name)
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var errMsg *string
	var summaryJSON []byte

	if err := row.Scan(&r.ID, &r.Kind, &r.Input, &r.Status, &errMsg, &summaryJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, eris.Wrap(err, "scan run")
	}
	if errMsg != nil {
		r.Error = *errMsg
	}
	if len(summaryJSON) > 0 {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal(summaryJSON, r.Summary); err != nil {
			return nil, eris.Wrap(err, "unmarshal run summary")
		}
	}
	return &r, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
