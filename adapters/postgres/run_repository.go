package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"episim/domain/core"
	"episim/domain/results"
	apperrors "episim/internal/errors"
	"episim/ports"
)

// RunRepositoryImpl implements ports.RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// Connect opens a PostgreSQL connection pool from a URL
func Connect(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, apperrors.Wrap(err, "connect to postgres")
	}
	return db, nil
}

// EnsureSchema creates the run tables if they do not exist
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sim_runs (
			id          TEXT PRIMARY KEY,
			scenario    TEXT NOT NULL DEFAULT '',
			seed        BIGINT NOT NULL,
			n_agents    INTEGER NOT NULL,
			n_pts       INTEGER NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS sim_run_series (
			run_id  TEXT NOT NULL REFERENCES sim_runs(id) ON DELETE CASCADE,
			key     TEXT NOT NULL,
			module  TEXT NOT NULL,
			name    TEXT NOT NULL,
			label   TEXT NOT NULL,
			scale   BOOLEAN NOT NULL,
			vals    DOUBLE PRECISION[] NOT NULL,
			PRIMARY KEY (run_id, key)
		);
	`)
	if err != nil {
		return apperrors.Wrap(err, "ensure run schema")
	}
	return nil
}

// SaveRun stores the run record and all of its result series in one
// transaction
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, rec ports.RunRecord, res *results.Results) error {
	if rec.ID == "" {
		return apperrors.InvalidInput("run ID is required")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, "begin save transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sim_runs (id, scenario, seed, n_agents, n_pts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID.String(), rec.Scenario, int64(rec.Seed), rec.NAgents, rec.NPts, time.Now().UTC())
	if err != nil {
		return apperrors.DatabaseError("insert run: " + err.Error())
	}

	for _, s := range res.All() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sim_run_series (run_id, key, module, name, label, scale, vals)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, rec.ID.String(), s.Key(), s.Module, s.Name, s.Label, s.Scale, pq.Float64Array(s.Values))
		if err != nil {
			return apperrors.DatabaseError("insert series " + s.Key() + ": " + err.Error())
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(err, "commit save transaction")
	}
	return nil
}

type runRow struct {
	ID       string `db:"id"`
	Scenario string `db:"scenario"`
	Seed     int64  `db:"seed"`
	NAgents  int    `db:"n_agents"`
	NPts     int    `db:"n_pts"`
}

// GetRun retrieves a run record by ID
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*ports.RunRecord, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, scenario, seed, n_agents, n_pts
		FROM sim_runs
		WHERE id = $1
	`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("run " + id.String())
	}
	if err != nil {
		return nil, apperrors.DatabaseError("get run: " + err.Error())
	}
	return row.toRecord(), nil
}

// ListRuns returns recent runs, newest first, up to limit
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*ports.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []runRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, scenario, seed, n_agents, n_pts
		FROM sim_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apperrors.DatabaseError("list runs: " + err.Error())
	}
	out := make([]*ports.RunRecord, len(rows))
	for i, row := range rows {
		out[i] = row.toRecord()
	}
	return out, nil
}

func (row runRow) toRecord() *ports.RunRecord {
	return &ports.RunRecord{
		ID:       core.RunID(row.ID),
		Scenario: row.Scenario,
		Seed:     uint64(row.Seed),
		NAgents:  row.NAgents,
		NPts:     row.NPts,
	}
}

type seriesRow struct {
	Module string          `db:"module"`
	Name   string          `db:"name"`
	Label  string          `db:"label"`
	Scale  bool            `db:"scale"`
	Vals   pq.Float64Array `db:"vals"`
}

// GetSeries retrieves one stored result series of a run
func (r *RunRepositoryImpl) GetSeries(ctx context.Context, id core.RunID, key string) (*results.Result, error) {
	var row seriesRow
	err := r.db.GetContext(ctx, &row, `
		SELECT module, name, label, scale, vals
		FROM sim_run_series
		WHERE run_id = $1 AND key = $2
	`, id.String(), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("series " + key)
	}
	if err != nil {
		return nil, apperrors.DatabaseError("get series: " + err.Error())
	}
	return &results.Result{
		Module: row.Module,
		Name:   row.Name,
		Label:  row.Label,
		Scale:  row.Scale,
		Values: []float64(row.Vals),
	}, nil
}
