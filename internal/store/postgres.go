package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/boq-console/internal/model"
)

// Pool is the subset of *pgxpool.Pool the store uses. Satisfied by pgxmock
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool, for tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	task_id          TEXT PRIMARY KEY,
	filename         TEXT NOT NULL,
	state            TEXT NOT NULL DEFAULT 'pending',
	output_file      TEXT NOT NULL DEFAULT '',
	error            TEXT NOT NULL DEFAULT '',
	progress_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
	progress_step    TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_jobs_state ON jobs(state);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveJob(ctx context.Context, job model.Job) error {
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = now
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (task_id, filename, state, output_file, error, progress_percent, progress_step, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.TaskID, job.Filename, string(job.State), job.OutputFile, job.Error,
		job.ProgressPercent, job.ProgressStep, job.CreatedAt, job.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: insert job %s", job.TaskID)
}

func (s *PostgresStore) UpdateJob(ctx context.Context, job model.Job) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET state = $1, output_file = $2, error = $3, progress_percent = $4, progress_step = $5, updated_at = $6
		 WHERE task_id = $7`,
		string(job.State), job.OutputFile, job.Error,
		job.ProgressPercent, job.ProgressStep, time.Now().UTC(), job.TaskID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job %s", job.TaskID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", job.TaskID)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, taskID string) (*model.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT task_id, filename, state, output_file, error, progress_percent, progress_step, created_at, updated_at
		 FROM jobs WHERE task_id = $1`,
		taskID,
	)

	var j model.Job
	err := row.Scan(&j.TaskID, &j.Filename, &j.State, &j.OutputFile, &j.Error,
		&j.ProgressPercent, &j.ProgressStep, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("job not found: %s", taskID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan job")
	}
	return &j, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `SELECT task_id, filename, state, output_file, error, progress_percent, progress_step, created_at, updated_at
	          FROM jobs WHERE 1=1`
	var args []any

	if filter.State != "" {
		args = append(args, string(filter.State))
		query += ` AND state = $1`
	}
	if filter.Active {
		args = append(args, string(model.JobStateCompleted), string(model.JobStateFailed))
		query += placeholders(` AND state NOT IN ($%d, $%d)`, len(args)-1, len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += placeholders(` LIMIT $%d`, len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += placeholders(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var j model.Job
		err := rows.Scan(&j.TaskID, &j.Filename, &j.State, &j.OutputFile, &j.Error,
			&j.ProgressPercent, &j.ProgressStep, &j.CreatedAt, &j.UpdatedAt)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		jobs = append(jobs, j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs iterate")
}

// placeholders formats positional parameter numbers into a query fragment.
func placeholders(format string, ns ...int) string {
	args := make([]any, len(ns))
	for i, n := range ns {
		args[i] = n
	}
	return fmt.Sprintf(format, args...)
}

func (s *PostgresStore) DeleteJob(ctx context.Context, taskID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE task_id = $1`, taskID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete job %s", taskID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", taskID)
	}
	return nil
}
