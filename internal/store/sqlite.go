package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/boq-console/internal/model"
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
	// A single connection sidesteps SQLITE_BUSY under concurrent writers and
	// keeps :memory: databases on one handle.
	db.SetMaxOpenConns(1)
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
CREATE TABLE IF NOT EXISTS jobs (
	task_id          TEXT PRIMARY KEY,
	filename         TEXT NOT NULL,
	state            TEXT NOT NULL DEFAULT 'pending',
	output_file      TEXT NOT NULL DEFAULT '',
	error            TEXT NOT NULL DEFAULT '',
	progress_percent REAL NOT NULL DEFAULT 0,
	progress_step    TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_jobs_state ON jobs(state);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveJob(ctx context.Context, job model.Job) error {
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (task_id, filename, state, output_file, error, progress_percent, progress_step, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.TaskID, job.Filename, string(job.State), job.OutputFile, job.Error,
		job.ProgressPercent, job.ProgressStep, job.CreatedAt, job.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert job %s", job.TaskID)
}

func (s *SQLiteStore) UpdateJob(ctx context.Context, job model.Job) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET state = ?, output_file = ?, error = ?, progress_percent = ?, progress_step = ?, updated_at = ?
		 WHERE task_id = ?`,
		string(job.State), job.OutputFile, job.Error,
		job.ProgressPercent, job.ProgressStep, time.Now().UTC(), job.TaskID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job %s", job.TaskID)
	}
	return checkRowsAffected(res, "job", job.TaskID)
}

func (s *SQLiteStore) GetJob(ctx context.Context, taskID string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT task_id, filename, state, output_file, error, progress_percent, progress_step, created_at, updated_at
		 FROM jobs WHERE task_id = ?`,
		taskID,
	)

	var j model.Job
	err := row.Scan(&j.TaskID, &j.Filename, &j.State, &j.OutputFile, &j.Error,
		&j.ProgressPercent, &j.ProgressStep, &j.CreatedAt, &j.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("job not found: %s", taskID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan job")
	}
	return &j, nil
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `SELECT task_id, filename, state, output_file, error, progress_percent, progress_step, created_at, updated_at
	          FROM jobs WHERE 1=1`
	var args []any

	if filter.State != "" {
		query += ` AND state = ?`
		args = append(args, string(filter.State))
	}
	if filter.Active {
		query += ` AND state NOT IN (?, ?)`
		args = append(args, string(model.JobStateCompleted), string(model.JobStateFailed))
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
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var j model.Job
		err := rows.Scan(&j.TaskID, &j.Filename, &j.State, &j.OutputFile, &j.Error,
			&j.ProgressPercent, &j.ProgressStep, &j.CreatedAt, &j.UpdatedAt)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan job")
		}
		jobs = append(jobs, j)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

func (s *SQLiteStore) DeleteJob(ctx context.Context, taskID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE task_id = ?`, taskID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete job %s", taskID)
	}
	return checkRowsAffected(res, "job", taskID)
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
