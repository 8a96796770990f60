package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boq-console/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresSaveJob(t *testing.T) {
	t.Parallel()
	st, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO jobs").
		WithArgs("task-1", "boq.xlsx", "pending", "", "", 0.0, "",
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := st.SaveJob(context.Background(), model.Job{
		TaskID:   "task-1",
		Filename: "boq.xlsx",
		State:    model.JobStatePending,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateJobNotFound(t *testing.T) {
	t.Parallel()
	st, mock := newMockStore(t)

	mock.ExpectExec("UPDATE jobs").
		WithArgs("completed", "report.xlsx", "", 100.0, "", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := st.UpdateJob(context.Background(), model.Job{
		TaskID:          "missing",
		State:           model.JobStateCompleted,
		OutputFile:      "report.xlsx",
		ProgressPercent: 100,
	})
	assert.ErrorContains(t, err, "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetJob(t *testing.T) {
	t.Parallel()
	st, mock := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM jobs WHERE task_id").
		WithArgs("task-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"task_id", "filename", "state", "output_file", "error",
			"progress_percent", "progress_step", "created_at", "updated_at",
		}).AddRow("task-1", "boq.xlsx", "completed", "report.xlsx", "", 100.0, "done", now, now))

	job, err := st.GetJob(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStateCompleted, job.State)
	assert.Equal(t, "report.xlsx", job.OutputFile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListActiveJobs(t *testing.T) {
	t.Parallel()
	st, mock := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM jobs WHERE 1=1 AND state NOT IN").
		WithArgs("completed", "failed", 100).
		WillReturnRows(pgxmock.NewRows([]string{
			"task_id", "filename", "state", "output_file", "error",
			"progress_percent", "progress_step", "created_at", "updated_at",
		}).AddRow("task-1", "boq.xlsx", "processing", "", "", 40.0, "matching", now, now))

	jobs, err := st.ListJobs(context.Background(), JobFilter{Active: true})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, model.JobStateProcessing, jobs[0].State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteJob(t *testing.T) {
	t.Parallel()
	st, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM jobs").
		WithArgs("task-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, st.DeleteJob(context.Background(), "task-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
