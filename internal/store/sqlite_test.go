package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boq-console/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleJob(taskID string, state model.JobState) model.Job {
	now := time.Now().UTC().Truncate(time.Second)
	return model.Job{
		TaskID:    taskID,
		Filename:  "boq.xlsx",
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSQLiteSaveAndGetJob(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	job := sampleJob("task-1", model.JobStatePending)
	require.NoError(t, st.SaveJob(ctx, job))

	got, err := st.GetJob(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, job.TaskID, got.TaskID)
	assert.Equal(t, job.Filename, got.Filename)
	assert.Equal(t, model.JobStatePending, got.State)
}

func TestSQLiteGetJobNotFound(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	_, err := st.GetJob(context.Background(), "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestSQLiteUpdateJob(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	job := sampleJob("task-1", model.JobStatePending)
	require.NoError(t, st.SaveJob(ctx, job))

	job.State = model.JobStateCompleted
	job.OutputFile = "report.xlsx"
	job.ProgressPercent = 100
	require.NoError(t, st.UpdateJob(ctx, job))

	got, err := st.GetJob(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStateCompleted, got.State)
	assert.Equal(t, "report.xlsx", got.OutputFile)
	assert.Equal(t, 100.0, got.ProgressPercent)
}

func TestSQLiteUpdateJobNotFound(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	err := st.UpdateJob(context.Background(), sampleJob("missing", model.JobStateCompleted))
	assert.ErrorContains(t, err, "not found")
}

func TestSQLiteListJobs(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	states := []model.JobState{
		model.JobStatePending,
		model.JobStateProcessing,
		model.JobStateCompleted,
		model.JobStateFailed,
	}
	for i, state := range states {
		job := sampleJob("task-"+string(rune('a'+i)), state)
		job.CreatedAt = job.CreatedAt.Add(time.Duration(i) * time.Second)
		require.NoError(t, st.SaveJob(ctx, job))
	}

	t.Run("all", func(t *testing.T) {
		jobs, err := st.ListJobs(ctx, JobFilter{})
		require.NoError(t, err)
		assert.Len(t, jobs, 4)
		// Newest first.
		assert.Equal(t, "task-d", jobs[0].TaskID)
	})

	t.Run("by state", func(t *testing.T) {
		jobs, err := st.ListJobs(ctx, JobFilter{State: model.JobStateFailed})
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, "task-d", jobs[0].TaskID)
	})

	t.Run("active only", func(t *testing.T) {
		jobs, err := st.ListJobs(ctx, JobFilter{Active: true})
		require.NoError(t, err)
		require.Len(t, jobs, 2)
		for _, j := range jobs {
			assert.False(t, j.State.Terminal())
		}
	})

	t.Run("limit and offset", func(t *testing.T) {
		jobs, err := st.ListJobs(ctx, JobFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, jobs, 2)
		assert.Equal(t, "task-c", jobs[0].TaskID)
	})
}

func TestSQLiteDeleteJob(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveJob(ctx, sampleJob("task-1", model.JobStateCompleted)))
	require.NoError(t, st.DeleteJob(ctx, "task-1"))

	_, err := st.GetJob(ctx, "task-1")
	assert.ErrorContains(t, err, "not found")

	assert.ErrorContains(t, st.DeleteJob(ctx, "task-1"), "not found")
}

func TestSQLiteDuplicateSaveFails(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveJob(ctx, sampleJob("task-1", model.JobStatePending)))
	assert.Error(t, st.SaveJob(ctx, sampleJob("task-1", model.JobStatePending)))
}
