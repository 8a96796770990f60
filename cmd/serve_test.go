package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boq-console/internal/analytics"
	"github.com/sells-group/boq-console/internal/config"
	"github.com/sells-group/boq-console/internal/model"
	"github.com/sells-group/boq-console/internal/store"
	"github.com/sells-group/boq-console/pkg/estimator"
)

// fakeBackend is an estimator.Client test double.
type fakeBackend struct {
	healthErr error
	submitID  string
	submitErr error
	statuses  map[string]*estimator.StatusResponse
	analysis  map[string]*estimator.AnalysisResult
}

func (f *fakeBackend) Health(ctx context.Context) error { return f.healthErr }

func (f *fakeBackend) SubmitEstimate(ctx context.Context, boqPath, sorPath string) (string, error) {
	return f.submitID, f.submitErr
}

func (f *fakeBackend) TaskStatus(ctx context.Context, taskID string) (*estimator.StatusResponse, error) {
	if resp, ok := f.statuses[taskID]; ok {
		return resp, nil
	}
	return nil, eris.Errorf("unknown task %s", taskID)
}

func (f *fakeBackend) Analysis(ctx context.Context, taskID string) (*estimator.AnalysisResult, error) {
	if result, ok := f.analysis[taskID]; ok {
		return result, nil
	}
	return nil, eris.Errorf("unknown task %s", taskID)
}

func (f *fakeBackend) Download(ctx context.Context, filename, destDir string) (string, error) {
	return "", eris.New("not implemented")
}

func (f *fakeBackend) UpdateSOR(ctx context.Context, path string) error { return nil }

func newTestGateway(t *testing.T, backend *fakeBackend) *gateway {
	t.Helper()

	// Handlers read the poll interval from the global config.
	cfg = &config.Config{Poll: config.PollConfig{IntervalSecs: 1}}

	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	return &gateway{client: backend, store: st}
}

func gridRows(boqAmounts ...float64) []model.Row {
	rows := make([]model.Row, len(boqAmounts))
	for i, amount := range boqAmounts {
		row := model.NewRow()
		row.Set("Description", "Item")
		row.Set("Amount (BOQ)", amount)
		row.Set("SOR Amount", 1000.0)
		row.Set("Match Found", true)
		rows[i] = row
	}
	return rows
}

func TestGatewayHealth(t *testing.T) {
	gw := newTestGateway(t, &fakeBackend{})
	srv := httptest.NewServer(gw.routes(context.Background()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["backend"])
}

func TestGatewayHealthBackendDown(t *testing.T) {
	gw := newTestGateway(t, &fakeBackend{healthErr: eris.New("refused")})
	srv := httptest.NewServer(gw.routes(context.Background()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	// The gateway itself is up even when the backend is not.
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "unreachable", body["backend"])
}

func TestGatewaySubmitAndTrack(t *testing.T) {
	backend := &fakeBackend{
		submitID: "task-9",
		statuses: map[string]*estimator.StatusResponse{
			"task-9": {Status: estimator.StatusSuccess, Result: &estimator.TaskResult{OutputFilePath: "out.xlsx"}},
		},
	}
	gw := newTestGateway(t, backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := httptest.NewServer(gw.routes(ctx))
	defer srv.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "boq.xlsx")
	require.NoError(t, err)
	part.Write([]byte("boq-bytes"))
	require.NoError(t, w.Close())

	resp, err := http.Post(srv.URL+"/api/jobs", w.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var submitted map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitted))
	assert.Equal(t, "task-9", submitted["task_id"])

	// The background poller settles the job.
	require.Eventually(t, func() bool {
		job, err := gw.store.GetJob(context.Background(), "task-9")
		return err == nil && job.State == model.JobStateCompleted
	}, 5*time.Second, 50*time.Millisecond)

	job, err := gw.store.GetJob(context.Background(), "task-9")
	require.NoError(t, err)
	assert.Equal(t, "out.xlsx", job.OutputFile)
}

func TestGatewaySubmitRequiresFile(t *testing.T) {
	gw := newTestGateway(t, &fakeBackend{submitID: "task-9"})
	srv := httptest.NewServer(gw.routes(context.Background()))
	defer srv.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.Close())

	resp, err := http.Post(srv.URL+"/api/jobs", w.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGatewayDashboardRequiresCompletedJob(t *testing.T) {
	gw := newTestGateway(t, &fakeBackend{})
	require.NoError(t, gw.store.SaveJob(context.Background(), model.Job{
		TaskID: "task-1", Filename: "boq.xlsx", State: model.JobStateProcessing,
	}))

	srv := httptest.NewServer(gw.routes(context.Background()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/dashboard/task-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/api/dashboard/ghost")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestGatewayDashboard(t *testing.T) {
	backend := &fakeBackend{
		analysis: map[string]*estimator.AnalysisResult{
			"task-1": {GridData: gridRows(1000, 1300)},
		},
	}
	gw := newTestGateway(t, backend)
	require.NoError(t, gw.store.SaveJob(context.Background(), model.Job{
		TaskID: "task-1", Filename: "boq.xlsx", State: model.JobStateCompleted,
	}))

	srv := httptest.NewServer(gw.routes(context.Background()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/dashboard/task-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var d analytics.Dashboard
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&d))
	assert.Equal(t, 2, d.Stats.Total)
	assert.Equal(t, 1, d.Stats.Exact)
	assert.Equal(t, 1, d.Stats.Overpriced)
	require.Len(t, d.CostWalk, 3)
}

func TestGatewayGridFilterAndSearch(t *testing.T) {
	rows := gridRows(1000, 1300, 1100)
	rows[1].Set("Description", "Concrete")
	backend := &fakeBackend{
		analysis: map[string]*estimator.AnalysisResult{"task-1": {GridData: rows}},
	}
	gw := newTestGateway(t, backend)
	require.NoError(t, gw.store.SaveJob(context.Background(), model.Job{
		TaskID: "task-1", Filename: "boq.xlsx", State: model.JobStateCompleted,
	}))

	srv := httptest.NewServer(gw.routes(context.Background()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/grid/task-1?filter=critical&q=concrete")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Rows []struct {
			ID        string `json:"id"`
			Highlight string `json:"highlight"`
		} `json:"rows"`
		Counts struct {
			All      int `json:"all"`
			Critical int `json:"critical"`
		} `json:"counts"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.Len(t, body.Rows, 1)
	assert.Equal(t, "warning-orange", body.Rows[0].Highlight)
	// Counts cover the whole dataset, not the filtered projection.
	assert.Equal(t, 3, body.Counts.All)
	assert.Equal(t, 1, body.Counts.Critical)
}

func TestGatewayDeleteJob(t *testing.T) {
	gw := newTestGateway(t, &fakeBackend{})
	require.NoError(t, gw.store.SaveJob(context.Background(), model.Job{
		TaskID: "task-1", Filename: "boq.xlsx", State: model.JobStateCompleted,
	}))

	srv := httptest.NewServer(gw.routes(context.Background()))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/jobs/task-1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/api/jobs/task-1")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
