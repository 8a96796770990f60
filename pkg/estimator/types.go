package estimator

import (
	"encoding/json"

	"github.com/sells-group/boq-console/internal/model"
)

// TaskStatus is the backend's job status vocabulary. Only SUCCESS and
// FAILURE are terminal; everything else means the task is still moving.
type TaskStatus string

const (
	StatusPending TaskStatus = "PENDING"
	StatusStarted TaskStatus = "STARTED"
	StatusSuccess TaskStatus = "SUCCESS"
	StatusFailure TaskStatus = "FAILURE"
)

// Terminal reports whether the status admits no further polling.
func (s TaskStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Progress reports how far along a running task is.
type Progress struct {
	Percent float64 `json:"percent"`
	Step    string  `json:"step"`
}

// TaskResult is the payload of a successful task.
type TaskResult struct {
	OutputFilePath string `json:"output_file_path"`
}

// StatusResponse is the poll endpoint's response shape.
type StatusResponse struct {
	TaskID   string          `json:"task_id"`
	Status   TaskStatus      `json:"status"`
	Result   *TaskResult     `json:"result,omitempty"`
	Error    json.RawMessage `json:"error,omitempty"`
	Progress Progress        `json:"progress"`
}

// AnalysisResult is the one-shot analysis payload: backend KPIs and charts
// pass through untouched; grid rows preserve their column order.
type AnalysisResult struct {
	KPIs     map[string]any `json:"kpis"`
	Charts   map[string]any `json:"charts"`
	GridData []model.Row    `json:"grid_data"`
}

// SubmitResponse is the job submission response.
type SubmitResponse struct {
	TaskID string `json:"task_id"`
}
