package model

import "time"

// JobState represents the lifecycle of a submitted estimation job as the
// console tracks it. Backend task statuses (SUCCESS, FAILURE, PENDING, ...)
// are mapped onto these four states by the poller.
type JobState string

const (
	JobStatePending    JobState = "pending"
	JobStateProcessing JobState = "processing"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
)

// Terminal reports whether the state admits no further transitions. Poll
// responses arriving after a job is terminal are discarded.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// Job is one tracked estimation run: a BOQ submitted to the backend,
// identified by the backend task ID.
type Job struct {
	TaskID          string    `json:"task_id"`
	Filename        string    `json:"filename"`
	State           JobState  `json:"state"`
	OutputFile      string    `json:"output_file,omitempty"`
	Error           string    `json:"error,omitempty"` // raw backend error payload, shown verbatim
	ProgressPercent float64   `json:"progress_percent"`
	ProgressStep    string    `json:"progress_step,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
